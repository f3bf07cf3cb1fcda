package mockapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// Problem is an error the API reports to the client as {"detail": ...}.
type Problem struct {
	Status int
	Detail string
	Fields []FieldProblem
}

// FieldProblem mirrors a request validation item.
type FieldProblem struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func (p *Problem) Error() string { return p.Detail }

func problem(status int, detail string) *Problem {
	return &Problem{Status: status, Detail: detail}
}

var (
	errBadCredentials   = problem(http.StatusUnauthorized, "Incorrect email or password")
	errNotAuthenticated = problem(http.StatusUnauthorized, "Could not validate credentials")
	errNoRefreshToken   = problem(http.StatusUnauthorized, "Refresh token not found")
	errBadRefreshToken  = problem(http.StatusUnauthorized, "Invalid refresh token")
	errInactiveUser     = problem(http.StatusBadRequest, "Inactive user")
	errEmailTaken       = problem(http.StatusBadRequest, "Email already registered")
	errUsernameTaken    = problem(http.StatusBadRequest, "Username already taken")
	errBadVerifyToken   = problem(http.StatusBadRequest, "Invalid or expired token")
	errAlreadyVerified  = problem(http.StatusBadRequest, "Email already verified")
	errBadResetToken    = problem(http.StatusBadRequest, "Invalid or expired reset token")
	errNotVerified      = problem(http.StatusForbidden, "User is not verified")
	errPrivateProfile   = problem(http.StatusForbidden, "This profile is private")
	errUserNotFound     = problem(http.StatusNotFound, "User not found")
	errLinkNotFound     = problem(http.StatusNotFound, "Link not found")
	errProfileNotFound  = problem(http.StatusNotFound, "Profile not found")
	errProfileExists    = problem(http.StatusBadRequest, "Profile already exists")
	errDomainTaken      = problem(http.StatusBadRequest, "Custom domain already taken")
	errBadBody          = problem(http.StatusUnprocessableEntity, "Invalid request body")
)

type validation struct {
	fields []FieldProblem
}

func (v *validation) require(ok bool, loc, field, msg string) {
	if !ok {
		v.fields = append(v.fields, FieldProblem{Loc: []string{loc, field}, Msg: msg, Type: "value_error"})
	}
}

func (v *validation) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &Problem{Status: http.StatusUnprocessableEntity, Detail: v.fields[0].Msg, Fields: v.fields}
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeError renders a Problem as-is and anything else as a 500 with the
// cause kept out of the body.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var p *Problem
	if !errors.As(err, &p) {
		log.Error("mockapi.internal", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal server error"})
		return
	}
	if p.Status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	if len(p.Fields) > 0 {
		writeJSON(w, p.Status, map[string]any{"detail": p.Fields})
		return
	}
	writeJSON(w, p.Status, map[string]string{"detail": p.Detail})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &Problem{Status: http.StatusUnprocessableEntity, Detail: errBadBody.Detail,
			Fields: []FieldProblem{{Loc: []string{"body"}, Msg: err.Error(), Type: "json_invalid"}}}
	}
	return nil
}
