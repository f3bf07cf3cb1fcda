package mockapi

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	domainauth "github.com/NordCoder/Linkbio/internal/domain/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in domainauth.Registration
	if err := decode(r, &in); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	acc, err := s.uc.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, acc.User)
}

// login takes the OAuth2 password form; "username" carries the email.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, r, s.log, errBadBody)
		return
	}
	var v validation
	v.require(r.PostForm.Get("username") != "", "body", "username", "Field required")
	v.require(r.PostForm.Get("password") != "", "body", "password", "Field required")
	if err := v.err(); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	access, refresh, err := s.uc.SignIn(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	s.setRefreshCookie(w, refresh)
	writeJSON(w, http.StatusOK, domainauth.Token{AccessToken: access, TokenType: domainauth.TokenTypeBearer})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)
	if err := sleep(r.Context(), time.Duration(s.refreshDelay.Load())); err != nil {
		return
	}
	if code := int(s.refreshStatus.Load()); code != 0 {
		if code == http.StatusUnauthorized {
			s.clearRefreshCookie(w)
		}
		writeError(w, r, s.log, problem(code, "Refresh rejected"))
		return
	}

	access, refresh, err := s.uc.Refresh(r.Context(), s.refreshCookie(r))
	if err != nil {
		if !errors.Is(err, errNoRefreshToken) {
			s.clearRefreshCookie(w)
		}
		writeError(w, r, s.log, err)
		return
	}
	s.setRefreshCookie(w, refresh)
	writeJSON(w, http.StatusOK, domainauth.Token{AccessToken: access, TokenType: domainauth.TokenTypeBearer})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if code := int(s.logoutStatus.Load()); code != 0 {
		writeError(w, r, s.log, problem(code, "Logout failed"))
		return
	}
	if err := s.uc.Logout(r.Context(), s.refreshCookie(r)); err != nil {
		s.log.Warn("mockapi.logout revoke failed", zap.Error(err))
	}
	s.clearRefreshCookie(w)
	writeMessage(w, http.StatusOK, "Successfully logged out")
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, accountFrom(r.Context()).User)
}

func (s *Server) validateEmail(w http.ResponseWriter, r *http.Request) {
	email := param(r, "email")
	_, err := s.users.GetByEmail(r.Context(), normalizeEmail(email))
	out := domainauth.EmailValidation{Email: email, Available: err != nil, Message: "Email is available"}
	if !out.Available {
		out.Message = errEmailTaken.Detail
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) validateUsername(w http.ResponseWriter, r *http.Request) {
	username := param(r, "username")
	_, err := s.users.GetByUsername(r.Context(), username)
	out := domainauth.UsernameValidation{Username: username, Available: err != nil, Message: "Username is available"}
	if !out.Available {
		out.Message = errUsernameTaken.Detail
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) verifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, r, s.log, &Problem{Status: http.StatusUnprocessableEntity, Detail: "Field required",
			Fields: []FieldProblem{{Loc: []string{"query", "token"}, Msg: "Field required", Type: "missing"}}})
		return
	}
	if err := s.uc.VerifyEmail(r.Context(), token); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "Email verified successfully")
}

func (s *Server) resendVerification(w http.ResponseWriter, r *http.Request) {
	if err := s.uc.ResendVerification(r.Context(), accountFrom(r.Context())); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "Verification email sent")
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := decode(r, &in); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := s.uc.ForgotPassword(r.Context(), in.Email); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeMessage(w, http.StatusAccepted, "If that email exists, you'll receive a password reset link")
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var in domainauth.ResetPassword
	if err := decode(r, &in); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := s.uc.ResetPassword(r.Context(), in); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password reset successful")
}

// param returns the unescaped path parameter; chi matches on the raw path
// when the request carries one.
func param(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}
