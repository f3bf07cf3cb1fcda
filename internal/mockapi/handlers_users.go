package mockapi

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/NordCoder/Linkbio/internal/domain/link"
	"github.com/NordCoder/Linkbio/internal/domain/user"
	"github.com/NordCoder/Linkbio/internal/repository/memory"
	"github.com/google/uuid"
)

const maxAvatarBytes = 5 << 20

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	skip, limit := 0, 100
	q := r.URL.Query()
	if v := q.Get("skip"); v != "" {
		skip, _ = strconv.Atoi(v)
	}
	if v := q.Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	accs, err := s.users.List(r.Context(), skip, limit)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	out := make([]user.User, 0, len(accs))
	for _, a := range accs {
		out = append(out, a.User)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(param(r, "id"), 10, 64)
	if err != nil {
		writeError(w, r, s.log, errUserNotFound)
		return
	}
	acc, err := s.users.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, s.log, errUserNotFound)
		return
	}
	out := user.WithProfile{User: acc.User}
	if p, err := s.profiles.GetByUserID(r.Context(), id); err == nil {
		out.Profile = p
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) publicProfile(w http.ResponseWriter, r *http.Request) {
	acc, err := s.users.GetByUsername(r.Context(), param(r, "username"))
	if err != nil {
		writeError(w, r, s.log, errUserNotFound)
		return
	}
	out := user.PublicProfile{
		Username:  acc.Username,
		FullName:  acc.FullName,
		Bio:       acc.Bio,
		AvatarURL: acc.AvatarURL,
	}
	if p, err := s.profiles.GetByUserID(r.Context(), acc.ID); err == nil {
		if !p.IsPublic {
			writeError(w, r, s.log, errPrivateProfile)
			return
		}
		out.Profile = p
	}
	links, err := s.links.ListByUser(r.Context(), acc.ID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	out.Links = link.Active(values(links))
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) updateMe(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())
	var in user.Update
	if err := decode(r, &in); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	var v validation
	if in.Username != nil {
		v.require(len(*in.Username) >= 3 && len(*in.Username) <= 50, "body", "username", "String should have between 3 and 50 characters")
	}
	if in.Email != nil {
		v.require(strings.Contains(*in.Email, "@"), "body", "email", "value is not a valid email address")
	}
	if err := v.err(); err != nil {
		writeError(w, r, s.log, err)
		return
	}

	if in.Email != nil && !strings.EqualFold(*in.Email, acc.Email) {
		if _, err := s.users.GetByEmail(r.Context(), *in.Email); err == nil {
			writeError(w, r, s.log, errEmailTaken)
			return
		}
		acc.Email = normalizeEmail(*in.Email)
	}
	if in.Username != nil && *in.Username != acc.Username {
		if _, err := s.users.GetByUsername(r.Context(), *in.Username); err == nil {
			writeError(w, r, s.log, errUsernameTaken)
			return
		}
		acc.Username = *in.Username
	}
	if in.FullName != nil {
		acc.FullName = *in.FullName
	}
	if in.Bio != nil {
		acc.Bio = *in.Bio
	}
	if in.AvatarURL != nil {
		acc.AvatarURL = *in.AvatarURL
	}
	s.saveAccount(w, r, acc)
}

func (s *Server) setAvatar(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())
	var in struct {
		AvatarURL string `json:"avatar_url"`
	}
	if err := decode(r, &in); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	var v validation
	v.require(in.AvatarURL != "" && len(in.AvatarURL) <= 500, "body", "avatar_url", "String should have between 1 and 500 characters")
	if err := v.err(); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	acc.AvatarURL = in.AvatarURL
	s.saveAccount(w, r, acc)
}

// uploadAvatar keeps no bytes; it only assigns a stable URL to the upload.
func (s *Server) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, s.log, &Problem{Status: http.StatusUnprocessableEntity, Detail: "Field required",
			Fields: []FieldProblem{{Loc: []string{"body", "file"}, Msg: "Field required", Type: "missing"}}})
		return
	}
	defer f.Close()

	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	if !strings.HasPrefix(http.DetectContentType(head[:n]), "image/") {
		writeError(w, r, s.log, problem(http.StatusBadRequest, "File must be an image"))
		return
	}
	acc.AvatarURL = "/static/avatars/" + strconv.FormatInt(acc.ID, 10) + "_" + uuid.NewString() + path.Ext(hdr.Filename)
	s.saveAccount(w, r, acc)
}

func (s *Server) removeAvatar(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())
	acc.AvatarURL = ""
	s.saveAccount(w, r, acc)
}

func (s *Server) deleteMe(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())
	ctx := r.Context()
	if err := s.links.DeleteByUser(ctx, acc.ID); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := s.profiles.DeleteByUserID(ctx, acc.ID); err != nil && !errors.Is(err, memory.ErrNotFound) {
		writeError(w, r, s.log, err)
		return
	}
	if err := s.rt.RevokeAll(ctx, acc.ID); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := s.users.Delete(ctx, acc.ID); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	s.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) saveAccount(w http.ResponseWriter, r *http.Request, acc *user.Account) {
	if err := s.users.Update(r.Context(), acc); err != nil {
		if errors.Is(err, memory.ErrConflict) {
			writeError(w, r, s.log, errUsernameTaken)
			return
		}
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, acc.User)
}
