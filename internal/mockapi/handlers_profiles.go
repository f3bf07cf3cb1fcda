package mockapi

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"

	"github.com/NordCoder/Linkbio/internal/domain/profile"
	"github.com/NordCoder/Linkbio/internal/repository/memory"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func (s *Server) myProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.GetByUserID(r.Context(), accountFrom(r.Context()).ID)
	if err != nil {
		writeError(w, r, s.log, errProfileNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) createProfile(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())
	if _, err := s.profiles.GetByUserID(r.Context(), acc.ID); err == nil {
		writeError(w, r, s.log, errProfileExists)
		return
	}
	in, err := decodeProfile(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	p := defaultProfile(acc.ID)
	applyProfileUpdate(p, in)
	if err := s.profiles.Create(r.Context(), p); err != nil {
		if errors.Is(err, memory.ErrConflict) {
			writeError(w, r, s.log, errDomainTaken)
			return
		}
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.GetByUserID(r.Context(), accountFrom(r.Context()).ID)
	if err != nil {
		writeError(w, r, s.log, errProfileNotFound)
		return
	}
	in, err := decodeProfile(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	applyProfileUpdate(p, in)
	if err := s.profiles.Update(r.Context(), p); err != nil {
		if errors.Is(err, memory.ErrConflict) {
			writeError(w, r, s.log, errDomainTaken)
			return
		}
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.profiles.DeleteByUserID(r.Context(), accountFrom(r.Context()).ID); err != nil {
		writeError(w, r, s.log, errProfileNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) profileByUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(param(r, "user_id"), 10, 64)
	if err != nil {
		writeError(w, r, s.log, errProfileNotFound)
		return
	}
	p, err := s.profiles.GetByUserID(r.Context(), id)
	if err != nil {
		writeError(w, r, s.log, errProfileNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func decodeProfile(r *http.Request) (profile.Update, error) {
	var in profile.Update
	if err := decode(r, &in); err != nil {
		return in, err
	}
	var v validation
	if in.BackgroundColor != nil {
		v.require(hexColor.MatchString(*in.BackgroundColor), "body", "background_color", "String should match pattern '^#[0-9A-Fa-f]{6}$'")
	}
	if in.TextColor != nil {
		v.require(hexColor.MatchString(*in.TextColor), "body", "text_color", "String should match pattern '^#[0-9A-Fa-f]{6}$'")
	}
	if in.PageTitle != nil {
		v.require(len(*in.PageTitle) <= 100, "body", "page_title", "String should have at most 100 characters")
	}
	if in.MetaDescription != nil {
		v.require(len(*in.MetaDescription) <= 255, "body", "meta_description", "String should have at most 255 characters")
	}
	return in, v.err()
}

func applyProfileUpdate(p *profile.Profile, in profile.Update) {
	if in.PageTitle != nil {
		p.PageTitle = *in.PageTitle
	}
	if in.Theme != nil {
		p.Theme = *in.Theme
	}
	if in.BackgroundColor != nil {
		p.BackgroundColor = *in.BackgroundColor
	}
	if in.TextColor != nil {
		p.TextColor = *in.TextColor
	}
	if in.ButtonStyle != nil {
		p.ButtonStyle = *in.ButtonStyle
	}
	if in.MetaDescription != nil {
		p.MetaDescription = *in.MetaDescription
	}
	if in.CustomDomain != nil {
		p.CustomDomain = *in.CustomDomain
	}
	if in.IsPublic != nil {
		p.IsPublic = *in.IsPublic
	}
}
