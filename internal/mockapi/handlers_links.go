package mockapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/NordCoder/Linkbio/internal/domain/link"
	"github.com/NordCoder/Linkbio/internal/repository/memory"
)

func (s *Server) listLinks(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())
	links, err := s.links.ListByUser(r.Context(), acc.ID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, values(links))
}

func (s *Server) getLink(w http.ResponseWriter, r *http.Request) {
	l, err := s.ownLink(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) createLink(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())
	if !acc.IsVerified {
		writeError(w, r, s.log, errNotVerified)
		return
	}
	var in link.Create
	if err := decode(r, &in); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	var v validation
	v.require(in.Title != "" && len(in.Title) <= 200, "body", "title", "String should have between 1 and 200 characters")
	v.require(in.URL != "" && len(in.URL) <= 2000, "body", "url", "String should have between 1 and 2000 characters")
	v.require(in.LinkType == "" || in.LinkType == link.TypeButton || in.LinkType == link.TypeLink, "body", "link_type", "Input should be 'button' or 'link'")
	if err := v.err(); err != nil {
		writeError(w, r, s.log, err)
		return
	}

	l := &link.Link{
		UserID:         acc.ID,
		LinkType:       in.LinkType,
		SocialPlatform: in.SocialPlatform,
		Title:          in.Title,
		URL:            in.URL,
		Description:    in.Description,
		ThumbnailURL:   in.ThumbnailURL,
		IsActive:       true,
	}
	if l.LinkType == "" {
		l.LinkType = link.TypeLink
	}
	if in.Position != nil {
		l.Position = *in.Position
	}
	if in.IsActive != nil {
		l.IsActive = *in.IsActive
	}
	if err := s.links.Create(r.Context(), l); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (s *Server) updateLink(w http.ResponseWriter, r *http.Request) {
	l, err := s.ownLink(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	var in link.Update
	if err := decode(r, &in); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	applyLinkUpdate(l, in)
	if err := s.links.Update(r.Context(), l); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func applyLinkUpdate(l *link.Link, in link.Update) {
	if in.LinkType != nil {
		l.LinkType = *in.LinkType
	}
	if in.SocialPlatform != nil {
		l.SocialPlatform = *in.SocialPlatform
	}
	if in.Title != nil {
		l.Title = *in.Title
	}
	if in.URL != nil {
		l.URL = *in.URL
	}
	if in.Description != nil {
		l.Description = *in.Description
	}
	if in.ThumbnailURL != nil {
		l.ThumbnailURL = *in.ThumbnailURL
	}
	if in.Position != nil {
		l.Position = *in.Position
	}
	if in.IsActive != nil {
		l.IsActive = *in.IsActive
	}
}

func (s *Server) deleteLink(w http.ResponseWriter, r *http.Request) {
	l, err := s.ownLink(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := s.links.Delete(r.Context(), l.ID); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// reorderLinks applies only the moves that target the caller's links and
// answers with the full list in position order.
func (s *Server) reorderLinks(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(r.Context())
	var moves []link.Reorder
	if err := decode(r, &moves); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	for _, m := range moves {
		l, err := s.links.GetByID(r.Context(), m.LinkID)
		if err != nil || l.UserID != acc.ID {
			continue
		}
		l.Position = m.NewPosition
		if err := s.links.Update(r.Context(), l); err != nil {
			writeError(w, r, s.log, err)
			return
		}
	}
	links, err := s.links.ListByUser(r.Context(), acc.ID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, values(links))
}

func (s *Server) clickLink(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(param(r, "id"), 10, 64)
	if err != nil {
		writeError(w, r, s.log, errLinkNotFound)
		return
	}
	l, err := s.links.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, s.log, errLinkNotFound)
		return
	}
	l.ClickCount++
	if err := s.links.Update(r.Context(), l); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) userLinks(w http.ResponseWriter, r *http.Request) {
	acc, err := s.users.GetByUsername(r.Context(), param(r, "username"))
	if err != nil {
		writeError(w, r, s.log, errUserNotFound)
		return
	}
	links, err := s.links.ListByUser(r.Context(), acc.ID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, link.Active(values(links)))
}

func (s *Server) ownLink(r *http.Request) (*link.Link, error) {
	id, err := strconv.ParseInt(param(r, "id"), 10, 64)
	if err != nil {
		return nil, &Problem{Status: http.StatusUnprocessableEntity, Detail: "Input should be a valid integer",
			Fields: []FieldProblem{{Loc: []string{"path", "id"}, Msg: "Input should be a valid integer", Type: "int_parsing"}}}
	}
	l, err := s.links.GetByID(r.Context(), id)
	if errors.Is(err, memory.ErrNotFound) || (err == nil && l.UserID != accountFrom(r.Context()).ID) {
		return nil, errLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func values(links []*link.Link) []link.Link {
	out := make([]link.Link, 0, len(links))
	for _, l := range links {
		out = append(out, *l)
	}
	return out
}
