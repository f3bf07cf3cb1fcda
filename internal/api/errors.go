package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/NordCoder/Linkbio/internal/errs"
)

// FastAPI sends {"detail": "..."} or, for request validation,
// {"detail": [{"loc": ["body", "email"], "msg": "..."}]}.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationItem struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func decodeError(resp *http.Response, credential bool) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	e := &errs.Error{Kind: kindFor(resp.StatusCode, credential), Status: resp.StatusCode}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Detail) > 0 {
		var msg string
		var items []validationItem
		switch {
		case json.Unmarshal(body.Detail, &msg) == nil:
			e.Message = msg
		case json.Unmarshal(body.Detail, &items) == nil:
			for _, it := range items {
				e.Fields = append(e.Fields, errs.FieldError{Field: fieldName(it.Loc), Message: it.Msg})
			}
			if len(items) > 0 {
				e.Message = items[0].Msg
			}
		}
	}
	if e.Message == "" {
		e.Message = errs.DefaultMessage
	}
	return e
}

func kindFor(status int, credential bool) error {
	switch {
	case status == http.StatusUnauthorized && credential:
		return errs.ErrInvalidCredentials
	case status == http.StatusUnauthorized:
		return errs.ErrSessionExpired
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return errs.ErrValidation
	case status == http.StatusForbidden:
		return errs.ErrForbidden
	case status == http.StatusNotFound:
		return errs.ErrNotFound
	case status == http.StatusConflict:
		return errs.ErrConflict
	default:
		return errs.ErrServer
	}
}

// fieldName drops the leading "body"/"query" location.
func fieldName(loc []any) string {
	parts := make([]string, 0, len(loc))
	for i, p := range loc {
		s := fmt.Sprint(p)
		if i == 0 && (s == "body" || s == "query" || s == "path") {
			continue
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ".")
}
