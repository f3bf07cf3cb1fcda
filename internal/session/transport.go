package session

import (
	"context"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/NordCoder/Linkbio/internal/obs"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-Id"

type retryKey struct{}

// MarkRetry tags ctx so that a 401 on a request carrying it is final.
func MarkRetry(ctx context.Context) context.Context {
	return context.WithValue(ctx, retryKey{}, true)
}

func IsRetry(ctx context.Context) bool {
	v, _ := ctx.Value(retryKey{}).(bool)
	return v
}

type transport struct {
	m    *Manager
	base http.RoundTripper
}

// Transport wraps base with credential handling: the current token is
// attached when the request is sent, and a 401 triggers one shared refresh
// followed by a single retry.
func (m *Manager) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{m: m, base: base}
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, used, err := t.send(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || IsRetry(req.Context()) || t.m.isPublic(req.URL.Path) {
		return resp, nil
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		t.m.log.Debug("session.retry skipped, body not replayable", zap.String("path", req.URL.Path))
		return resp, nil
	}

	ctx := req.Context()
	drain(resp)
	tok, err := t.m.refresh(ctx, triggerInterceptor, used)
	if err != nil {
		obs.SessionRetries.WithLabelValues("rejected").Inc()
		return nil, err
	}

	retry := req.Clone(MarkRetry(ctx))
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	resp, _, err = t.sendWith(retry, tok)
	if err != nil {
		obs.SessionRetries.WithLabelValues("error").Inc()
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		obs.SessionRetries.WithLabelValues("unauthorized").Inc()
	} else {
		obs.SessionRetries.WithLabelValues("ok").Inc()
	}
	return resp, nil
}

func (t *transport) send(req *http.Request) (*http.Response, string, error) {
	return t.sendWith(req, t.m.AccessToken())
}

func (t *transport) sendWith(req *http.Request, token string) (*http.Response, string, error) {
	out := req.Clone(req.Context())
	if token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	} else {
		out.Header.Del("Authorization")
	}
	if out.Header.Get(RequestIDHeader) == "" {
		id := obs.RequestID(req.Context())
		if id == "" {
			id = uuid.NewString()
		}
		out.Header.Set(RequestIDHeader, id)
	}
	resp, err := t.base.RoundTrip(out)
	return resp, token, err
}

func (m *Manager) isPublic(path string) bool {
	rest, ok := strings.CutPrefix(path, m.basePath)
	if !ok || (rest != "" && rest[0] != '/') {
		return false
	}
	return slices.Contains(m.publicPaths, strings.TrimSuffix(rest, "/"))
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	_ = resp.Body.Close()
}
