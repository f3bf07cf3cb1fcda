package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/NordCoder/Linkbio/internal/errs"
	"github.com/NordCoder/Linkbio/internal/obs"
	"go.uber.org/zap"
)

const DefaultBaseURL = "http://localhost:8000"

// Client talks to the link-in-bio REST API. Credentials are the concern of
// the http.Client's transport, not of this package.
type Client struct {
	base *url.URL
	hc   *http.Client
	log  *zap.Logger
}

func New(baseURL string, hc *http.Client, log *zap.Logger) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q: scheme and host required", baseURL)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{base: u, hc: hc, log: obs.OrNop(log)}, nil
}

func (c *Client) Auth() *AuthAPI         { return &AuthAPI{c: c} }
func (c *Client) Links() *LinksAPI       { return &LinksAPI{c: c} }
func (c *Client) Users() *UsersAPI       { return &UsersAPI{c: c} }
func (c *Client) Profiles() *ProfilesAPI { return &ProfilesAPI{c: c} }

func (c *Client) BaseURL() string { return c.base.String() }

type request struct {
	method string
	path   string
	query  url.Values
	json   any
	form   url.Values
	body   []byte
	ctype  string
	// credential marks the login call: its 401 means wrong credentials.
	credential bool
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	var (
		body  []byte
		ctype = r.ctype
	)
	switch {
	case r.json != nil:
		b, err := json.Marshal(r.json)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", r.method, r.path, err)
		}
		body, ctype = b, "application/json"
	case r.form != nil:
		body, ctype = []byte(r.form.Encode()), "application/x-www-form-urlencoded"
	case r.body != nil:
		body = r.body
	}

	// r.path is already escaped
	unescaped, err := url.PathUnescape(r.path)
	if err != nil {
		return fmt.Errorf("path %q: %w", r.path, err)
	}
	u := *c.base
	u.Path = c.base.Path + unescaped
	u.RawPath = c.base.EscapedPath() + r.path
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), rd)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", r.method, r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if ctype != "" {
		req.Header.Set("Content-Type", ctype)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	log := obs.WithTrace(ctx, c.log).With(zap.String("method", r.method), zap.String("path", r.path))
	if err != nil {
		log.Debug("api.request failed", zap.Error(err))
		return transportError(ctx, r, err)
	}
	defer resp.Body.Close()
	log.Debug("api.request", zap.Int("status", resp.StatusCode), zap.Duration("took", time.Since(start)))

	if resp.StatusCode >= 400 {
		return decodeError(resp, r.credential)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", r.method, r.path, err)
	}
	return nil
}

func transportError(ctx context.Context, r request, err error) error {
	switch {
	case errors.Is(err, errs.ErrUnauthenticated):
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return fmt.Errorf("%w: %s %s: %w", errs.ErrNetwork, r.method, r.path, err)
	}
}

func get(path string) request { return request{method: http.MethodGet, path: path} }

func post(path string) request { return request{method: http.MethodPost, path: path} }

func put(path string) request { return request{method: http.MethodPut, path: path} }

func patch(path string) request { return request{method: http.MethodPatch, path: path} }

func del(path string) request { return request{method: http.MethodDelete, path: path} }

func (r request) with(v any) request {
	r.json = v
	return r
}

func seg(s string) string { return url.PathEscape(s) }

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
