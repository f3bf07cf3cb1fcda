package session

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NordCoder/Linkbio/internal/domain/auth"
	"github.com/NordCoder/Linkbio/internal/domain/user"
	"github.com/NordCoder/Linkbio/internal/errs"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	refreshCalls int32
	loginCalls   int32
	meCalls      int32

	refresh   func(ctx context.Context) (*auth.Token, error)
	login     func(ctx context.Context, c auth.Credentials) (*auth.Token, error)
	logoutErr error
	meErr     error
}

func (f *fakeAuth) Login(ctx context.Context, c auth.Credentials) (*auth.Token, error) {
	atomic.AddInt32(&f.loginCalls, 1)
	if f.login != nil {
		return f.login(ctx, c)
	}
	if c.Password != "secret" {
		return nil, errs.New(errs.ErrInvalidCredentials, http.StatusUnauthorized, "Incorrect email or password")
	}
	return &auth.Token{AccessToken: "t0", TokenType: auth.TokenTypeBearer}, nil
}

func (f *fakeAuth) Refresh(ctx context.Context) (*auth.Token, error) {
	atomic.AddInt32(&f.refreshCalls, 1)
	if f.refresh != nil {
		return f.refresh(ctx)
	}
	return &auth.Token{AccessToken: "t1", TokenType: auth.TokenTypeBearer}, nil
}

func (f *fakeAuth) Logout(context.Context) error { return f.logoutErr }

func (f *fakeAuth) Me(context.Context) (*user.User, error) {
	atomic.AddInt32(&f.meCalls, 1)
	if f.meErr != nil {
		return nil, f.meErr
	}
	return &user.User{ID: 1, Email: "ann@example.com", Username: "ann"}, nil
}

func (f *fakeAuth) refreshes() int { return int(atomic.LoadInt32(&f.refreshCalls)) }

type fakeCache struct {
	mu          sync.Mutex
	set         map[string]any
	invalidated []string
	clears      int
}

func newFakeCache() *fakeCache { return &fakeCache{set: make(map[string]any)} }

func (c *fakeCache) Set(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set[key] = v
}

func (c *fakeCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, key)
}

func (c *fakeCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clears++
	c.set = make(map[string]any)
}

func (c *fakeCache) clearCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clears
}

// protectedAPI accepts only the current valid token; /auth/* always answers 401.
type protectedAPI struct {
	mu        sync.Mutex
	valid     string
	always401 bool
	hits      int32
	bodies    []string
	auths     []string
}

func (p *protectedAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&p.hits, 1)
	body, _ := io.ReadAll(r.Body)
	p.mu.Lock()
	p.bodies = append(p.bodies, string(body))
	p.auths = append(p.auths, r.Header.Get("Authorization"))
	valid, always := p.valid, p.always401
	p.mu.Unlock()

	if always || strings.HasPrefix(r.URL.Path, "/auth/") || r.Header.Get("Authorization") != "Bearer "+valid {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
		return
	}
	_, _ = w.Write([]byte("ok"))
}

func (p *protectedAPI) lastAuth() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.auths) == 0 {
		return ""
	}
	return p.auths[len(p.auths)-1]
}

type harness struct {
	fa  *fakeAuth
	fc  *fakeCache
	m   *Manager
	api *protectedAPI
	srv *httptest.Server
	hc  *http.Client
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{fa: &fakeAuth{}, fc: newFakeCache(), api: &protectedAPI{valid: "t1"}}
	h.m = NewManager(h.fa, append([]Option{WithCache(h.fc)}, opts...)...)
	h.srv = httptest.NewServer(h.api)
	t.Cleanup(h.srv.Close)
	h.hc = &http.Client{Transport: h.m.Transport(http.DefaultTransport), Timeout: 5 * time.Second}
	return h
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	_, err := h.m.Login(context.Background(), auth.Credentials{Email: "ann@example.com", Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, "t0", h.m.AccessToken())
}

func (h *harness) get(path string) (*http.Response, error) {
	return h.hc.Get(h.srv.URL + path)
}

func (m *Manager) pendingLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

var errRefreshRejected = errs.New(errs.ErrSessionExpired, http.StatusUnauthorized, "Invalid refresh token")
