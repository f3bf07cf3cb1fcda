package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NordCoder/Linkbio/internal/domain/auth"
	"github.com/NordCoder/Linkbio/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedRefresh blocks the exchange until n-1 requests are parked behind it.
func gatedRefresh(h *harness, n int, result func() (*auth.Token, error)) {
	h.fa.refresh = func(ctx context.Context) (*auth.Token, error) {
		deadline := time.Now().Add(2 * time.Second)
		for h.m.pendingLen() < n-1 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		return result()
	}
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	const n = 10
	gatedRefresh(h, n, func() (*auth.Token, error) {
		return &auth.Token{AccessToken: "t1", TokenType: auth.TokenTypeBearer}, nil
	})

	var wg sync.WaitGroup
	var ok int32
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := h.get("/links/")
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode == http.StatusOK && string(body) == "ok" {
				atomic.AddInt32(&ok, 1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, h.fa.refreshes())
	require.Equal(t, int32(n), ok)
	require.Equal(t, "t1", h.m.AccessToken())
	require.Equal(t, Authenticated, h.m.State())
	require.Equal(t, "Bearer t1", h.api.lastAuth())
}

func TestFailedRefreshRejectsEveryQueuedRequest(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	var expired int32
	h.m.OnExpired(func(error) { atomic.AddInt32(&expired, 1) })

	const n = 6
	gatedRefresh(h, n, func() (*auth.Token, error) { return nil, errRefreshRejected })

	errsCh := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := h.get("/links/")
			if resp != nil {
				resp.Body.Close()
			}
			errsCh <- err
		}()
	}
	wg.Wait()
	close(errsCh)

	for err := range errsCh {
		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrUnauthenticated)
		require.ErrorIs(t, err, errs.ErrSessionExpired)
	}
	require.Equal(t, 1, h.fa.refreshes())
	require.Empty(t, h.m.AccessToken())
	require.Equal(t, Unauthenticated, h.m.State())
	require.Equal(t, int32(1), atomic.LoadInt32(&expired))
	require.Equal(t, 1, h.fc.clearCount())

	// the next call goes out without the stale credential
	h.fa.refresh = func(context.Context) (*auth.Token, error) { return nil, errRefreshRejected }
	resp, err := h.get("/links/")
	if resp != nil {
		resp.Body.Close()
	}
	require.Error(t, err)
	require.Empty(t, h.api.lastAuth())
}

func TestCredentialEndpointsNeverRefresh(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	for _, path := range []string{"/auth/login", "/auth/refresh", "/auth/register", "/auth/login/"} {
		resp, err := h.hc.Post(h.srv.URL+path, "application/json", bytes.NewReader([]byte(`{}`)))
		require.NoError(t, err, path)
		resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
	require.Equal(t, 0, h.fa.refreshes())
	require.Equal(t, "t0", h.m.AccessToken())
}

func TestRetryMarkedRequestPassesThrough(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	req, err := http.NewRequestWithContext(MarkRetry(context.Background()), http.MethodGet, h.srv.URL+"/links/", nil)
	require.NoError(t, err)
	resp, err := h.hc.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, 0, h.fa.refreshes())
}

func TestSecond401AfterRetryIsFinal(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.api.mu.Lock()
	h.api.always401 = true
	h.api.mu.Unlock()

	resp, err := h.get("/links/")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, 1, h.fa.refreshes())
	require.Equal(t, int32(2), atomic.LoadInt32(&h.api.hits))
}

func TestRetryReplaysBody(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	payload := `{"title":"Blog","url":"https://example.com"}`
	resp, err := h.hc.Post(h.srv.URL+"/links/", "application/json", bytes.NewReader([]byte(payload)))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	h.api.mu.Lock()
	defer h.api.mu.Unlock()
	require.Equal(t, []string{payload, payload}, h.api.bodies)
	require.Equal(t, []string{"Bearer t0", "Bearer t1"}, h.api.auths)
}

func TestTokenAttachedAtSendTime(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	req, err := http.NewRequest(http.MethodGet, h.srv.URL+"/links/", nil)
	require.NoError(t, err)
	_, err = h.m.RefreshToken(context.Background())
	require.NoError(t, err)

	resp, err := h.hc.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, h.fa.refreshes())
}

func TestStale401AfterRefreshRetriesWithoutNewExchange(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	_, err := h.m.RefreshToken(context.Background())
	require.NoError(t, err)

	tok, err := h.m.refresh(context.Background(), triggerInterceptor, "t0")
	require.NoError(t, err)
	require.Equal(t, "t1", tok)
	require.Equal(t, 1, h.fa.refreshes())
}

func TestWaiterHonoursOwnContext(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	release := make(chan struct{})
	h.fa.refresh = func(context.Context) (*auth.Token, error) {
		<-release
		return &auth.Token{AccessToken: "t1"}, nil
	}
	go func() { _, _ = h.m.RefreshToken(context.Background()) }()
	require.Eventually(t, func() bool { return h.fa.refreshes() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := h.m.RefreshToken(ctx)
	require.True(t, errors.Is(err, context.DeadlineExceeded))

	close(release)
	require.Eventually(t, func() bool { return h.m.AccessToken() == "t1" }, time.Second, time.Millisecond)
}

func TestCredentialPathsMatchAfterBasePath(t *testing.T) {
	root := NewManager(nil)
	mounted := NewManager(nil, WithBasePath("/api/v1/"))

	cases := []struct {
		m    *Manager
		path string
		want bool
	}{
		{root, "/auth/login", true},
		{root, "/auth/refresh/", true},
		{root, "/users/x/auth/login", false},
		{root, "/auth/login/extra", false},
		{mounted, "/api/v1/auth/register", true},
		{mounted, "/api/v1/auth/login/", true},
		{mounted, "/auth/login", false},
		{mounted, "/api/v1x/auth/login", false},
		{mounted, "/api/v1/users/x/auth/login", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.m.isPublic(tc.path), tc.path)
	}
}
