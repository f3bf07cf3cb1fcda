package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/NordCoder/Linkbio/internal/cache"
	"github.com/NordCoder/Linkbio/internal/domain/auth"
	"github.com/NordCoder/Linkbio/internal/errs"
	"github.com/stretchr/testify/require"
)

func TestLoginStoresTokenAndFetchesUser(t *testing.T) {
	h := newHarness(t)
	states, cancel := h.m.Subscribe()
	defer cancel()

	u, err := h.m.Login(context.Background(), auth.Credentials{Email: "ann@example.com", Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, "ann", u.Username)
	require.Equal(t, Authenticated, h.m.State())
	require.True(t, h.m.Authenticated())
	require.Equal(t, int32(1), h.fa.meCalls)
	require.Contains(t, h.fc.invalidated, cache.KeyCurrentUser)
	require.Equal(t, u, h.fc.set[cache.KeyCurrentUser])

	require.Equal(t, Authenticating, <-states)
	require.Equal(t, Authenticated, <-states)
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := newHarness(t)

	_, err := h.m.Login(context.Background(), auth.Credentials{Email: "ann@example.com", Password: "nope"})
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)
	require.Equal(t, Unauthenticated, h.m.State())
	require.Empty(t, h.m.AccessToken())
	require.Equal(t, int32(0), h.fa.meCalls)
}

func TestLoginNetworkErrorKeepsState(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	h.fa.login = func(context.Context, auth.Credentials) (*auth.Token, error) {
		return nil, errs.Wrapf(errs.ErrNetwork, "post /auth/login")
	}
	_, err := h.m.Login(context.Background(), auth.Credentials{Email: "bob@example.com", Password: "secret"})
	require.ErrorIs(t, err, errs.ErrNetwork)
	require.Equal(t, Authenticated, h.m.State())
	require.Equal(t, "t0", h.m.AccessToken())
	require.Equal(t, int32(2), h.fa.loginCalls)
}

func TestInitializeRunsOnce(t *testing.T) {
	h := newHarness(t)
	release := make(chan struct{})
	h.fa.refresh = func(context.Context) (*auth.Token, error) {
		<-release
		return &auth.Token{AccessToken: "t1"}, nil
	}

	const m = 20
	var wg sync.WaitGroup
	for i := 0; i < m; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.m.Initialize(context.Background())
		}()
	}
	require.Eventually(t, func() bool { return h.fa.refreshes() == 1 }, time.Second, time.Millisecond)
	require.False(t, h.m.Initialized())
	close(release)
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.m.WaitInitialized(ctx))
	require.True(t, h.m.Initialized())
	require.Equal(t, 1, h.fa.refreshes())
	require.Equal(t, Authenticated, h.m.State())
	require.Equal(t, "t1", h.m.AccessToken())

	require.NoError(t, h.m.Initialize(context.Background()))
	require.Equal(t, 1, h.fa.refreshes())
}

func TestInitializeWithoutSession(t *testing.T) {
	h := newHarness(t)
	h.fa.refresh = func(context.Context) (*auth.Token, error) { return nil, errRefreshRejected }
	var expired bool
	h.m.OnExpired(func(error) { expired = true })

	err := h.m.Initialize(context.Background())
	require.ErrorIs(t, err, errs.ErrUnauthenticated)
	require.True(t, h.m.Initialized())
	require.Equal(t, Unauthenticated, h.m.State())
	require.Empty(t, h.m.AccessToken())
	require.False(t, expired)
}

func TestLogoutClearsStateWhenServerFails(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.fa.logoutErr = errs.Wrapf(errs.ErrNetwork, "post /auth/logout")

	err := h.m.Logout(context.Background())
	require.ErrorIs(t, err, errs.ErrNetwork)
	require.Empty(t, h.m.AccessToken())
	require.Equal(t, Unauthenticated, h.m.State())
	require.Equal(t, 1, h.fc.clearCount())
}

func TestLogoutDuringRefreshWins(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	release := make(chan struct{})
	h.fa.refresh = func(context.Context) (*auth.Token, error) {
		<-release
		return &auth.Token{AccessToken: "t1"}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := h.m.RefreshToken(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return h.fa.refreshes() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, h.m.Logout(context.Background()))
	close(release)

	err := <-done
	require.ErrorIs(t, err, errs.ErrUnauthenticated)
	require.Empty(t, h.m.AccessToken())
	require.Equal(t, Unauthenticated, h.m.State())
}

func TestRefreshTimeoutFailsQueue(t *testing.T) {
	h := newHarness(t, WithRefreshTimeout(30*time.Millisecond))
	h.login(t)
	h.fa.refresh = func(ctx context.Context) (*auth.Token, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	start := time.Now()
	_, err := h.m.RefreshToken(context.Background())
	require.ErrorIs(t, err, errs.ErrUnauthenticated)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
	require.Less(t, time.Since(start), time.Second)
	require.Equal(t, Unauthenticated, h.m.State())
}

func TestTokenSource(t *testing.T) {
	now := time.Now()
	h := newHarness(t, WithNowFunc(func() time.Time { return now }))

	_, err := h.m.Token()
	require.ErrorIs(t, err, errs.ErrUnauthenticated)

	fresh := signedToken(t, now.Add(15*time.Minute))
	h.fa.login = func(context.Context, auth.Credentials) (*auth.Token, error) {
		return &auth.Token{AccessToken: signedToken(t, now.Add(-time.Minute))}, nil
	}
	h.fa.refresh = func(context.Context) (*auth.Token, error) {
		return &auth.Token{AccessToken: fresh}, nil
	}
	_, err = h.m.Login(context.Background(), auth.Credentials{Email: "ann@example.com", Password: "secret"})
	require.NoError(t, err)

	tok, err := h.m.Token()
	require.NoError(t, err)
	require.Equal(t, fresh, tok.AccessToken)
	require.Equal(t, "Bearer", tok.TokenType)
	require.Equal(t, now.Add(15*time.Minute).Unix(), tok.Expiry.Unix())
	require.Equal(t, 1, h.fa.refreshes())

	st := h.m.Status()
	require.Equal(t, Authenticated, st.State)
	require.Equal(t, tok.Expiry.Unix(), st.Expiry.Unix())
}
