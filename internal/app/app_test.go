package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	config "github.com/NordCoder/Linkbio/internal/config/linkctl"
	mockcfg "github.com/NordCoder/Linkbio/internal/config/mockapi"
	"github.com/NordCoder/Linkbio/internal/domain/auth"
	"github.com/NordCoder/Linkbio/internal/domain/link"
	"github.com/NordCoder/Linkbio/internal/errs"
	"github.com/NordCoder/Linkbio/internal/mockapi"
	"github.com/NordCoder/Linkbio/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	annEmail = "ann@example.com"
	annPass  = "secret123"
)

func startAPI(t *testing.T) (*mockapi.Server, string) {
	t.Helper()
	srv := mockapi.New(mockapi.Options{Auth: mockapi.Config{BcryptCost: bcrypt.MinCost}})
	require.NoError(t, srv.Seed(context.Background(), mockcfg.Seed{Users: []mockcfg.SeedUser{{
		Email: annEmail, Username: "ann", Password: annPass, Verified: true,
		Links: []mockcfg.SeedLink{{Title: "Blog", URL: "https://ann.dev"}, {Title: "Code", URL: "https://git.example/ann"}},
	}}}))
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return srv, ts.URL
}

func testConfig(baseURL, cookies string) *config.Config {
	return &config.Config{
		App:     config.App{Name: "linkctl", Env: "test"},
		API:     config.API{BaseURL: baseURL, Timeout: 5 * time.Second},
		Session: config.Session{RefreshTimeout: 2 * time.Second, CookieFile: cookies},
	}
}

func newApp(t *testing.T, baseURL, cookies string) *App {
	t.Helper()
	a, err := New(testConfig(baseURL, cookies), nil)
	require.NoError(t, err)
	return a
}

func login(t *testing.T, a *App) {
	t.Helper()
	_, err := a.Session.Login(context.Background(), auth.Credentials{Email: annEmail, Password: annPass})
	require.NoError(t, err)
}

func TestLoginAndUsecases(t *testing.T) {
	_, base := startAPI(t)
	a := newApp(t, base, "")
	ctx := context.Background()

	require.Error(t, a.Session.Initialize(ctx))
	assert.False(t, a.Session.Authenticated())

	login(t, a)
	u, err := a.Account.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ann", u.Username)

	mine, err := a.Links.Sorted(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "Blog", mine[0].Title)

	moved, err := a.Links.Move(ctx, mine[0].ID, link.Down)
	require.NoError(t, err)
	assert.True(t, moved)
	mine, err = a.Links.Sorted(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Code", mine[0].Title)

	page, err := a.Profiles.PublicPage(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, "ann", page.Meta.Title)
	assert.Len(t, page.Links, 2)

	d, err := a.Profiles.Dashboard(ctx, a.Account, a.Links)
	require.NoError(t, err)
	assert.Equal(t, "ann", d.User.Username)
	assert.NotNil(t, d.Profile)

	require.NoError(t, a.Session.Logout(ctx))
	assert.Zero(t, a.Cache.Len())
	_, err = a.Account.Current(ctx)
	require.ErrorIs(t, err, errs.ErrUnauthenticated)
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	srv, base := startAPI(t)
	a := newApp(t, base, "")
	login(t, a)
	before := a.Session.AccessToken()

	srv.ExpireAccessTokens()
	srv.SetRefreshDelay(150 * time.Millisecond)
	calls := srv.RefreshCalls()

	const n = 6
	var wg sync.WaitGroup
	errc := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.API.Links().List(context.Background())
			errc <- err
		}()
	}
	wg.Wait()
	close(errc)
	for err := range errc {
		require.NoError(t, err)
	}

	assert.Equal(t, calls+1, srv.RefreshCalls())
	assert.NotEqual(t, before, a.Session.AccessToken())
	assert.Equal(t, session.Authenticated, a.Session.State())
}

func TestRefreshFailureEndsSession(t *testing.T) {
	srv, base := startAPI(t)
	a := newApp(t, base, "")
	login(t, a)
	ctx := context.Background()
	_, err := a.Links.Mine(ctx)
	require.NoError(t, err)

	var expired error
	a.Session.OnExpired(func(err error) { expired = err })
	srv.ExpireAccessTokens()
	srv.FailRefresh(http.StatusUnauthorized)

	_, err = a.API.Links().List(ctx)
	require.Error(t, err)
	assert.True(t, session.IsSessionEnd(err))
	assert.Equal(t, session.Unauthenticated, a.Session.State())
	assert.Empty(t, a.Session.AccessToken())
	assert.Zero(t, a.Cache.Len())
	assert.Error(t, expired)
}

func TestLogoutClearsLocallyWhenServerFails(t *testing.T) {
	srv, base := startAPI(t)
	a := newApp(t, base, "")
	login(t, a)

	srv.FailLogout(http.StatusInternalServerError)
	err := a.Session.Logout(context.Background())
	require.ErrorIs(t, err, errs.ErrServer)
	assert.False(t, a.Session.Authenticated())
	assert.Zero(t, a.Cache.Len())
}

func TestSessionSurvivesRestartThroughCookieFile(t *testing.T) {
	_, base := startAPI(t)
	cookies := filepath.Join(t.TempDir(), "linkctl", "cookies.json")

	first := newApp(t, base, cookies)
	login(t, first)

	st, err := os.Stat(cookies)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	second := newApp(t, base, cookies)
	require.NoError(t, second.Session.Initialize(context.Background()))
	assert.True(t, second.Session.Authenticated())
	u, err := second.Account.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ann", u.Username)

	require.NoError(t, second.Session.Logout(context.Background()))
	third := newApp(t, base, cookies)
	require.Error(t, third.Session.Initialize(context.Background()))
	assert.False(t, third.Session.Authenticated())
}

func TestDeleteAccount(t *testing.T) {
	_, base := startAPI(t)
	a := newApp(t, base, "")
	login(t, a)
	ctx := context.Background()

	require.NoError(t, a.Account.DeleteAccount(ctx))
	assert.False(t, a.Session.Authenticated())

	_, err := a.Session.Login(ctx, auth.Credentials{Email: annEmail, Password: annPass})
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)
}
