package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	mockcfg "github.com/NordCoder/Linkbio/internal/config/mockapi"
	"github.com/NordCoder/Linkbio/internal/mockapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type cli struct {
	t       *testing.T
	base    string
	cookies string
}

func newCLI(t *testing.T) (*cli, *mockapi.Server) {
	t.Helper()
	srv := mockapi.New(mockapi.Options{Auth: mockapi.Config{BcryptCost: bcrypt.MinCost}})
	require.NoError(t, srv.Seed(context.Background(), mockcfg.Seed{Users: []mockcfg.SeedUser{{
		Email: "ann@example.com", Username: "ann", Password: "secret123", Verified: true,
		FullName: "Ann Lee",
		Links:    []mockcfg.SeedLink{{Title: "Blog", URL: "https://ann.dev"}},
	}}}))
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	t.Setenv("LINKCTL_LOG_LEVEL", "error")
	return &cli{t: t, base: ts.URL, cookies: filepath.Join(t.TempDir(), "cookies.json")}, srv
}

func (c *cli) run(args ...string) (int, string, string) {
	c.t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--base-url", c.base, "--cookies", c.cookies}, args...)
	code := run(context.Background(), full, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	code := run(context.Background(), []string{"version"}, &out, &bytes.Buffer{})
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "version dev")
}

func TestUnknownCommand(t *testing.T) {
	var errOut bytes.Buffer
	code := run(context.Background(), []string{"nope"}, &bytes.Buffer{}, &errOut)
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut.String(), `unknown command "nope"`)
}

func TestLoginPersistsAcrossRuns(t *testing.T) {
	c, _ := newCLI(t)

	code, _, errOut := c.run("me")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, msgSessionExpired)

	code, out, errOut := c.run("login", "--email", "ann@example.com", "--password", "secret123")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "logged in as ann")

	code, out, _ = c.run("status")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "state: authenticated")

	code, out, _ = c.run("me")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "username: ann")

	code, out, _ = c.run("logout")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "logged out")

	code, out, _ = c.run("status")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "state: unauthenticated")
}

func TestBadLogin(t *testing.T) {
	c, _ := newCLI(t)
	code, _, errOut := c.run("login", "--email", "ann@example.com", "--password", "wrong-pass")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Incorrect email or password")
}

func TestLinksCommands(t *testing.T) {
	c, _ := newCLI(t)
	code, _, errOut := c.run("login", "--email", "ann@example.com", "--password", "secret123")
	require.Equal(t, 0, code, errOut)

	code, out, errOut := c.run("links", "add", "--title", "Code", "--url", "https://git.example/ann", "--type", "button")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Code")

	code, out, _ = c.run("links", "list")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Blog")
	assert.Contains(t, out, "Code")

	code, out, _ = c.run("links", "public", "ann")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Blog")

	code, _, errOut = c.run("links", "rm", "abc")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "usage:")
}

func TestRefreshFailureReportsExpiry(t *testing.T) {
	c, srv := newCLI(t)
	code, _, errOut := c.run("login", "--email", "ann@example.com", "--password", "secret123")
	require.Equal(t, 0, code, errOut)

	srv.FailRefresh(http.StatusUnauthorized)
	code, _, errOut = c.run("me")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, msgSessionExpired)
}

func TestValidationErrorsListFields(t *testing.T) {
	c, _ := newCLI(t)
	code, _, errOut := c.run("register", "--email", "not-an-email", "--username", "x", "--password", "pw")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "error:")
	assert.Contains(t, errOut, "email")
}

func TestHealth(t *testing.T) {
	c, _ := newCLI(t)
	code, out, errOut := c.run("health", "--wait", "--attempts", "2")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, c.base)
}
