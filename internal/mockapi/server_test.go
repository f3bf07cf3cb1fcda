package mockapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	config "github.com/NordCoder/Linkbio/internal/config/mockapi"
	domainauth "github.com/NordCoder/Linkbio/internal/domain/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type tclient struct {
	t     *testing.T
	base  string
	hc    *http.Client
	token string
}

func newTestServer(t *testing.T) (*Server, *tclient) {
	t.Helper()
	s := New(Options{Auth: Config{BcryptCost: bcrypt.MinCost}})
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, newClient(t, ts.URL)
}

func newClient(t *testing.T, base string) *tclient {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &tclient{t: t, base: base, hc: &http.Client{Jar: jar}}
}

func (c *tclient) do(method, path string, body any, out any) int {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *tclient) send(req *http.Request, out any) int {
	c.t.Helper()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.hc.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (c *tclient) login(email, password string) int {
	c.t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	req, err := http.NewRequest(http.MethodPost, c.base+"/auth/login", strings.NewReader(form.Encode()))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	var tok domainauth.Token
	code := c.send(req, &tok)
	if code == http.StatusOK {
		c.token = tok.AccessToken
	}
	return code
}

func (c *tclient) refresh() int {
	c.t.Helper()
	var tok domainauth.Token
	code := c.do(http.MethodPost, "/auth/refresh", nil, &tok)
	if code == http.StatusOK {
		c.token = tok.AccessToken
	}
	return code
}

func seedAnn(t *testing.T, s *Server, verified bool) {
	t.Helper()
	require.NoError(t, s.Seed(context.Background(), config.Seed{Users: []config.SeedUser{{
		Email: "ann@example.com", Username: "ann", Password: "secret1", Verified: verified,
	}}}))
}

type detail struct {
	Detail json.RawMessage `json:"detail"`
}

func (d detail) text() string {
	var s string
	_ = json.Unmarshal(d.Detail, &s)
	return s
}

func TestRegisterLoginMe(t *testing.T) {
	_, c := newTestServer(t)

	var u map[string]any
	code := c.do(http.MethodPost, "/auth/register", map[string]string{
		"email": "Bob@Example.com", "username": "bob", "password": "hunter22",
	}, &u)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "bob@example.com", u["email"])
	assert.Equal(t, false, u["is_verified"])

	var d detail
	code = c.do(http.MethodPost, "/auth/register", map[string]string{
		"email": "bob@example.com", "username": "bob2", "password": "hunter22",
	}, &d)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Email already registered", d.text())

	require.Equal(t, http.StatusUnauthorized, c.login("bob@example.com", "wrong"))
	require.Equal(t, http.StatusOK, c.login("bob@example.com", "hunter22"))

	var me map[string]any
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/auth/me", nil, &me))
	assert.Equal(t, "bob", me["username"])
}

func TestRegisterValidationDetailIsAList(t *testing.T) {
	_, c := newTestServer(t)

	var d struct {
		Detail []FieldProblem `json:"detail"`
	}
	code := c.do(http.MethodPost, "/auth/register", map[string]string{
		"email": "nope", "username": "x", "password": "1",
	}, &d)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Len(t, d.Detail, 3)
	assert.Equal(t, []string{"body", "email"}, d.Detail[0].Loc)
}

func TestRefreshRotatesCookie(t *testing.T) {
	s, c := newTestServer(t)
	seedAnn(t, s, true)
	require.Equal(t, http.StatusOK, c.login("ann@example.com", "secret1"))

	u, _ := url.Parse(c.base + "/auth")
	old := c.hc.Jar.Cookies(u)
	require.Len(t, old, 1)
	first := c.token

	require.Equal(t, http.StatusOK, c.refresh())
	assert.NotEqual(t, first, c.token)
	assert.NotEqual(t, old[0].Value, c.hc.Jar.Cookies(u)[0].Value)

	// the rotated-out cookie is dead
	stale := newClient(t, c.base)
	stale.hc.Jar.SetCookies(u, old)
	var d detail
	assert.Equal(t, http.StatusUnauthorized, stale.do(http.MethodPost, "/auth/refresh", nil, &d))
	assert.Equal(t, int64(2), s.RefreshCalls())
}

func TestRefreshWithoutCookie(t *testing.T) {
	_, c := newTestServer(t)
	var d detail
	require.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/auth/refresh", nil, &d))
	assert.Equal(t, "Refresh token not found", d.text())
}

func TestExpireAccessTokensKeepsRefreshWorking(t *testing.T) {
	s, c := newTestServer(t)
	seedAnn(t, s, true)
	require.Equal(t, http.StatusOK, c.login("ann@example.com", "secret1"))

	s.ExpireAccessTokens()
	require.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/auth/me", nil, nil))

	require.Equal(t, http.StatusOK, c.refresh())
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/auth/me", nil, nil))
}

func TestFailRefreshAndLogoutHooks(t *testing.T) {
	s, c := newTestServer(t)
	seedAnn(t, s, true)
	require.Equal(t, http.StatusOK, c.login("ann@example.com", "secret1"))

	s.FailLogout(http.StatusInternalServerError)
	assert.Equal(t, http.StatusInternalServerError, c.do(http.MethodPost, "/auth/logout", nil, nil))
	s.FailLogout(0)

	s.FailRefresh(http.StatusUnauthorized)
	assert.Equal(t, http.StatusUnauthorized, c.refresh())
	s.FailRefresh(0)
	// the rejection cleared the cookie
	assert.Equal(t, http.StatusUnauthorized, c.refresh())
}

func TestLogoutRevokesRefresh(t *testing.T) {
	s, c := newTestServer(t)
	seedAnn(t, s, true)
	require.Equal(t, http.StatusOK, c.login("ann@example.com", "secret1"))

	u, _ := url.Parse(c.base + "/auth")
	cookies := c.hc.Jar.Cookies(u)

	var m domainauth.Message
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/logout", nil, &m))
	assert.Equal(t, "Successfully logged out", m.Message)

	replay := newClient(t, c.base)
	replay.hc.Jar.SetCookies(u, cookies)
	assert.Equal(t, http.StatusUnauthorized, replay.refresh())
}

func TestVerifyEmailUnlocksLinkCreation(t *testing.T) {
	s, c := newTestServer(t)
	seedAnn(t, s, false)
	require.Equal(t, http.StatusOK, c.login("ann@example.com", "secret1"))

	var d detail
	require.Equal(t, http.StatusForbidden, c.do(http.MethodPost, "/links/", map[string]string{"title": "Blog", "url": "https://ann.dev"}, &d))
	assert.Equal(t, "User is not verified", d.text())

	token, ok := s.Mailbox().LastToken("ann@example.com", domainauth.TicketVerifyEmail)
	require.True(t, ok)
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/auth/verify-email?token="+token, nil, nil))
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodGet, "/auth/verify-email?token="+token, nil, nil), "tickets are single use")

	var l map[string]any
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/links/", map[string]string{"title": "Blog", "url": "https://ann.dev"}, &l))
	assert.Equal(t, "link", l["link_type"])
	assert.Equal(t, true, l["is_active"])

	require.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/auth/resend-verification", nil, &d))
	assert.Equal(t, "Email already verified", d.text())
}

func TestForgotAndResetPassword(t *testing.T) {
	s, c := newTestServer(t)
	seedAnn(t, s, true)

	require.Equal(t, http.StatusAccepted, c.do(http.MethodPost, "/auth/forgot-password", map[string]string{"email": "nobody@example.com"}, nil))
	require.Equal(t, http.StatusAccepted, c.do(http.MethodPost, "/auth/forgot-password", map[string]string{"email": "ann@example.com"}, nil))
	// inside the resend window nothing new is mailed
	before := len(s.Mailbox().All())
	require.Equal(t, http.StatusAccepted, c.do(http.MethodPost, "/auth/forgot-password", map[string]string{"email": "ann@example.com"}, nil))
	assert.Len(t, s.Mailbox().All(), before)

	token, ok := s.Mailbox().LastToken("ann@example.com", domainauth.TicketResetPassword)
	require.True(t, ok)

	var d detail
	require.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/auth/reset-password", map[string]string{"token": "bogus", "new_password": "newpass1"}, &d))
	assert.Equal(t, "Invalid or expired reset token", d.text())

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/reset-password", map[string]string{"token": token, "new_password": "newpass1"}, nil))
	assert.Equal(t, http.StatusUnauthorized, c.login("ann@example.com", "secret1"))
	assert.Equal(t, http.StatusOK, c.login("ann@example.com", "newpass1"))
}

func TestAvailabilityChecks(t *testing.T) {
	s, c := newTestServer(t)
	seedAnn(t, s, true)

	var ev domainauth.EmailValidation
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/auth/validate/email/ann@example.com", nil, &ev))
	assert.False(t, ev.Available)
	assert.Equal(t, "Email already registered", ev.Message)

	var uv domainauth.UsernameValidation
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/auth/validate/username/"+url.PathEscape("new user"), nil, &uv))
	assert.True(t, uv.Available)
	assert.Equal(t, "new user", uv.Username)
}

func TestReorderIgnoresForeignLinks(t *testing.T) {
	s, ann := newTestServer(t)
	require.NoError(t, s.Seed(context.Background(), config.Seed{Users: []config.SeedUser{
		{Email: "ann@example.com", Username: "ann", Password: "secret1", Verified: true, Links: []config.SeedLink{
			{Title: "a", URL: "https://a"}, {Title: "b", URL: "https://b"},
		}},
		{Email: "eve@example.com", Username: "eve", Password: "secret1", Verified: true, Links: []config.SeedLink{
			{Title: "e", URL: "https://e"},
		}},
	}}))
	require.Equal(t, http.StatusOK, ann.login("ann@example.com", "secret1"))

	var mine []map[string]any
	require.Equal(t, http.StatusOK, ann.do(http.MethodGet, "/links/", nil, &mine))
	require.Len(t, mine, 2)
	a, b := int64(mine[0]["id"].(float64)), int64(mine[1]["id"].(float64))

	var eveLinks []map[string]any
	require.Equal(t, http.StatusOK, ann.do(http.MethodGet, "/links/user/eve", nil, &eveLinks))
	require.Len(t, eveLinks, 1)
	e := int64(eveLinks[0]["id"].(float64))

	var out []map[string]any
	require.Equal(t, http.StatusOK, ann.do(http.MethodPost, "/links/reorder", []map[string]int64{
		{"link_id": a, "new_position": 1}, {"link_id": b, "new_position": 0}, {"link_id": e, "new_position": 9},
	}, &out))
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0]["title"])
	assert.Equal(t, "a", out[1]["title"])

	require.Equal(t, http.StatusOK, ann.do(http.MethodGet, "/links/user/eve", nil, &eveLinks))
	assert.Equal(t, float64(0), eveLinks[0]["position"])
	assert.Equal(t, http.StatusNotFound, ann.do(http.MethodGet, "/links/"+itoa(e), nil, nil))
}

func TestPublicProfileHonoursPrivacy(t *testing.T) {
	s, c := newTestServer(t)
	require.NoError(t, s.Seed(context.Background(), config.Seed{Users: []config.SeedUser{
		{Email: "ann@example.com", Username: "ann", Password: "secret1", PageTitle: "Ann's page", Links: []config.SeedLink{
			{Title: "on", URL: "https://on"}, {Title: "off", URL: "https://off", Inactive: true},
		}},
		{Email: "pat@example.com", Username: "pat", Password: "secret1", Private: true},
	}}))

	var p struct {
		Username string `json:"username"`
		Profile  struct {
			PageTitle string `json:"page_title"`
		} `json:"profile"`
		Links []map[string]any `json:"links"`
	}
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/users/username/ann", nil, &p))
	assert.Equal(t, "Ann's page", p.Profile.PageTitle)
	require.Len(t, p.Links, 1)
	assert.Equal(t, "on", p.Links[0]["title"])

	var d detail
	require.Equal(t, http.StatusForbidden, c.do(http.MethodGet, "/users/username/pat", nil, &d))
	assert.Equal(t, "This profile is private", d.text())
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/users/username/ghost", nil, nil))
}

func TestClickIsPublic(t *testing.T) {
	s, c := newTestServer(t)
	require.NoError(t, s.Seed(context.Background(), config.Seed{Users: []config.SeedUser{
		{Email: "ann@example.com", Username: "ann", Password: "secret1", Links: []config.SeedLink{{Title: "a", URL: "https://a"}}},
	}}))
	var links []map[string]any
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/links/user/ann", nil, &links))
	id := int64(links[0]["id"].(float64))

	var l map[string]any
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/links/"+itoa(id)+"/click", nil, &l))
	assert.Equal(t, float64(1), l["click_count"])
}

func TestAvatarUpload(t *testing.T) {
	s, c := newTestServer(t)
	seedAnn(t, s, true)
	require.Equal(t, http.StatusOK, c.login("ann@example.com", "secret1"))

	upload := func(name string, data []byte) (int, map[string]any) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		req, err := http.NewRequest(http.MethodPost, c.base+"/users/me/avatar/upload", &buf)
		require.NoError(t, err)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		var out map[string]any
		return c.send(req, &out), out
	}

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	code, u := upload("me.png", png)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, strings.HasSuffix(u["avatar_url"].(string), ".png"))

	code, _ = upload("notes.txt", []byte("plain text"))
	assert.Equal(t, http.StatusBadRequest, code)

	var cleared map[string]any
	require.Equal(t, http.StatusOK, c.do(http.MethodDelete, "/users/me/avatar", nil, &cleared))
	assert.NotContains(t, cleared, "avatar_url")
}

func TestDeleteMe(t *testing.T) {
	s, c := newTestServer(t)
	seedAnn(t, s, true)
	require.Equal(t, http.StatusOK, c.login("ann@example.com", "secret1"))

	require.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, "/users/me", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/auth/me", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, c.refresh())
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/users/username/ann", nil, nil))
}

func TestProfileCRUD(t *testing.T) {
	s, c := newTestServer(t)
	seedAnn(t, s, true)
	require.Equal(t, http.StatusOK, c.login("ann@example.com", "secret1"))

	var d detail
	require.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/profiles/me", map[string]any{}, &d))
	assert.Equal(t, "Profile already exists", d.text())

	require.Equal(t, http.StatusUnprocessableEntity, c.do(http.MethodPut, "/profiles/me", map[string]string{"text_color": "red"}, nil))

	var p map[string]any
	require.Equal(t, http.StatusOK, c.do(http.MethodPut, "/profiles/me", map[string]string{"theme": "dark"}, &p))
	assert.Equal(t, "dark", p["theme"])
	assert.Equal(t, "#FFFFFF", p["background_color"])

	require.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, "/profiles/me", nil, nil))
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/profiles/me", nil, nil))
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/profiles/me", map[string]any{"is_public": false}, &p))
	assert.Equal(t, false, p["is_public"])
}

func TestRequestIDEchoed(t *testing.T) {
	_, c := newTestServer(t)
	req, err := http.NewRequest(http.MethodGet, c.base+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "abc")
	resp, err := c.hc.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc", resp.Header.Get("X-Request-Id"))
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
