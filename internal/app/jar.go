package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/NordCoder/Linkbio/internal/obs"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

type storedCookie struct {
	URL    string       `json:"url"`
	Cookie *http.Cookie `json:"cookie"`
}

// Jar is a cookie jar that mirrors every cookie it accepts to a file, so a
// refresh cookie set in one run is sent by the next. An empty path keeps
// cookies in memory only.
type Jar struct {
	mu    sync.Mutex
	inner *cookiejar.Jar
	path  string
	now   func() time.Time
	log   *zap.Logger
	kept  map[string]storedCookie
}

func OpenJar(path string, log *zap.Logger) (*Jar, error) {
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	log = obs.OrNop(log)
	j := &Jar{inner: inner, path: path, now: time.Now, log: log, kept: make(map[string]storedCookie)}
	if path == "" {
		return j, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return j, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}
	var stored []storedCookie
	if err := json.Unmarshal(b, &stored); err != nil {
		log.Warn("cookie file unreadable, starting empty", zap.String("path", path), zap.Error(err))
		return j, nil
	}
	now := j.now()
	for _, sc := range stored {
		u, err := url.Parse(sc.URL)
		if err != nil || sc.Cookie == nil {
			continue
		}
		if !sc.Cookie.Expires.IsZero() && !sc.Cookie.Expires.After(now) {
			continue
		}
		inner.SetCookies(u, []*http.Cookie{sc.Cookie})
		j.kept[keyOf(u, sc.Cookie)] = sc
	}
	return j, nil
}

func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.inner.SetCookies(u, cookies)
	if j.path == "" {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	now := j.now()
	origin := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}).String()
	for _, c := range cookies {
		k := keyOf(u, c)
		if c.MaxAge < 0 || (!c.Expires.IsZero() && !c.Expires.After(now)) {
			delete(j.kept, k)
			continue
		}
		cp := *c
		if cp.MaxAge > 0 {
			cp.Expires = now.Add(time.Duration(cp.MaxAge) * time.Second)
			cp.MaxAge = 0
		}
		cp.Raw = ""
		cp.Unparsed = nil
		j.kept[k] = storedCookie{URL: origin, Cookie: &cp}
	}
	if err := j.saveLocked(); err != nil {
		j.log.Warn("cookie save failed", zap.String("path", j.path), zap.Error(err))
	}
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	return j.inner.Cookies(u)
}

func (j *Jar) saveLocked() error {
	out := make([]storedCookie, 0, len(j.kept))
	for _, sc := range j.kept {
		out = append(out, sc)
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return err
	}
	tmp := j.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, j.path)
}

func keyOf(u *url.URL, c *http.Cookie) string {
	host := c.Domain
	if host == "" {
		host = u.Hostname()
	}
	return host + "|" + c.Path + "|" + c.Name
}
