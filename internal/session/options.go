package session

import (
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultRefreshTimeout = 10 * time.Second

// Paths that issue credentials. A 401 from them is final.
var DefaultPublicPaths = []string{"/auth/login", "/auth/refresh", "/auth/register"}

type Option func(*Manager)

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

func WithCache(c Cache) Option {
	return func(m *Manager) {
		if c != nil {
			m.cache = c
		}
	}
}

func WithRefreshTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.refreshTimeout = d
		}
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithPublicPaths(paths ...string) Option {
	return func(m *Manager) { m.publicPaths = slices.Clone(paths) }
}

// WithBasePath sets the path prefix the API is mounted under, e.g. "/api/v1".
// Credential paths are matched exactly after it.
func WithBasePath(p string) Option {
	return func(m *Manager) { m.basePath = strings.TrimRight(p, "/") }
}

type nopCache struct{}

func (nopCache) Set(string, any)   {}
func (nopCache) Invalidate(string) {}
func (nopCache) Clear()            {}
