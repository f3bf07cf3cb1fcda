package app

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/NordCoder/Linkbio/internal/api"
	"github.com/NordCoder/Linkbio/internal/cache"
	config "github.com/NordCoder/Linkbio/internal/config/linkctl"
	"github.com/NordCoder/Linkbio/internal/obs"
	"github.com/NordCoder/Linkbio/internal/services/account"
	"github.com/NordCoder/Linkbio/internal/services/links"
	"github.com/NordCoder/Linkbio/internal/services/profiles"
	"github.com/NordCoder/Linkbio/internal/session"
	"go.uber.org/zap"
)

// App wires one client instance: a cookie jar, the REST client behind the
// session transport, the query cache and the usecases.
type App struct {
	Log      *zap.Logger
	API      *api.Client
	Cache    *cache.Cache
	Session  *session.Manager
	Account  *account.Service
	Links    *links.Service
	Profiles *profiles.Service

	Jar *Jar
}

type Option func(*buildOpts)

type buildOpts struct {
	base http.RoundTripper
	jar  *Jar
}

// WithBaseTransport replaces the network transport under the session and
// tracing layers.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *buildOpts) { o.base = rt }
}

func WithJar(j *Jar) Option {
	return func(o *buildOpts) { o.jar = j }
}

func New(cfg *config.Config, log *zap.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	log = obs.OrNop(log)
	var bo buildOpts
	for _, o := range opts {
		o(&bo)
	}

	jar := bo.jar
	if jar == nil {
		var err error
		jar, err = OpenJar(cfg.Session.CookieFile, log)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
	}
	base := bo.base
	if base == nil {
		base = newBaseTransport(cfg.API.Timeout)
	}

	hc := &http.Client{Timeout: cfg.API.Timeout, Jar: jar}
	cl, err := api.New(cfg.API.BaseURL, hc, log)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("api base url: %w", err)
	}

	c := cache.New()
	m := session.NewManager(cl.Auth(),
		session.WithCache(c),
		session.WithLogger(log),
		session.WithRefreshTimeout(cfg.Session.RefreshTimeout),
		session.WithBasePath(u.Path),
	)
	hc.Transport = m.Transport(obs.HTTPTransport(base))
	m.OnExpired(func(err error) {
		log.Info("session expired", zap.Error(err))
	})

	return &App{
		Log:      log,
		API:      cl,
		Cache:    c,
		Session:  m,
		Account:  account.New(cl.Auth(), cl.Users(), m, c, log),
		Links:    links.New(cl.Links(), c, log),
		Profiles: profiles.New(cl.Users(), cl.Profiles(), c, log),
		Jar:      jar,
	}, nil
}
