package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/NordCoder/Linkbio/internal/cache"
	"github.com/NordCoder/Linkbio/internal/domain/auth"
	"github.com/NordCoder/Linkbio/internal/domain/user"
	"github.com/NordCoder/Linkbio/internal/errs"
	"go.uber.org/zap"
)

type Authenticator interface {
	Login(ctx context.Context, c auth.Credentials) (*auth.Token, error)
	Refresh(ctx context.Context) (*auth.Token, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*user.User, error)
}

type Cache interface {
	Set(key string, v any)
	Invalidate(key string)
	Clear()
}

// Manager owns the access token. All token writes go through Login,
// Initialize, Logout, RefreshToken and the Transport recovery path.
type Manager struct {
	auth           Authenticator
	cache          Cache
	log            *zap.Logger
	now            func() time.Time
	refreshTimeout time.Duration
	publicPaths    []string
	basePath       string

	mu           sync.Mutex
	token        string
	state        State
	gen          uint64
	initialized  bool
	initializing bool
	initDone     chan struct{}
	refreshing   bool
	pending      []*waiter

	subs      map[int]chan State
	nextSub   int
	onExpired []func(error)
}

func NewManager(a Authenticator, opts ...Option) *Manager {
	m := &Manager{
		auth:           a,
		cache:          nopCache{},
		log:            zap.NewNop(),
		now:            time.Now,
		refreshTimeout: DefaultRefreshTimeout,
		publicPaths:    DefaultPublicPaths,
		state:          Unauthenticated,
		initDone:       make(chan struct{}),
		subs:           make(map[int]chan State),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) Login(ctx context.Context, c auth.Credentials) (*user.User, error) {
	m.mu.Lock()
	prev := m.state
	m.setStateLocked(Authenticating)
	m.mu.Unlock()

	tok, err := m.auth.Login(ctx, c)
	if err != nil {
		m.mu.Lock()
		if m.state == Authenticating {
			m.setStateLocked(prev)
		}
		m.mu.Unlock()
		m.log.Info("session.login failed", zap.Error(err))
		return nil, err
	}

	m.mu.Lock()
	m.gen++
	m.token = tok.AccessToken
	m.setStateLocked(Authenticated)
	m.mu.Unlock()
	m.log.Info("session.login")

	m.cache.Invalidate(cache.KeyCurrentUser)
	u, err := m.auth.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch current user: %w", err)
	}
	m.cache.Set(cache.KeyCurrentUser, u)
	return u, nil
}

// Initialize restores the session from the refresh cookie. Only the first
// caller does the work; callers arriving while it runs return immediately.
// The session ends up Authenticated or Unauthenticated and Initialized
// reports true in either case.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	if m.initialized || m.initializing {
		m.mu.Unlock()
		return nil
	}
	m.initializing = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.initializing = false
		if !m.initialized {
			m.initialized = true
			close(m.initDone)
		}
		m.mu.Unlock()
	}()

	if _, err := m.refresh(ctx, triggerInit, ""); err != nil {
		m.log.Debug("session.init no session", zap.Error(err))
		return err
	}
	m.cache.Invalidate(cache.KeyCurrentUser)
	m.log.Debug("session.init restored")
	return nil
}

func (m *Manager) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

// WaitInitialized blocks until the first Initialize completes.
func (m *Manager) WaitInitialized(ctx context.Context) error {
	select {
	case <-m.initDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Logout always clears local state and cached data, even when the server
// call fails. The server error is returned for reporting only.
func (m *Manager) Logout(ctx context.Context) error {
	defer func() {
		m.mu.Lock()
		m.gen++
		m.token = ""
		m.setStateLocked(Unauthenticated)
		m.mu.Unlock()
		m.cache.Clear()
		m.log.Info("session.logout")
	}()

	if err := m.auth.Logout(ctx); err != nil {
		m.log.Warn("session.logout server", zap.Error(err))
		return fmt.Errorf("server logout: %w", err)
	}
	return nil
}

// RefreshToken performs the renewal exchange, joining one already in flight.
func (m *Manager) RefreshToken(ctx context.Context) (string, error) {
	return m.refresh(ctx, triggerExplicit, "")
}

func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Authenticated() bool {
	return m.State().HasToken()
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	st := Status{State: m.state, Initialized: m.initialized}
	tok := m.token
	m.mu.Unlock()
	if tok != "" {
		st.Expiry, _ = expiry(tok)
	}
	return st
}

// Subscribe delivers state changes until cancel is called. Slow readers
// miss intermediate states.
func (m *Manager) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 8)
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
			close(ch)
		})
	}
}

// OnExpired registers fn to run when a held session cannot be renewed.
func (m *Manager) OnExpired(fn func(error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpired = append(m.onExpired, fn)
}

// IsSessionEnd reports whether err means the user has to log in again.
func IsSessionEnd(err error) bool {
	return errors.Is(err, errs.ErrUnauthenticated)
}

func (m *Manager) setStateLocked(s State) {
	if m.state == s {
		return
	}
	m.state = s
	for _, ch := range m.subs {
		select {
		case ch <- s:
		default:
		}
	}
}
