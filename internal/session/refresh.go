package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/NordCoder/Linkbio/internal/errs"
	"github.com/NordCoder/Linkbio/internal/obs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	triggerInit        = "init"
	triggerExplicit    = "explicit"
	triggerInterceptor = "interceptor"
)

var errLoggedOut = errors.New("session ended during refresh")

type result struct {
	token string
	err   error
}

// waiter is a request parked until the in-flight refresh settles. ch is
// buffered so the drain never blocks on a waiter that gave up.
type waiter struct {
	ch chan result
}

// refresh runs or joins the single refresh exchange. used is the token the
// failed request was sent with; when the interceptor finds a newer token
// already in place it is returned without a new exchange.
func (m *Manager) refresh(ctx context.Context, trigger, used string) (tok string, err error) {
	m.mu.Lock()
	if m.refreshing {
		w := &waiter{ch: make(chan result, 1)}
		m.pending = append(m.pending, w)
		m.mu.Unlock()
		obs.SessionWaiters.Inc()
		return m.wait(ctx, w)
	}
	if trigger == triggerInterceptor && m.token != "" && m.token != used {
		tok = m.token
		m.mu.Unlock()
		return tok, nil
	}
	m.refreshing = true
	gen := m.gen
	hadToken := m.token != ""
	if hadToken {
		m.setStateLocked(Refreshing)
	} else {
		m.setStateLocked(Authenticating)
	}
	m.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			m.settle(gen, hadToken, "", fmt.Errorf("%w: refresh panic: %v", errs.ErrUnauthenticated, r))
			panic(r)
		}
		tok, err = m.settle(gen, hadToken, tok, err)
	}()

	tok, err = m.exchange(ctx, trigger)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrUnauthenticated, err)
	}
	return tok, nil
}

// settle publishes the outcome, drains the queue in enqueue order and clears
// the in-flight flag.
func (m *Manager) settle(gen uint64, hadToken bool, tok string, err error) (string, error) {
	m.mu.Lock()
	q := m.pending
	m.pending = nil
	m.refreshing = false
	expired := false
	switch {
	case m.gen != gen:
		// Login or Logout replaced the session while the exchange ran.
		tok, err = "", fmt.Errorf("%w: %w", errs.ErrUnauthenticated, errLoggedOut)
		if m.token != "" {
			tok, err = m.token, nil
		}
	case err != nil:
		m.token = ""
		m.setStateLocked(Unauthenticated)
		expired = hadToken
	default:
		m.token = tok
		m.setStateLocked(Authenticated)
	}
	hooks := slices.Clone(m.onExpired)
	m.mu.Unlock()

	for _, w := range q {
		w.ch <- result{token: tok, err: err}
	}
	obs.SessionWaiters.Sub(float64(len(q)))

	if expired {
		m.log.Warn("session.expired", zap.Error(err), zap.Int("waiters", len(q)))
		m.cache.Clear()
		for _, fn := range hooks {
			fn(err)
		}
	}
	return tok, err
}

func (m *Manager) wait(ctx context.Context, w *waiter) (string, error) {
	select {
	case r := <-w.ch:
		return r.token, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// exchange detaches from the caller's cancellation: the result is shared by
// every waiter. refreshTimeout bounds it instead.
func (m *Manager) exchange(ctx context.Context, trigger string) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.refreshTimeout)
	defer cancel()
	ctx, span := obs.Tracer().Start(ctx, "session.refresh")
	defer span.End()
	span.SetAttributes(attribute.String("session.trigger", trigger))

	start := time.Now()
	tok, err := m.auth.Refresh(ctx)
	obs.SessionRefreshDuration.Observe(time.Since(start).Seconds())
	log := obs.WithTrace(ctx, m.log)

	if err == nil && (tok == nil || tok.AccessToken == "") {
		err = errors.New("empty access token")
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		obs.SessionRefreshes.WithLabelValues(trigger, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh failed")
		log.Info("session.refresh failed", zap.String("trigger", trigger), zap.Error(err))
		return "", err
	}
	obs.SessionRefreshes.WithLabelValues(trigger, "ok").Inc()
	log.Debug("session.refresh", zap.String("trigger", trigger))
	return tok.AccessToken, nil
}
