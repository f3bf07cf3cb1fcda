package account

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/NordCoder/Linkbio/internal/cache"
	"github.com/NordCoder/Linkbio/internal/domain/auth"
	"github.com/NordCoder/Linkbio/internal/domain/user"
	"github.com/NordCoder/Linkbio/internal/errs"
	"github.com/NordCoder/Linkbio/internal/obs"
	"go.uber.org/zap"
)

const (
	msgVerifyInvalid = "Invalid or expired verification link"
	msgVerifyDone    = "Email already verified"
	msgVerifyFailed  = "Verification failed. Please try again."
)

type AuthAPI interface {
	Register(ctx context.Context, r auth.Registration) (*user.User, error)
	Me(ctx context.Context) (*user.User, error)
	ValidateEmail(ctx context.Context, email string) (*auth.EmailValidation, error)
	ValidateUsername(ctx context.Context, username string) (*auth.UsernameValidation, error)
	VerifyEmail(ctx context.Context, token string) (*auth.Message, error)
	ResendVerification(ctx context.Context) (*auth.Message, error)
	ForgotPassword(ctx context.Context, email string) (*auth.Message, error)
	ResetPassword(ctx context.Context, r auth.ResetPassword) (*auth.Message, error)
}

type UsersAPI interface {
	DeleteMe(ctx context.Context) error
}

type Session interface {
	Authenticated() bool
	Logout(ctx context.Context) error
}

type Service struct {
	auth    AuthAPI
	users   UsersAPI
	session Session
	cache   *cache.Cache
	log     *zap.Logger
}

func New(a AuthAPI, u UsersAPI, s Session, c *cache.Cache, log *zap.Logger) *Service {
	return &Service{auth: a, users: u, session: s, cache: c, log: obs.OrNop(log)}
}

// Current returns the signed-in user. Without a session it fails with
// errs.ErrUnauthenticated and makes no request.
func (s *Service) Current(ctx context.Context) (*user.User, error) {
	if !s.session.Authenticated() {
		return nil, errs.ErrUnauthenticated
	}
	return cache.Get(ctx, s.cache, cache.KeyCurrentUser, cache.CurrentUserStale, s.auth.Me)
}

// Register creates the account. It does not sign in.
func (s *Service) Register(ctx context.Context, r auth.Registration) (*user.User, error) {
	r.Email = strings.TrimSpace(r.Email)
	r.Username = strings.TrimSpace(r.Username)
	u, err := s.auth.Register(ctx, r)
	if err != nil {
		return nil, err
	}
	s.log.Info("account.register", zap.Int64("user_id", u.ID))
	return u, nil
}

func (s *Service) CheckEmail(ctx context.Context, email string) (*auth.EmailValidation, error) {
	return s.auth.ValidateEmail(ctx, strings.TrimSpace(email))
}

func (s *Service) CheckUsername(ctx context.Context, username string) (*auth.UsernameValidation, error) {
	return s.auth.ValidateUsername(ctx, strings.TrimSpace(username))
}

func (s *Service) VerifyEmail(ctx context.Context, token string) (*auth.Message, error) {
	m, err := s.auth.VerifyEmail(ctx, token)
	if err != nil {
		return nil, verifyError(err)
	}
	s.cache.Invalidate(cache.KeyCurrentUser)
	s.log.Info("account.verify_email")
	return m, nil
}

func (s *Service) ResendVerification(ctx context.Context) (*auth.Message, error) {
	return s.auth.ResendVerification(ctx)
}

func (s *Service) ForgotPassword(ctx context.Context, email string) (*auth.Message, error) {
	return s.auth.ForgotPassword(ctx, strings.TrimSpace(email))
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (*auth.Message, error) {
	return s.auth.ResetPassword(ctx, auth.ResetPassword{Token: token, NewPassword: newPassword})
}

// DeleteAccount removes the account, drops all cached data and ends the
// session. A failed server logout afterwards is not reported.
func (s *Service) DeleteAccount(ctx context.Context) error {
	if err := s.users.DeleteMe(ctx); err != nil {
		return err
	}
	s.cache.Clear()
	if err := s.session.Logout(ctx); err != nil {
		s.log.Debug("account.delete logout", zap.Error(err))
	}
	s.log.Info("account.delete")
	return nil
}

func verifyError(err error) error {
	var e *errs.Error
	if !errors.As(err, &e) {
		return err
	}
	out := *e
	switch e.Status {
	case http.StatusBadRequest:
		out.Message = msgVerifyInvalid
	case http.StatusConflict:
		out.Message = msgVerifyDone
	default:
		out.Message = msgVerifyFailed
	}
	return &out
}
