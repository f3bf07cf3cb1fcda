package mockapi

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/NordCoder/Linkbio/internal/auth"
	domainauth "github.com/NordCoder/Linkbio/internal/domain/auth"
	"github.com/NordCoder/Linkbio/internal/domain/profile"
	"github.com/NordCoder/Linkbio/internal/domain/user"
	"github.com/NordCoder/Linkbio/internal/repository/memory"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Secret       []byte
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	VerifyTTL    time.Duration
	ResetTTL     time.Duration
	ResendWindow time.Duration
	BcryptCost   int
	FrontendURL  string
	Now          func() time.Time
}

func (c *Config) defaults() {
	if len(c.Secret) == 0 {
		c.Secret = []byte("mockapi-dev-secret")
	}
	if c.AccessTTL <= 0 {
		c.AccessTTL = 30 * time.Minute
	}
	if c.RefreshTTL <= 0 {
		c.RefreshTTL = 7 * 24 * time.Hour
	}
	if c.VerifyTTL <= 0 {
		c.VerifyTTL = 24 * time.Hour
	}
	if c.ResetTTL <= 0 {
		c.ResetTTL = time.Hour
	}
	if c.ResendWindow <= 0 {
		c.ResendWindow = 5 * time.Minute
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = bcrypt.DefaultCost
	}
	if c.FrontendURL == "" {
		c.FrontendURL = "http://localhost:5173"
	}
	if c.Now == nil {
		c.Now = func() time.Time { return time.Now().UTC() }
	}
}

// Usecase holds the account and token rules of the backend.
type Usecase struct {
	users    user.Repo
	profiles profile.Repo
	rt       domainauth.RefreshTokenRepo
	tickets  domainauth.TicketRepo
	mail     Mailer
	cfg      Config

	gen atomic.Int64
}

func NewUseCase(users user.Repo, profiles profile.Repo, rt domainauth.RefreshTokenRepo,
	tickets domainauth.TicketRepo, mail Mailer, cfg Config) *Usecase {
	cfg.defaults()
	return &Usecase{users: users, profiles: profiles, rt: rt, tickets: tickets, mail: mail, cfg: cfg}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (u *Usecase) Register(ctx context.Context, in domainauth.Registration) (*user.Account, error) {
	in.Email = normalizeEmail(in.Email)
	var v validation
	v.require(strings.Contains(in.Email, "@"), "body", "email", "value is not a valid email address")
	v.require(len(in.Username) >= 3 && len(in.Username) <= 50, "body", "username", "String should have between 3 and 50 characters")
	v.require(len(in.Password) >= 6, "body", "password", "String should have at least 6 characters")
	v.require(len(in.FullName) <= 100, "body", "full_name", "String should have at most 100 characters")
	if err := v.err(); err != nil {
		return nil, err
	}
	if _, err := u.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, errEmailTaken
	}
	if _, err := u.users.GetByUsername(ctx, in.Username); err == nil {
		return nil, errUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), u.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	acc := &user.Account{
		User: user.User{
			Email: in.Email, Username: in.Username, FullName: in.FullName, Bio: in.Bio,
			IsActive: true,
		},
		PasswordHash: string(hash),
	}
	if err := u.users.Create(ctx, acc); err != nil {
		if errors.Is(err, memory.ErrConflict) {
			return nil, errEmailTaken
		}
		return nil, err
	}
	if err := u.profiles.Create(ctx, defaultProfile(acc.ID)); err != nil {
		return nil, fmt.Errorf("default profile: %w", err)
	}
	if err := u.sendTicket(ctx, acc, domainauth.TicketVerifyEmail); err != nil {
		return nil, err
	}
	return acc, nil
}

func defaultProfile(userID int64) *profile.Profile {
	return &profile.Profile{
		UserID:          userID,
		Theme:           profile.DefaultTheme,
		BackgroundColor: profile.DefaultBackgroundColor,
		TextColor:       profile.DefaultTextColor,
		ButtonStyle:     profile.DefaultButtonStyle,
		IsPublic:        true,
	}
}

func (u *Usecase) SignIn(ctx context.Context, email, password string) (access, refresh string, err error) {
	acc, err := u.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", "", errBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return "", "", errBadCredentials
	}
	return u.issueTokens(ctx, acc.ID)
}

// Refresh rotates the refresh token: the presented one is revoked and a new
// pair is issued.
func (u *Usecase) Refresh(ctx context.Context, raw string) (access, refresh string, err error) {
	if raw == "" {
		return "", "", errNoRefreshToken
	}
	rec, err := u.rt.FindValid(ctx, auth.HashToken(raw))
	if err != nil {
		return "", "", errBadRefreshToken
	}
	if _, err := u.users.GetByID(ctx, rec.UserID); err != nil {
		return "", "", errBadRefreshToken
	}
	if err := u.rt.Revoke(ctx, rec.TokenHash); err != nil {
		return "", "", err
	}
	return u.issueTokens(ctx, rec.UserID)
}

func (u *Usecase) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	return u.rt.Revoke(ctx, auth.HashToken(raw))
}

func (u *Usecase) issueTokens(ctx context.Context, userID int64) (access string, refreshRaw string, err error) {
	now := u.cfg.Now()
	claims := domainauth.AccessClaims{
		Sub: strconv.FormatInt(userID, 10),
		Iat: now.Unix(),
		Exp: now.Add(u.cfg.AccessTTL).Unix(),
		ID:  uuid.NewString(),
		Gen: u.gen.Load(),
	}
	access, err = auth.SignedString(claims, u.cfg.Secret)
	if err != nil {
		return "", "", fmt.Errorf("sign access: %w", err)
	}
	refreshRaw, err = auth.GenerateRawToken(32)
	if err != nil {
		return "", "", fmt.Errorf("gen refresh: %w", err)
	}
	rec := &domainauth.RefreshToken{
		UserID:    userID,
		TokenHash: auth.HashToken(refreshRaw),
		IssuedAt:  now,
		ExpiresAt: now.Add(u.cfg.RefreshTTL),
	}
	if err := u.rt.Create(ctx, rec); err != nil {
		return "", "", fmt.Errorf("save refresh: %w", err)
	}
	return access, refreshRaw, nil
}

// Authenticate resolves a bearer token to an active account.
func (u *Usecase) Authenticate(ctx context.Context, token string) (*user.Account, error) {
	cl, err := auth.ParseAndValidate(token, u.cfg.Secret, u.cfg.Now)
	if err != nil || cl.Gen < u.gen.Load() {
		return nil, errNotAuthenticated
	}
	id, _ := strconv.ParseInt(cl.Sub, 10, 64)
	acc, err := u.users.GetByID(ctx, id)
	if err != nil {
		return nil, errNotAuthenticated
	}
	if !acc.IsActive {
		return nil, errInactiveUser
	}
	return acc, nil
}

// ExpireAccessTokens makes every access token issued so far fail
// authentication. Refresh tokens stay valid.
func (u *Usecase) ExpireAccessTokens() {
	u.gen.Add(1)
}

func (u *Usecase) VerifyEmail(ctx context.Context, token string) error {
	t, err := u.tickets.Take(ctx, domainauth.TicketVerifyEmail, token)
	if err != nil {
		return errBadVerifyToken
	}
	acc, err := u.users.GetByID(ctx, t.UserID)
	if err != nil {
		return errUserNotFound
	}
	acc.IsVerified = true
	return u.users.Update(ctx, acc)
}

func (u *Usecase) ResendVerification(ctx context.Context, acc *user.Account) error {
	if acc.IsVerified {
		return errAlreadyVerified
	}
	if err := u.tickets.InvalidateUser(ctx, domainauth.TicketVerifyEmail, acc.ID); err != nil {
		return err
	}
	return u.sendTicket(ctx, acc, domainauth.TicketVerifyEmail)
}

// ForgotPassword never reveals whether the email exists. A still valid reset
// ticket is re-sent at most once per ResendWindow.
func (u *Usecase) ForgotPassword(ctx context.Context, email string) error {
	acc, err := u.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil
	}
	now := u.cfg.Now()
	if t, err := u.tickets.LatestValid(ctx, domainauth.TicketResetPassword, acc.ID); err == nil {
		if now.Before(t.SentAt.Add(u.cfg.ResendWindow)) {
			return nil
		}
		if err := u.tickets.MarkSent(ctx, t.Token, now); err != nil {
			return err
		}
		return u.deliver(ctx, acc, t)
	}
	if err := u.tickets.InvalidateUser(ctx, domainauth.TicketResetPassword, acc.ID); err != nil {
		return err
	}
	return u.sendTicket(ctx, acc, domainauth.TicketResetPassword)
}

func (u *Usecase) ResetPassword(ctx context.Context, in domainauth.ResetPassword) error {
	var v validation
	v.require(len(in.NewPassword) >= 6, "body", "new_password", "String should have at least 6 characters")
	if err := v.err(); err != nil {
		return err
	}
	t, err := u.tickets.Take(ctx, domainauth.TicketResetPassword, in.Token)
	if err != nil {
		return errBadResetToken
	}
	acc, err := u.users.GetByID(ctx, t.UserID)
	if err != nil {
		return errUserNotFound
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), u.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	acc.PasswordHash = string(hash)
	return u.users.Update(ctx, acc)
}

func (u *Usecase) sendTicket(ctx context.Context, acc *user.Account, kind domainauth.TicketKind) error {
	raw, err := auth.GenerateRawToken(32)
	if err != nil {
		return fmt.Errorf("gen ticket: %w", err)
	}
	now := u.cfg.Now()
	ttl := u.cfg.VerifyTTL
	if kind == domainauth.TicketResetPassword {
		ttl = u.cfg.ResetTTL
	}
	t := &domainauth.Ticket{Kind: kind, Token: raw, UserID: acc.ID, ExpiresAt: now.Add(ttl), SentAt: now}
	if err := u.tickets.Create(ctx, t); err != nil {
		return fmt.Errorf("save ticket: %w", err)
	}
	return u.deliver(ctx, acc, t)
}

func (u *Usecase) deliver(ctx context.Context, acc *user.Account, t *domainauth.Ticket) error {
	subject, body := renderTicket(u.cfg.FrontendURL, t)
	if err := u.mail.Send(ctx, acc.Email, subject, body); err != nil {
		return fmt.Errorf("send %s: %w", t.Kind, err)
	}
	return nil
}
