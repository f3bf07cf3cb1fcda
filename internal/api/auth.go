package api

import (
	"context"
	"net/url"

	"github.com/NordCoder/Linkbio/internal/domain/auth"
	"github.com/NordCoder/Linkbio/internal/domain/user"
)

type AuthAPI struct {
	c *Client
}

func (a *AuthAPI) Register(ctx context.Context, r auth.Registration) (*user.User, error) {
	var u user.User
	if err := a.c.do(ctx, post("/auth/register").with(r), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login uses the OAuth2 password form; the email goes in "username".
func (a *AuthAPI) Login(ctx context.Context, cr auth.Credentials) (*auth.Token, error) {
	r := post("/auth/login")
	r.form = url.Values{"username": {cr.Email}, "password": {cr.Password}}
	r.credential = true
	var tok auth.Token
	if err := a.c.do(ctx, r, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// Refresh relies on the refresh cookie held by the client's jar.
func (a *AuthAPI) Refresh(ctx context.Context) (*auth.Token, error) {
	var tok auth.Token
	if err := a.c.do(ctx, post("/auth/refresh"), &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (a *AuthAPI) Me(ctx context.Context) (*user.User, error) {
	var u user.User
	if err := a.c.do(ctx, get("/auth/me"), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *AuthAPI) Logout(ctx context.Context) error {
	return a.c.do(ctx, post("/auth/logout"), nil)
}

func (a *AuthAPI) ValidateEmail(ctx context.Context, email string) (*auth.EmailValidation, error) {
	var v auth.EmailValidation
	if err := a.c.do(ctx, get("/auth/validate/email/"+seg(email)), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (a *AuthAPI) ValidateUsername(ctx context.Context, username string) (*auth.UsernameValidation, error) {
	var v auth.UsernameValidation
	if err := a.c.do(ctx, get("/auth/validate/username/"+seg(username)), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (a *AuthAPI) VerifyEmail(ctx context.Context, token string) (*auth.Message, error) {
	r := get("/auth/verify-email")
	r.query = url.Values{"token": {token}}
	var m auth.Message
	if err := a.c.do(ctx, r, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (a *AuthAPI) ResendVerification(ctx context.Context) (*auth.Message, error) {
	var m auth.Message
	if err := a.c.do(ctx, post("/auth/resend-verification"), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (a *AuthAPI) ForgotPassword(ctx context.Context, email string) (*auth.Message, error) {
	var m auth.Message
	if err := a.c.do(ctx, post("/auth/forgot-password").with(map[string]string{"email": email}), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (a *AuthAPI) ResetPassword(ctx context.Context, r auth.ResetPassword) (*auth.Message, error) {
	var m auth.Message
	if err := a.c.do(ctx, post("/auth/reset-password").with(r), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) Health(ctx context.Context) (string, error) {
	var h struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, get("/health"), &h); err != nil {
		return "", err
	}
	return h.Status, nil
}
