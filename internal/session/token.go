package session

import (
	"context"
	"time"

	"github.com/NordCoder/Linkbio/internal/errs"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

var _ oauth2.TokenSource = (*Manager)(nil)

// expiryLeeway renews a token slightly before the server would reject it.
const expiryLeeway = 10 * time.Second

// Token returns the held token, renewing it first when its exp claim has
// passed. The signature is not checked; only the server can do that.
func (m *Manager) Token() (*oauth2.Token, error) {
	tok := m.AccessToken()
	if tok == "" {
		return nil, errs.ErrUnauthenticated
	}
	exp, _ := expiry(tok)
	if !exp.IsZero() && !m.now().Before(exp.Add(-expiryLeeway)) {
		var err error
		if tok, err = m.RefreshToken(context.Background()); err != nil {
			return nil, err
		}
		exp, _ = expiry(tok)
	}
	return &oauth2.Token{
		AccessToken: tok,
		TokenType:   "Bearer",
		Expiry:      exp,
	}, nil
}

func expiry(raw string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, err
	}
	return exp.Time, nil
}
