package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	domainauth "github.com/NordCoder/Linkbio/internal/domain/auth"
	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenInvalid = errors.New("invalid token")

type claims struct {
	jwt.RegisteredClaims
	Gen int64 `json:"gen"`
}

// ParseAndValidate checks the HS256 signature and the iat/exp window
// against now.
func ParseAndValidate(token string, secret []byte, now func() time.Time) (*domainauth.AccessClaims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(now),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if _, err := strconv.ParseInt(c.Subject, 10, 64); err != nil {
		return nil, ErrTokenInvalid
	}
	out := &domainauth.AccessClaims{Sub: c.Subject, ID: c.ID, Gen: c.Gen}
	if c.IssuedAt != nil {
		out.Iat = c.IssuedAt.Unix()
	}
	if c.ExpiresAt != nil {
		out.Exp = c.ExpiresAt.Unix()
	}
	return out, nil
}

func SignedString(c domainauth.AccessClaims, secret []byte) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.Sub,
			IssuedAt:  jwt.NewNumericDate(time.Unix(c.Iat, 0)),
			ExpiresAt: jwt.NewNumericDate(time.Unix(c.Exp, 0)),
			ID:        c.ID,
		},
		Gen: c.Gen,
	})
	s, err := t.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	return s, nil
}

func GenerateRawToken(nBytes int) (raw string, err error) {
	b := make([]byte, nBytes)
	if _, err = rand.Read(b); err != nil {
		return "", err
	}
	raw = base64.RawURLEncoding.EncodeToString(b)
	return raw, nil
}

func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(h[:])
}
