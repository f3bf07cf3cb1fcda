package auth

import (
	"time"
)

const TokenTypeBearer = "bearer"

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type Credentials struct {
	Email    string
	Password string
}

type Registration struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

type AccessClaims struct {
	Sub string `json:"sub"` // user id
	Iat int64  `json:"iat"` // created at
	Exp int64  `json:"exp"` // expires at
	ID  string `json:"jti"`
	// Gen is the server's token generation at issue time; bumping it
	// invalidates every access token issued before.
	Gen int64 `json:"gen"`
}

type RefreshToken struct {
	ID        string
	UserID    int64
	TokenHash string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
}

type TicketKind string

const (
	TicketVerifyEmail   TicketKind = "verify_email"
	TicketResetPassword TicketKind = "reset_password"
)

// Ticket is a one-time token mailed to the user.
type Ticket struct {
	Kind      TicketKind
	Token     string
	UserID    int64
	ExpiresAt time.Time
	SentAt    time.Time
	Used      bool
}

type EmailValidation struct {
	Email     string `json:"email"`
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

type UsernameValidation struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

type ResetPassword struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type Message struct {
	Message string `json:"message"`
}
