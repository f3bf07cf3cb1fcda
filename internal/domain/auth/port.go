package auth

import (
	"context"
	"time"
)

type RefreshTokenRepo interface {
	Create(ctx context.Context, t *RefreshToken) error
	FindValid(ctx context.Context, tokenHash string) (*RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string) error
	RevokeAll(ctx context.Context, userID int64) error
}

type TicketRepo interface {
	Create(ctx context.Context, t *Ticket) error
	// Take marks a valid ticket used and returns it.
	Take(ctx context.Context, kind TicketKind, token string) (*Ticket, error)
	LatestValid(ctx context.Context, kind TicketKind, userID int64) (*Ticket, error)
	MarkSent(ctx context.Context, token string, at time.Time) error
	InvalidateUser(ctx context.Context, kind TicketKind, userID int64) error
}
