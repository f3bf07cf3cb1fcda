package memory

import (
	"context"
	"time"

	"github.com/NordCoder/Linkbio/internal/domain/auth"
)

var _ auth.TicketRepo = (*TicketRepo)(nil)

type TicketRepo struct{ db *DB }

func NewTicketRepo(db *DB) *TicketRepo { return &TicketRepo{db: db} }

func (r *TicketRepo) Create(_ context.Context, t *auth.Ticket) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.tickets[t.Token]; ok {
		return ErrConflict
	}
	cp := *t
	r.db.tickets[t.Token] = &cp
	return nil
}

func (r *TicketRepo) Take(_ context.Context, kind auth.TicketKind, token string) (*auth.Ticket, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.tickets[token]
	if !ok || !r.validLocked(t, kind) {
		return nil, ErrNotFound
	}
	t.Used = true
	cp := *t
	return &cp, nil
}

// LatestValid returns the user's unused ticket of the kind that expires last.
func (r *TicketRepo) LatestValid(_ context.Context, kind auth.TicketKind, userID int64) (*auth.Ticket, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var best *auth.Ticket
	for _, t := range r.db.tickets {
		if t.UserID != userID || !r.validLocked(t, kind) {
			continue
		}
		if best == nil || t.ExpiresAt.After(best.ExpiresAt) {
			best = t
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (r *TicketRepo) MarkSent(_ context.Context, token string, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.tickets[token]
	if !ok {
		return ErrNotFound
	}
	t.SentAt = at
	return nil
}

func (r *TicketRepo) InvalidateUser(_ context.Context, kind auth.TicketKind, userID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, t := range r.db.tickets {
		if t.UserID == userID && t.Kind == kind {
			t.Used = true
		}
	}
	return nil
}

func (r *TicketRepo) validLocked(t *auth.Ticket, kind auth.TicketKind) bool {
	return t.Kind == kind && !t.Used && t.ExpiresAt.After(r.db.now())
}
