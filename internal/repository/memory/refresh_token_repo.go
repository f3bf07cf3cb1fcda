package memory

import (
	"context"

	"github.com/NordCoder/Linkbio/internal/domain/auth"
	"github.com/google/uuid"
)

var _ auth.RefreshTokenRepo = (*RefreshTokenRepo)(nil)

type RefreshTokenRepo struct{ db *DB }

func NewRefreshTokenRepo(db *DB) *RefreshTokenRepo { return &RefreshTokenRepo{db: db} }

func (r *RefreshTokenRepo) Create(_ context.Context, t *auth.RefreshToken) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.refresh[t.TokenHash]; ok {
		return ErrConflict
	}
	t.ID = uuid.NewString()
	cp := *t
	r.db.refresh[t.TokenHash] = &cp
	return nil
}

// FindValid returns the token only while it is unrevoked and unexpired.
func (r *RefreshTokenRepo) FindValid(_ context.Context, tokenHash string) (*auth.RefreshToken, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	t, ok := r.db.refresh[tokenHash]
	if !ok || t.Revoked || !t.ExpiresAt.After(r.db.now()) {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *RefreshTokenRepo) Revoke(_ context.Context, tokenHash string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if t, ok := r.db.refresh[tokenHash]; ok {
		t.Revoked = true
	}
	return nil
}

func (r *RefreshTokenRepo) RevokeAll(_ context.Context, userID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, t := range r.db.refresh {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}
