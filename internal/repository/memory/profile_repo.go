package memory

import (
	"context"
	"strings"

	"github.com/NordCoder/Linkbio/internal/domain/profile"
)

var _ profile.Repo = (*ProfileRepo)(nil)

type ProfileRepo struct {
	db *DB
}

func NewProfileRepo(db *DB) *ProfileRepo { return &ProfileRepo{db: db} }

// Create fails with ErrConflict when the user already has a profile or the
// custom domain belongs to someone else.
func (r *ProfileRepo) Create(_ context.Context, p *profile.Profile) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.profiles[p.UserID]; ok {
		return ErrConflict
	}
	if r.domainTakenLocked(p.UserID, p.CustomDomain) {
		return ErrConflict
	}
	p.ID = r.db.nextID()
	p.CreatedAt = r.db.now()
	p.UpdatedAt = nil
	cp := *p
	r.db.profiles[p.UserID] = &cp
	return nil
}

func (r *ProfileRepo) GetByUserID(_ context.Context, userID int64) (*profile.Profile, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *ProfileRepo) Update(_ context.Context, p *profile.Profile) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.profiles[p.UserID]; !ok {
		return ErrNotFound
	}
	if r.domainTakenLocked(p.UserID, p.CustomDomain) {
		return ErrConflict
	}
	p.UpdatedAt = r.db.stamp()
	cp := *p
	r.db.profiles[p.UserID] = &cp
	return nil
}

func (r *ProfileRepo) DeleteByUserID(_ context.Context, userID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.profiles[userID]; !ok {
		return ErrNotFound
	}
	delete(r.db.profiles, userID)
	return nil
}

func (r *ProfileRepo) domainTakenLocked(userID int64, domain string) bool {
	if domain == "" {
		return false
	}
	for uid, p := range r.db.profiles {
		if uid != userID && strings.EqualFold(p.CustomDomain, domain) {
			return true
		}
	}
	return false
}
