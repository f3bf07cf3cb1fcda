package memory

import (
	"context"
	"sort"

	"github.com/NordCoder/Linkbio/internal/domain/link"
)

var _ link.Repo = (*LinkRepo)(nil)

type LinkRepo struct {
	db *DB
}

func NewLinkRepo(db *DB) *LinkRepo { return &LinkRepo{db: db} }

func (r *LinkRepo) Create(_ context.Context, l *link.Link) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	l.ID = r.db.nextID()
	l.CreatedAt = r.db.now()
	l.UpdatedAt = nil
	cp := *l
	r.db.links[l.ID] = &cp
	return nil
}

func (r *LinkRepo) GetByID(_ context.Context, id int64) (*link.Link, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	l, ok := r.db.links[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *l
	return &cp, nil
}

// ListByUser returns the user's links ordered by position, then id.
func (r *LinkRepo) ListByUser(_ context.Context, userID int64) ([]*link.Link, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := []*link.Link{}
	for _, l := range r.db.links {
		if l.UserID == userID {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *LinkRepo) Update(_ context.Context, l *link.Link) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.links[l.ID]; !ok {
		return ErrNotFound
	}
	l.UpdatedAt = r.db.stamp()
	cp := *l
	r.db.links[l.ID] = &cp
	return nil
}

func (r *LinkRepo) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.links[id]; !ok {
		return ErrNotFound
	}
	delete(r.db.links, id)
	return nil
}

func (r *LinkRepo) DeleteByUser(_ context.Context, userID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for id, l := range r.db.links {
		if l.UserID == userID {
			delete(r.db.links, id)
		}
	}
	return nil
}
