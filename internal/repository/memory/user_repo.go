package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/NordCoder/Linkbio/internal/domain/user"
)

var _ user.Repo = (*UserRepo)(nil)

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(_ context.Context, a *user.Account) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, a.Email) || u.Username == a.Username {
			return ErrConflict
		}
	}
	a.ID = r.db.nextID()
	a.CreatedAt = r.db.now()
	a.UpdatedAt = nil
	cp := *a
	r.db.users[a.ID] = &cp
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id int64) (*user.Account, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*user.Account, error) {
	return r.find(func(a *user.Account) bool { return strings.EqualFold(a.Email, email) })
}

func (r *UserRepo) GetByUsername(_ context.Context, username string) (*user.Account, error) {
	return r.find(func(a *user.Account) bool { return a.Username == username })
}

func (r *UserRepo) List(_ context.Context, skip, limit int) ([]*user.Account, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	all := make([]*user.Account, 0, len(r.db.users))
	for _, u := range r.db.users {
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if skip >= len(all) {
		return []*user.Account{}, nil
	}
	all = all[max(skip, 0):]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *UserRepo) Update(_ context.Context, a *user.Account) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[a.ID]; !ok {
		return ErrNotFound
	}
	for id, u := range r.db.users {
		if id != a.ID && (strings.EqualFold(u.Email, a.Email) || u.Username == a.Username) {
			return ErrConflict
		}
	}
	a.UpdatedAt = r.db.stamp()
	cp := *a
	r.db.users[a.ID] = &cp
	return nil
}

func (r *UserRepo) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.db.users, id)
	return nil
}

func (r *UserRepo) find(match func(*user.Account) bool) (*user.Account, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}
