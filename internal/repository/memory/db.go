package memory

import (
	"errors"
	"sync"
	"time"

	"github.com/NordCoder/Linkbio/internal/domain/auth"
	"github.com/NordCoder/Linkbio/internal/domain/link"
	"github.com/NordCoder/Linkbio/internal/domain/profile"
	"github.com/NordCoder/Linkbio/internal/domain/user"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// DB is the shared state behind every repo in this package. Repos hand out
// copies so callers never alias stored records.
type DB struct {
	mu  sync.RWMutex
	now func() time.Time

	seq      int64
	users    map[int64]*user.Account
	links    map[int64]*link.Link
	profiles map[int64]*profile.Profile // by user id
	refresh  map[string]*auth.RefreshToken
	tickets  map[string]*auth.Ticket
}

func NewDB(now func() time.Time) *DB {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &DB{
		now:      now,
		users:    map[int64]*user.Account{},
		links:    map[int64]*link.Link{},
		profiles: map[int64]*profile.Profile{},
		refresh:  map[string]*auth.RefreshToken{},
		tickets:  map[string]*auth.Ticket{},
	}
}

func (db *DB) nextID() int64 {
	db.seq++
	return db.seq
}

func (db *DB) stamp() *time.Time {
	t := db.now()
	return &t
}
