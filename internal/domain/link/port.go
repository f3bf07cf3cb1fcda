package link

import "context"

type Repo interface {
	Create(ctx context.Context, l *Link) error
	GetByID(ctx context.Context, id int64) (*Link, error)
	ListByUser(ctx context.Context, userID int64) ([]*Link, error)
	Update(ctx context.Context, l *Link) error
	Delete(ctx context.Context, id int64) error
	DeleteByUser(ctx context.Context, userID int64) error
}
