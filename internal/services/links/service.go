package links

import (
	"context"
	"fmt"

	"github.com/NordCoder/Linkbio/internal/cache"
	"github.com/NordCoder/Linkbio/internal/domain/link"
	"github.com/NordCoder/Linkbio/internal/domain/user"
	"github.com/NordCoder/Linkbio/internal/obs"
	"go.uber.org/zap"
)

type API interface {
	List(ctx context.Context) ([]link.Link, error)
	Create(ctx context.Context, in link.Create) (*link.Link, error)
	Update(ctx context.Context, id int64, in link.Update) (*link.Link, error)
	Delete(ctx context.Context, id int64) error
	Reorder(ctx context.Context, moves []link.Reorder) ([]link.Link, error)
	Click(ctx context.Context, id int64) (*link.Link, error)
	ByUsername(ctx context.Context, username string) ([]link.Link, error)
}

type Service struct {
	api   API
	cache *cache.Cache
	log   *zap.Logger
}

func New(api API, c *cache.Cache, log *zap.Logger) *Service {
	return &Service{api: api, cache: c, log: obs.OrNop(log)}
}

// Mine returns the caller's links in server order.
func (s *Service) Mine(ctx context.Context) ([]link.Link, error) {
	return cache.Get(ctx, s.cache, cache.KeyMyLinks, cache.MyLinksStale, s.api.List)
}

func (s *Service) Sorted(ctx context.Context) ([]link.Link, error) {
	return s.view(ctx, link.Sorted)
}

func (s *Service) Active(ctx context.Context) ([]link.Link, error) {
	return s.view(ctx, link.Active)
}

func (s *Service) Buttons(ctx context.Context) ([]link.Link, error) {
	return s.view(ctx, link.Buttons)
}

func (s *Service) Plain(ctx context.Context) ([]link.Link, error) {
	return s.view(ctx, link.Plain)
}

func (s *Service) Create(ctx context.Context, in link.Create) (*link.Link, error) {
	l, err := s.api.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	cache.Update(s.cache, cache.KeyMyLinks, func(old []link.Link) []link.Link {
		out := make([]link.Link, 0, len(old)+1)
		return append(append(out, old...), *l)
	})
	s.touchPublic()
	s.log.Info("links.create", zap.Int64("link_id", l.ID))
	return l, nil
}

func (s *Service) Update(ctx context.Context, id int64, in link.Update) (*link.Link, error) {
	l, err := s.api.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	cache.Update(s.cache, cache.KeyMyLinks, func(old []link.Link) []link.Link {
		return link.Replace(old, *l)
	})
	s.touchPublic()
	s.log.Info("links.update", zap.Int64("link_id", id))
	return l, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.api.Delete(ctx, id); err != nil {
		return err
	}
	cache.Update(s.cache, cache.KeyMyLinks, func(old []link.Link) []link.Link {
		return link.Remove(old, id)
	})
	s.touchPublic()
	s.log.Info("links.delete", zap.Int64("link_id", id))
	return nil
}

// Reorder applies moves and replaces the cached list with the server's.
func (s *Service) Reorder(ctx context.Context, moves []link.Reorder) ([]link.Link, error) {
	out, err := s.api.Reorder(ctx, moves)
	if err != nil {
		return nil, err
	}
	s.cache.Set(cache.KeyMyLinks, out)
	s.touchPublic()
	s.log.Info("links.reorder", zap.Int("moves", len(moves)))
	return out, nil
}

// ToggleActive flips is_active on one of the caller's links. An unknown id
// is a no-op and returns nil.
func (s *Service) ToggleActive(ctx context.Context, id int64) (*link.Link, error) {
	mine, err := s.Mine(ctx)
	if err != nil {
		return nil, err
	}
	l, ok := link.Find(mine, id)
	if !ok {
		return nil, nil
	}
	active := !l.IsActive
	return s.Update(ctx, id, link.Update{IsActive: &active})
}

// Move swaps the link with its neighbour in position order. It reports
// false without calling the API for unknown ids and at either end.
func (s *Service) Move(ctx context.Context, id int64, dir link.Direction) (bool, error) {
	mine, err := s.Mine(ctx)
	if err != nil {
		return false, err
	}
	swap, ok := link.MoveSwap(mine, id, dir)
	if !ok {
		return false, nil
	}
	if _, err := s.Reorder(ctx, swap); err != nil {
		return false, err
	}
	return true, nil
}

// Public returns all links of username as the server lists them.
func (s *Service) Public(ctx context.Context, username string) ([]link.Link, error) {
	if username == "" {
		return nil, fmt.Errorf("public links: empty username")
	}
	return cache.Get(ctx, s.cache, cache.KeyPublicLinks(username), cache.PublicStale,
		func(ctx context.Context) ([]link.Link, error) { return s.api.ByUsername(ctx, username) })
}

// PublicPage splits the active public links into buttons and plain links.
func (s *Service) PublicPage(ctx context.Context, username string) (buttons, plain []link.Link, err error) {
	all, err := s.Public(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	active := link.Active(all)
	return link.Buttons(active), link.Plain(active), nil
}

// Click records a click and patches the cached public copy of username.
func (s *Service) Click(ctx context.Context, username string, id int64) (*link.Link, error) {
	l, err := s.api.Click(ctx, id)
	if err != nil {
		return nil, err
	}
	if username != "" {
		cache.Update(s.cache, cache.KeyPublicLinks(username), func(old []link.Link) []link.Link {
			return link.Replace(old, *l)
		})
	}
	return l, nil
}

func (s *Service) view(ctx context.Context, fn func([]link.Link) []link.Link) ([]link.Link, error) {
	mine, err := s.Mine(ctx)
	if err != nil {
		return nil, err
	}
	return fn(mine), nil
}

// touchPublic marks the caller's public list stale. Without a cached user
// every public list is marked.
func (s *Service) touchPublic() {
	if u, ok := cache.Peek[*user.User](s.cache, cache.KeyCurrentUser); ok && u != nil {
		s.cache.Invalidate(cache.KeyPublicLinks(u.Username))
		return
	}
	s.cache.InvalidatePrefix(cache.PrefixPublicLinks)
}
