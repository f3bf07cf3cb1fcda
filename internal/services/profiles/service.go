package profiles

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/NordCoder/Linkbio/internal/cache"
	"github.com/NordCoder/Linkbio/internal/domain/link"
	"github.com/NordCoder/Linkbio/internal/domain/profile"
	"github.com/NordCoder/Linkbio/internal/domain/user"
	"github.com/NordCoder/Linkbio/internal/errs"
	"github.com/NordCoder/Linkbio/internal/obs"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type UsersAPI interface {
	List(ctx context.Context, skip, limit int) ([]user.User, error)
	Get(ctx context.Context, id int64) (*user.WithProfile, error)
	ByUsername(ctx context.Context, username string) (*user.PublicProfile, error)
	UpdateMe(ctx context.Context, in user.Update) (*user.User, error)
	SetAvatar(ctx context.Context, avatarURL string) (*user.User, error)
	UploadAvatar(ctx context.Context, filename string, img io.Reader) (*user.User, error)
	RemoveAvatar(ctx context.Context) (*user.User, error)
}

type ProfilesAPI interface {
	Me(ctx context.Context) (*profile.Profile, error)
	Create(ctx context.Context, in profile.Update) (*profile.Profile, error)
	UpdateMe(ctx context.Context, in profile.Update) (*profile.Profile, error)
	DeleteMe(ctx context.Context) error
	ByUserID(ctx context.Context, userID int64) (*profile.Profile, error)
}

type CurrentUser interface {
	Current(ctx context.Context) (*user.User, error)
}

type MyLinks interface {
	Mine(ctx context.Context) ([]link.Link, error)
}

type Service struct {
	users    UsersAPI
	profiles ProfilesAPI
	cache    *cache.Cache
	log      *zap.Logger
}

func New(users UsersAPI, profiles ProfilesAPI, c *cache.Cache, log *zap.Logger) *Service {
	return &Service{users: users, profiles: profiles, cache: c, log: obs.OrNop(log)}
}

// Page is a public profile ready for display.
type Page struct {
	Profile *user.PublicProfile
	Meta    user.PageMeta
	Buttons []link.Link
	Links   []link.Link
}

func (s *Service) Public(ctx context.Context, username string) (*user.PublicProfile, error) {
	if username == "" {
		return nil, fmt.Errorf("public profile: empty username")
	}
	return cache.Get(ctx, s.cache, cache.KeyPublicProfile(username), cache.PublicStale,
		func(ctx context.Context) (*user.PublicProfile, error) { return s.users.ByUsername(ctx, username) })
}

func (s *Service) PublicPage(ctx context.Context, username string) (*Page, error) {
	p, err := s.Public(ctx, username)
	if err != nil {
		return nil, err
	}
	active := link.Active(p.Links)
	return &Page{
		Profile: p,
		Meta:    p.Meta(),
		Buttons: link.Buttons(active),
		Links:   link.Plain(active),
	}, nil
}

func (s *Service) UpdateMe(ctx context.Context, in user.Update) (*user.User, error) {
	prev, _ := cache.Peek[*user.User](s.cache, cache.KeyCurrentUser)
	u, err := s.users.UpdateMe(ctx, in)
	if err != nil {
		return nil, err
	}
	if prev != nil && prev.Username != u.Username {
		s.cache.Invalidate(cache.KeyPublicProfile(prev.Username))
		s.cache.Invalidate(cache.KeyPublicLinks(prev.Username))
	}
	s.seedUser(u)
	s.log.Info("profiles.update_user", zap.Int64("user_id", u.ID))
	return u, nil
}

func (s *Service) SetAvatar(ctx context.Context, avatarURL string) (*user.User, error) {
	return s.avatar(ctx, "set", func(ctx context.Context) (*user.User, error) {
		return s.users.SetAvatar(ctx, avatarURL)
	})
}

func (s *Service) UploadAvatar(ctx context.Context, filename string, img io.Reader) (*user.User, error) {
	return s.avatar(ctx, "upload", func(ctx context.Context) (*user.User, error) {
		return s.users.UploadAvatar(ctx, filename, img)
	})
}

func (s *Service) RemoveAvatar(ctx context.Context) (*user.User, error) {
	return s.avatar(ctx, "remove", s.users.RemoveAvatar)
}

func (s *Service) MyProfile(ctx context.Context) (*profile.Profile, error) {
	return cache.Get(ctx, s.cache, cache.KeyMyProfile, cache.MyProfileStale, s.profiles.Me)
}

func (s *Service) CreateProfile(ctx context.Context, in profile.Update) (*profile.Profile, error) {
	p, err := s.profiles.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.seedProfile(p)
	return p, nil
}

func (s *Service) UpdateProfile(ctx context.Context, in profile.Update) (*profile.Profile, error) {
	p, err := s.profiles.UpdateMe(ctx, in)
	if err != nil {
		return nil, err
	}
	s.seedProfile(p)
	return p, nil
}

func (s *Service) DeleteProfile(ctx context.Context) error {
	if err := s.profiles.DeleteMe(ctx); err != nil {
		return err
	}
	s.cache.Remove(cache.KeyMyProfile)
	s.touchOwnPublic()
	s.log.Info("profiles.delete")
	return nil
}

func (s *Service) ProfileOf(ctx context.Context, userID int64) (*profile.Profile, error) {
	return s.profiles.ByUserID(ctx, userID)
}

// User returns any user by id together with their profile.
func (s *Service) User(ctx context.Context, id int64) (*user.WithProfile, error) {
	return cache.Get(ctx, s.cache, cache.KeyUser(id), cache.UserStale,
		func(ctx context.Context) (*user.WithProfile, error) { return s.users.Get(ctx, id) })
}

func (s *Service) Users(ctx context.Context, skip, limit int) ([]user.User, error) {
	return cache.Get(ctx, s.cache, cache.KeyUsers(skip, limit), cache.UsersStale,
		func(ctx context.Context) ([]user.User, error) { return s.users.List(ctx, skip, limit) })
}

type Dashboard struct {
	User    *user.User
	Links   []link.Link
	Profile *profile.Profile // nil when the user has no profile yet
}

// Dashboard loads the signed-in user, their links and their profile
// concurrently. The first failure cancels the rest.
func (s *Service) Dashboard(ctx context.Context, me CurrentUser, links MyLinks) (*Dashboard, error) {
	var d Dashboard
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := me.Current(ctx)
		d.User = u
		return err
	})
	g.Go(func() error {
		ls, err := links.Mine(ctx)
		d.Links = link.Sorted(ls)
		return err
	})
	g.Go(func() error {
		p, err := s.MyProfile(ctx)
		if errors.Is(err, errs.ErrNotFound) {
			return nil
		}
		d.Profile = p
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Service) avatar(ctx context.Context, op string, call func(context.Context) (*user.User, error)) (*user.User, error) {
	u, err := call(ctx)
	if err != nil {
		return nil, err
	}
	s.seedUser(u)
	s.log.Info("profiles.avatar", zap.String("op", op), zap.Int64("user_id", u.ID))
	return u, nil
}

func (s *Service) seedUser(u *user.User) {
	s.cache.Set(cache.KeyCurrentUser, u)
	s.cache.Invalidate(cache.KeyUser(u.ID))
	if u.Username != "" {
		s.cache.Invalidate(cache.KeyPublicProfile(u.Username))
	}
}

func (s *Service) seedProfile(p *profile.Profile) {
	s.cache.Set(cache.KeyMyProfile, p)
	s.cache.Invalidate(cache.KeyUser(p.UserID))
	s.touchOwnPublic()
	s.log.Info("profiles.save", zap.Int64("profile_id", p.ID))
}

func (s *Service) touchOwnPublic() {
	if u, ok := cache.Peek[*user.User](s.cache, cache.KeyCurrentUser); ok && u != nil {
		s.cache.Invalidate(cache.KeyPublicProfile(u.Username))
		return
	}
	s.cache.InvalidatePrefix(cache.PrefixPublicProfile)
}
