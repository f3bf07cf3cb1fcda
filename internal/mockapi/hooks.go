package mockapi

import (
	"context"
	"fmt"
	"time"

	config "github.com/NordCoder/Linkbio/internal/config/mockapi"
	domainauth "github.com/NordCoder/Linkbio/internal/domain/auth"
	"github.com/NordCoder/Linkbio/internal/domain/link"
)

// RefreshCalls counts POST /auth/refresh requests, including rejected ones.
func (s *Server) RefreshCalls() int64 { return s.refreshCalls.Load() }

// SetRefreshDelay holds every refresh for d before it is answered.
func (s *Server) SetRefreshDelay(d time.Duration) { s.refreshDelay.Store(int64(d)) }

// FailRefresh answers refresh with status until called again with 0.
// A 401 also clears the refresh cookie.
func (s *Server) FailRefresh(status int) { s.refreshStatus.Store(int32(status)) }

// FailLogout answers logout with status until called again with 0.
func (s *Server) FailLogout(status int) { s.logoutStatus.Store(int32(status)) }

// ExpireAccessTokens invalidates every access token issued so far.
func (s *Server) ExpireAccessTokens() { s.uc.ExpireAccessTokens() }

// Seed creates the fixture users with their links. Users are created
// through the same path as registration, so each gets a default profile.
func (s *Server) Seed(ctx context.Context, seed config.Seed) error {
	for _, su := range seed.Users {
		acc, err := s.uc.Register(ctx, domainauth.Registration{
			Email: su.Email, Username: su.Username, Password: su.Password,
			FullName: su.FullName, Bio: su.Bio,
		})
		if err != nil {
			return fmt.Errorf("seed %s: %w", su.Username, err)
		}
		if su.Verified {
			acc.IsVerified = true
			if err := s.users.Update(ctx, acc); err != nil {
				return fmt.Errorf("seed %s: %w", su.Username, err)
			}
		}
		if su.Private || su.PageTitle != "" {
			p, err := s.profiles.GetByUserID(ctx, acc.ID)
			if err != nil {
				return fmt.Errorf("seed %s profile: %w", su.Username, err)
			}
			p.IsPublic = !su.Private
			p.PageTitle = su.PageTitle
			if err := s.profiles.Update(ctx, p); err != nil {
				return fmt.Errorf("seed %s profile: %w", su.Username, err)
			}
		}
		for i, sl := range su.Links {
			l := &link.Link{
				UserID:         acc.ID,
				LinkType:       link.Type(sl.Type),
				SocialPlatform: link.Platform(sl.Platform),
				Title:          sl.Title,
				URL:            sl.URL,
				Position:       i,
				IsActive:       !sl.Inactive,
			}
			if l.LinkType == "" {
				l.LinkType = link.TypeLink
			}
			if err := s.links.Create(ctx, l); err != nil {
				return fmt.Errorf("seed %s link: %w", su.Username, err)
			}
		}
	}
	return nil
}
