package user

import (
	"time"

	"github.com/NordCoder/Linkbio/internal/domain/link"
	"github.com/NordCoder/Linkbio/internal/domain/profile"
)

type User struct {
	ID         int64      `json:"id"`
	Email      string     `json:"email"`
	Username   string     `json:"username"`
	FullName   string     `json:"full_name,omitempty"`
	Bio        string     `json:"bio,omitempty"`
	AvatarURL  string     `json:"avatar_url,omitempty"`
	IsActive   bool       `json:"is_active"`
	IsVerified bool       `json:"is_verified"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

type Update struct {
	Email     *string `json:"email,omitempty"`
	Username  *string `json:"username,omitempty"`
	FullName  *string `json:"full_name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

type WithProfile struct {
	User
	Profile *profile.Profile `json:"profile"`
}

type PublicProfile struct {
	Username  string           `json:"username"`
	FullName  string           `json:"full_name,omitempty"`
	Bio       string           `json:"bio,omitempty"`
	AvatarURL string           `json:"avatar_url,omitempty"`
	Profile   *profile.Profile `json:"profile"`
	Links     []link.Link      `json:"links"`
}

type PageMeta struct {
	Title       string
	Description string
	Image       string
}

// Meta is the page title and description shown for a public profile.
func (p *PublicProfile) Meta() PageMeta {
	m := PageMeta{Image: p.AvatarURL}
	if p.Profile != nil {
		m.Title = p.Profile.PageTitle
		m.Description = p.Profile.MetaDescription
	}
	if m.Title == "" {
		m.Title = p.FullName
	}
	if m.Title == "" {
		m.Title = p.Username
	}
	if m.Description == "" {
		m.Description = p.Bio
	}
	return m
}
