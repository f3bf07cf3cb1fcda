package profile

import (
	"context"
	"time"
)

const (
	DefaultTheme           = "light"
	DefaultBackgroundColor = "#FFFFFF"
	DefaultTextColor       = "#000000"
	DefaultButtonStyle     = "rounded"
)

type Profile struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"user_id"`
	PageTitle       string     `json:"page_title,omitempty"`
	Theme           string     `json:"theme"`
	BackgroundColor string     `json:"background_color"`
	TextColor       string     `json:"text_color"`
	ButtonStyle     string     `json:"button_style"`
	MetaDescription string     `json:"meta_description,omitempty"`
	CustomDomain    string     `json:"custom_domain,omitempty"`
	IsPublic        bool       `json:"is_public"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// Update is used for both create and update requests.
type Update struct {
	PageTitle       *string `json:"page_title,omitempty"`
	Theme           *string `json:"theme,omitempty"`
	BackgroundColor *string `json:"background_color,omitempty"`
	TextColor       *string `json:"text_color,omitempty"`
	ButtonStyle     *string `json:"button_style,omitempty"`
	MetaDescription *string `json:"meta_description,omitempty"`
	CustomDomain    *string `json:"custom_domain,omitempty"`
	IsPublic        *bool   `json:"is_public,omitempty"`
}

type Repo interface {
	Create(ctx context.Context, p *Profile) error
	GetByUserID(ctx context.Context, userID int64) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
	DeleteByUserID(ctx context.Context, userID int64) error
}
