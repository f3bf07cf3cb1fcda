package link

import "time"

type Type string

const (
	TypeButton Type = "button"
	TypeLink   Type = "link"
)

type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTwitter   Platform = "twitter"
	PlatformFacebook  Platform = "facebook"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformYouTube   Platform = "youtube"
	PlatformTikTok    Platform = "tiktok"
	PlatformGitHub    Platform = "github"
	PlatformDiscord   Platform = "discord"
	PlatformTwitch    Platform = "twitch"
	PlatformSpotify   Platform = "spotify"
	PlatformPinterest Platform = "pinterest"
	PlatformSnapchat  Platform = "snapchat"
	PlatformReddit    Platform = "reddit"
	PlatformTelegram  Platform = "telegram"
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformOther     Platform = "other"
)

type Link struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	LinkType       Type       `json:"link_type"`
	SocialPlatform Platform   `json:"social_platform,omitempty"`
	Title          string     `json:"title"`
	URL            string     `json:"url"`
	Description    string     `json:"description,omitempty"`
	ThumbnailURL   string     `json:"thumbnail_url,omitempty"`
	Position       int        `json:"position"`
	IsActive       bool       `json:"is_active"`
	ClickCount     int64      `json:"click_count"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

type Create struct {
	LinkType       Type     `json:"link_type,omitempty"`
	SocialPlatform Platform `json:"social_platform,omitempty"`
	Title          string   `json:"title"`
	URL            string   `json:"url"`
	Description    string   `json:"description,omitempty"`
	ThumbnailURL   string   `json:"thumbnail_url,omitempty"`
	Position       *int     `json:"position,omitempty"`
	IsActive       *bool    `json:"is_active,omitempty"`
}

type Update struct {
	LinkType       *Type     `json:"link_type,omitempty"`
	SocialPlatform *Platform `json:"social_platform,omitempty"`
	Title          *string   `json:"title,omitempty"`
	URL            *string   `json:"url,omitempty"`
	Description    *string   `json:"description,omitempty"`
	ThumbnailURL   *string   `json:"thumbnail_url,omitempty"`
	Position       *int      `json:"position,omitempty"`
	IsActive       *bool     `json:"is_active,omitempty"`
}

type Reorder struct {
	LinkID      int64 `json:"link_id"`
	NewPosition int   `json:"new_position"`
}

type Direction int

const (
	Up Direction = iota
	Down
)
