package cache

import (
	"strconv"
	"time"
)

const (
	KeyCurrentUser = "currentUser"
	KeyMyLinks     = "myLinks"
	KeyMyProfile   = "myProfile"

	PrefixPublicLinks   = "publicLinks/"
	PrefixPublicProfile = "publicProfile/"
	PrefixUser          = "user/"
	PrefixUsers         = "users/"
)

const (
	CurrentUserStale = 5 * time.Minute
	MyLinksStale     = 2 * time.Minute
	MyProfileStale   = 5 * time.Minute
	PublicStale      = 5 * time.Minute
	UserStale        = 5 * time.Minute
	UsersStale       = 2 * time.Minute
)

func KeyPublicLinks(username string) string { return PrefixPublicLinks + username }

func KeyPublicProfile(username string) string { return PrefixPublicProfile + username }

func KeyUser(id int64) string { return PrefixUser + strconv.FormatInt(id, 10) }

func KeyUsers(skip, limit int) string {
	return PrefixUsers + strconv.Itoa(skip) + "/" + strconv.Itoa(limit)
}
