package session

import "time"

type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
	Refreshing
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// HasToken reports whether a session in state s holds an access token.
func (s State) HasToken() bool {
	return s == Authenticated || s == Refreshing
}

type Status struct {
	State       State
	Initialized bool
	// Expiry is read from the token's exp claim; zero when unknown.
	Expiry time.Time
}
