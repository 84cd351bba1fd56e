package session

import (
	"time"

	"github.com/moleboard/moleboard/internal/domain/user"
)

// Session is the per-client authentication context. The user is a copy of
// the directory record taken at login time; after a profile edit the owner
// of the mutation has to push the fresh record back in through
// Manager.Resync, the copy is never refreshed implicitly.
type Session struct {
	ID         string     `json:"id"`
	User       *user.User `json:"user,omitempty"`
	LoginError string     `json:"loginError,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  time.Time  `json:"expiresAt"`
}

// Derived accessors. All of them are computed from the cached user record,
// nothing is stored twice.

func (s Session) IsAuthenticated() bool {
	return s.User != nil
}

func (s Session) Role() string {
	if s.User == nil {
		return ""
	}

	return s.User.Role
}

// UserID returns -1 when no user is logged in.
func (s Session) UserID() int {
	if s.User == nil {
		return -1
	}

	return s.User.ID
}

func (s Session) DisplayName() string {
	if s.User == nil {
		return ""
	}

	return s.User.Name
}
