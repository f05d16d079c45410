package service

import (
	"fmt"

	"repwise/repwise-app/internal/domain"
)

// SessionUser is the {id, email} shape the guard consumes. How the session
// is established (token refresh, keychain, etc.) is not this layer's concern.
type SessionUser struct {
	ID    string
	Email string
}

// SessionProvider supplies the active session's user. Services take one at
// construction instead of reaching into global state.
type SessionProvider interface {
	CurrentUser() (*SessionUser, error)
}

// StaticSession is a fixed-user SessionProvider, used by tests and by the
// post-login wiring where the user is already known.
type StaticSession struct {
	User *SessionUser
}

func (s StaticSession) CurrentUser() (*SessionUser, error) {
	return s.User, nil
}

// RequireCurrentUser resolves the authenticated user or fails with an Auth
// error. Every mutating operation calls this before touching the store.
func RequireCurrentUser(session SessionProvider, action string) (*SessionUser, error) {
	if session == nil {
		return nil, domain.NewAuthError("You must be signed in to do that.",
			fmt.Sprintf("no session provider while attempting to %s", action))
	}
	user, err := session.CurrentUser()
	if err != nil || user == nil || user.ID == "" {
		return nil, domain.NewAuthError("You must be signed in to do that.",
			fmt.Sprintf("not authenticated while attempting to %s", action))
	}
	return user, nil
}

// ValidateUserIDMatch rejects caller-supplied user IDs that do not match the
// session, defending against cross-user writes.
func ValidateUserIDMatch(provided, actual string) error {
	if provided != actual {
		return domain.NewAuthError("You don't have permission to do that.",
			fmt.Sprintf("user id mismatch: provided %s, session %s", provided, actual))
	}
	return nil
}

// ValidateOwnership rejects mutations against resources the session's user
// does not own.
func ValidateOwnership(resourceOwnerID, currentUserID, action string) error {
	if resourceOwnerID != currentUserID {
		return domain.NewAuthError("You don't have permission to do that.",
			fmt.Sprintf("ownership check failed while attempting to %s: owner %s, session %s",
				action, resourceOwnerID, currentUserID))
	}
	return nil
}
