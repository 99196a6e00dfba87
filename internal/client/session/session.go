// Package session holds the client's explicit login state.
package session

import (
	"errors"
	"time"

	"michi/internal/models"
)

// ErrNoSession is returned by a TokenStore with nothing saved.
var ErrNoSession = errors.New("no saved session")

// User is the signed-in account as reported by /me
type User struct {
	ID       string
	UserName string
	Role     models.Role
}

// State is the client's session. Transitions return a new value and never mutate the receiver.
type State struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}

// Login returns the state after a successful sign-in
func (s State) Login(token string, expiresAt time.Time, user User) State {
	return State{Token: token, ExpiresAt: expiresAt, User: &user}
}

// Logout returns the signed-out state
func (s State) Logout() State {
	return State{}
}

// LoggedIn reports whether the state holds an unexpired token at now.
// A zero expiry is treated as unknown and accepted; the backend has the final word.
func (s State) LoggedIn(now time.Time) bool {
	if s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// Role returns the signed-in role, or "" when logged out
func (s State) Role() models.Role {
	if s.User == nil || s.Token == "" {
		return ""
	}
	return s.User.Role
}

// UserName returns the signed-in user name, or "" when logged out
func (s State) UserName() string {
	if s.User == nil {
		return ""
	}
	return s.User.UserName
}

// FromResponse converts a /me profile into a session user
func FromResponse(u models.UserResponse) User {
	role := u.Role
	if role != models.RoleAdmin {
		role = models.RoleUser
	}
	return User{ID: u.ID, UserName: u.UserName, Role: role}
}
