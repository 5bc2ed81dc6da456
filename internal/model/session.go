// ABOUTME: Credentials and the read-only session snapshot shared with consumers
// ABOUTME: Reads access-token expiry from the JWT exp claim without verification

package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credentials is the opaque token pair issued at login or registration.
type Credentials struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Empty reports whether no access token is held.
func (c Credentials) Empty() bool {
	return c.Access == ""
}

// AccessExpiry returns the exp claim of the access token. ok is false when the
// token is not a JWT or carries no expiry. The signature is not checked; the
// backend remains the authority on validity.
func (c Credentials) AccessExpiry() (exp time.Time, ok bool) {
	if c.Access == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.Access, claims); err != nil {
		return time.Time{}, false
	}
	t, err := claims.GetExpirationTime()
	if err != nil || t == nil {
		return time.Time{}, false
	}
	return t.Time, true
}

// Session is a snapshot of the client's authentication state.
type Session struct {
	User          User
	Authenticated bool
	Loading       bool
}

// Role returns the user's role, or "" when no user is held.
func (s Session) Role() Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role()
}
