package auth

import (
	"fmt"

	"github.com/google/uuid"
)

// Session holds the authenticated identity for the lifetime of one inbound
// interaction. It is a back-reference to the user id, never an owner of the
// record itself; create one per request and discard it with the request.
type Session struct {
	userID   *uuid.UUID
	email    string
	verified bool
}

// NewSession returns an anonymous session
func NewSession() *Session {
	return &Session{}
}

// SetUser marks the user as the authenticated identity for the remainder of
// the interaction
func (s *Session) SetUser(user *User) {
	if user == nil {
		return
	}
	id := user.ID
	s.userID = &id
	s.email = user.Email
	s.verified = user.Verified
}

// CurrentUser returns the authenticated identity, if any
func (s *Session) CurrentUser() (uuid.UUID, bool) {
	if s.userID == nil {
		return uuid.Nil, false
	}
	return *s.userID, true
}

// IsAuthenticated reports whether an identity has been established
func (s *Session) IsAuthenticated() bool {
	return s.userID != nil
}

// Verified reports the verification state captured when the identity was set.
// Authentication and verification are independent axes.
func (s *Session) Verified() bool {
	return s.userID != nil && s.verified
}

// Clear destroys the interaction's authenticated state entirely. Credential
// deletion is a separate concern; signout must do both.
func (s *Session) Clear() {
	s.userID = nil
	s.email = ""
	s.verified = false
}

func (s Session) String() string {
	if s.userID == nil {
		return "session=anonymous"
	}
	return fmt.Sprintf("session user=%s verified=%t", s.userID, s.verified)
}
