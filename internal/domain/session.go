package domain

import "time"

// Session is a logged-in (or anonymous) browser session.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Visits    int       `json:"visits"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the session is past its expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsAuthenticated reports whether a user is attached to the session.
func (s *Session) IsAuthenticated() bool {
	return s.UserID != ""
}
