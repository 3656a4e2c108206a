package models

import "time"

// RefreshToken is an opaque, single-use token that can be traded for a new
// access token until Expires.
type RefreshToken struct {
	UserID    string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}

// ExpiredAt reports whether the token can no longer be used at t.
func (t *RefreshToken) ExpiredAt(at time.Time) bool {
	return !at.Before(t.Expires)
}
