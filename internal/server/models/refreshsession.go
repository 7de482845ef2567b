package models

import "time"

// RefreshSession is a single-use, fingerprint-bound grant to obtain a new
// access token. Sessions are never updated in place: rotation deletes the
// row and inserts a new one with a fresh ID.
type RefreshSession struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Fingerprint string    `json:"fingerprint"`
	CreatedOn   time.Time `json:"created_on"`
	ExpiresOn   time.Time `json:"expires_on"`
}

// ActiveAt reports whether the session has not yet expired at t.
// Expiry is exclusive: a session is dead at exactly ExpiresOn.
func (s *RefreshSession) ActiveAt(t time.Time) bool {
	return t.Before(s.ExpiresOn)
}
