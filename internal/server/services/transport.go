package services

import "time"

// SessionTransport hands the refresh session id back to the client. The
// request layer implements it (gRPC response header, HTTP-only cookie); the
// services never know which.
type SessionTransport interface {
	// Store instructs the client to retain id for maxAge.
	Store(id string, maxAge time.Duration) error
	// Clear instructs the client to forget any retained id.
	Clear() error
}

