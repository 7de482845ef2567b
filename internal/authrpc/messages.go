// Package authrpc defines the notesauth gRPC service: its messages, a JSON
// codec, the server registration helper and a typed client. Both the server
// and the CLI client import it.
package authrpc

type RegisterRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

type Profile struct {
	ID    string `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type RegisterResponse struct {
	Profile *Profile `json:"profile"`
}

type LoginRequest struct {
	Login       string `json:"login"`
	Password    string `json:"password"`
	Fingerprint string `json:"fingerprint"`
}

// RefreshRequest carries the fingerprint; the session id travels in the
// refresh_session_id metadata.
type RefreshRequest struct {
	Fingerprint string `json:"fingerprint"`
}

// TokenResponse answers Login and Refresh. The refresh session id is sent in
// the refresh_session_id response header, never in the body.
type TokenResponse struct {
	AccessToken     string   `json:"access_token"`
	AccessExpiresAt int64    `json:"access_expires_at"`
	Profile         *Profile `json:"profile"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

type MeRequest struct{}

type MeResponse struct {
	Profile *Profile `json:"profile"`
}
