package common

import "time"

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound and outbound requests.
const AccessTokenHeaderName = "access_token"

// RefreshSessionHeaderName is the gRPC metadata key carrying the opaque
// refresh session id in both directions.
const RefreshSessionHeaderName = "refresh_session_id"

// RefreshSessionMaxAgeHeaderName tells the client how long (in seconds) it
// should retain the refresh session id. A value of 0 means "forget it".
const RefreshSessionMaxAgeHeaderName = "refresh_session_max_age"

// RefreshCookieName and AuthorizedOnCookieName are the HTTP cookies set by
// the auth endpoints.
const (
	RefreshCookieName      = "RefreshToken"
	AuthorizedOnCookieName = "AuthorizedOn"
	RefreshCookiePath      = "/api/auth"
)

// RefreshSessionLifetime is the fixed lifetime of every refresh session.
const RefreshSessionLifetime = 30 * 24 * time.Hour
