// Package client talks to the notesauth gRPC service.
//
// GRPCClient keeps the access token and the refresh session id in memory,
// attaches them to outgoing calls, picks up rotated session ids from
// response headers and transparently refreshes an expired access token once
// per call. gRPC status codes are mapped to the sentinel errors in errors.go.
package client
