// Package cli provides the interactive notesauth command-line client.
//
// It wires configuration and the gRPC client into a REPL with register,
// login, refresh, me and logout commands. A background watcher probes the
// server health service and flips the prompt between online and offline.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
