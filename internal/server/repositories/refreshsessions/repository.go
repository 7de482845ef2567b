// Package refreshsessions declares the refresh session store contract and
// its Postgres, Redis and in-memory implementations.
//
// Every implementation must make Delete an atomic point operation that
// reports whether the row existed: the rotation engine relies on it to let
// exactly one of several concurrent rotations of the same id succeed.
package refreshsessions

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/notesauth/internal/server/models"
)

var errDuplicateID = errors.New("refresh session id already stored")

// Repository stores refresh sessions keyed by their ID.
type Repository interface {
	// Create stores a new session.
	Create(ctx context.Context, s *models.RefreshSession) error

	// Find returns the session with the exact id, or common.ErrorNotFound.
	Find(ctx context.Context, id string) (*models.RefreshSession, error)

	// Delete removes the session and reports whether it existed. Deleting an
	// absent id is (false, nil).
	Delete(ctx context.Context, id string) (bool, error)
}
