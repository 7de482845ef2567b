// Package users declares the user store contract and its Postgres and
// in-memory implementations.
package users

import (
	"context"

	"github.com/dmitrijs2005/notesauth/internal/server/models"
)

type Repository interface {
	// Create inserts user, assigning an ID when empty. A taken login yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByLogin returns common.ErrorNotFound when no user has login.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	// GetUserByID returns common.ErrorNotFound when no user has id.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ExistsByLogin(ctx context.Context, login string) (bool, error)
}
