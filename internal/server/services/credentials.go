package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/notesauth/internal/common"
	"github.com/dmitrijs2005/notesauth/internal/cryptox"
	"github.com/dmitrijs2005/notesauth/internal/server/models"
	"github.com/dmitrijs2005/notesauth/internal/server/repositories/repomanager"
)

// CredentialVerifier checks a login and secret against the user store.
type CredentialVerifier struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      cryptox.PasswordHasher
	dummyHash   string
}

// NewCredentialVerifier builds a verifier. It hashes a throwaway secret once
// so that lookups of unknown logins cost as much as real verifications.
func NewCredentialVerifier(db *sql.DB, m repomanager.RepositoryManager, h cryptox.PasswordHasher) (*CredentialVerifier, error) {
	dummy, err := h.Hash("notesauth-dummy-secret")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &CredentialVerifier{db: db, repomanager: m, hasher: h, dummyHash: dummy}, nil
}

// Authenticate returns the user when secret matches. Unknown login and wrong
// secret both yield (nil, nil); only infrastructure faults return an error.
func (v *CredentialVerifier) Authenticate(ctx context.Context, login, secret string) (*models.User, error) {
	user, err := v.repomanager.Users(v.db).GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = v.hasher.Verify(v.dummyHash, secret)
			return nil, nil
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := v.hasher.Verify(user.PasswordHash, secret)
	if err != nil {
		// a malformed stored hash is a rejection, not a fault
		if errors.Is(err, cryptox.ErrInvalidHash) {
			return nil, nil
		}
		return nil, fmt.Errorf("verify secret: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return user, nil
}
