package storage

import (
	"context"

	"wallet-backend/internal/domain"
)

// UserStore provides access to wallet-owner records. Public keys are stored
// and looked up in normalized (lowercase hex) form.
type UserStore interface {
	// GetByPublicKey retrieves a user by normalized public key.
	// Returns ErrNotFound if not exists.
	GetByPublicKey(ctx context.Context, publicKey string) (*domain.User, error)

	// Insert adds a new user. Returns ErrDuplicateKey if the public key
	// already exists.
	Insert(ctx context.Context, u *domain.User) error
}
