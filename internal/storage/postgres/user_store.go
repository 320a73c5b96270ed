package postgres

import (
	"context"
	"fmt"
	"strings"

	"wallet-backend/internal/domain"
	"wallet-backend/internal/storage"
)

// UserStore implements storage.UserStore using PostgreSQL.
type UserStore struct {
	pool *Pool
}

// NewUserStore creates a new UserStore.
func NewUserStore(pool *Pool) *UserStore {
	return &UserStore{pool: pool}
}

// Compile-time interface check.
var _ storage.UserStore = (*UserStore)(nil)

// GetByPublicKey retrieves a user by normalized public key.
func (s *UserStore) GetByPublicKey(ctx context.Context, publicKey string) (*domain.User, error) {
	query := `
		SELECT public_key, address, created_at
		FROM users
		WHERE public_key = $1
	`

	var u domain.User
	row := s.pool.QueryRow(ctx, query, strings.ToLower(publicKey))
	if err := row.Scan(&u.PublicKey, &u.Address, &u.CreatedAt); err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get user by public key: %w", err)
	}
	return &u, nil
}

// Insert adds a new user. Returns ErrDuplicateKey if the key already exists.
func (s *UserStore) Insert(ctx context.Context, u *domain.User) error {
	if u == nil || u.PublicKey == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO users (public_key, address, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := s.pool.Exec(ctx, query,
		strings.ToLower(u.PublicKey),
		u.Address,
		u.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}
