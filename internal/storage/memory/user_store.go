package memory

import (
	"context"
	"strings"
	"sync"

	"wallet-backend/internal/domain"
	"wallet-backend/internal/storage"
)

// UserStore is an in-memory implementation of storage.UserStore.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]*domain.User // keyed by normalized public key
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		users: make(map[string]*domain.User),
	}
}

// GetByPublicKey retrieves a user by normalized public key.
func (s *UserStore) GetByPublicKey(_ context.Context, publicKey string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, exists := s.users[strings.ToLower(publicKey)]
	if !exists {
		return nil, storage.ErrNotFound
	}

	userCopy := *u
	return &userCopy, nil
}

// Insert adds a new user. Returns ErrDuplicateKey if the key already exists.
func (s *UserStore) Insert(_ context.Context, u *domain.User) error {
	if u == nil || u.PublicKey == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(u.PublicKey)
	if _, exists := s.users[key]; exists {
		return storage.ErrDuplicateKey
	}

	userCopy := *u
	userCopy.PublicKey = key
	s.users[key] = &userCopy
	return nil
}

var _ storage.UserStore = (*UserStore)(nil)
