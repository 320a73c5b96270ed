package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"wallet-backend/internal/domain"
	"wallet-backend/internal/observability"
	"wallet-backend/internal/storage"
)

// TokenValidity is the session token lifetime.
const TokenValidity = 30 * 24 * time.Hour

// Service issues and validates session tokens. Tokens are stateless bearer
// credentials; the only server-side effect of issuance is user registration.
type Service struct {
	users   storage.UserStore
	sealer  *Sealer
	logger  *logrus.Logger
	metrics *observability.Metrics

	now func() time.Time // override in tests
}

// NewService creates the auth service.
func NewService(users storage.UserStore, sealer *Sealer, logger *logrus.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		users:   users,
		sealer:  sealer,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// IssueToken verifies a recoverable signature over isoTimestamp, registers
// the caller if unseen, and returns an encrypted session token.
func (s *Service) IssueToken(ctx context.Context, publicKey, isoTimestamp string, signature []byte) (string, error) {
	now := s.now()

	if err := VerifySignedTimestamp(publicKey, isoTimestamp, signature, now); err != nil {
		s.metrics.ObserveAuthRejected("signature")
		return "", err
	}

	address, err := AddressFromPublicKey(publicKey)
	if err != nil {
		s.metrics.ObserveAuthRejected("signature")
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	normalized := strings.ToLower(strings.TrimPrefix(publicKey, "0x"))
	if err := s.registerUser(ctx, normalized, address, now); err != nil {
		return "", err
	}

	token, err := s.sealer.Seal(domain.SessionClaims{
		PublicKey: normalized,
		Address:   address,
		CreatedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("seal session token: %w", err)
	}

	s.metrics.ObserveTokenIssued()
	if s.logger != nil {
		s.logger.WithField("address", address).Info("session token issued")
	}
	return token, nil
}

// registerUser looks up the user and creates the record on first login.
// A concurrent first login may insert the same key; the duplicate is benign.
func (s *Service) registerUser(ctx context.Context, publicKey, address string, now time.Time) error {
	_, err := s.users.GetByPublicKey(ctx, publicKey)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("lookup user: %w", err)
	}

	err = s.users.Insert(ctx, &domain.User{
		PublicKey: publicKey,
		Address:   address,
		CreatedAt: now,
	})
	if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// ValidateToken decrypts token and checks its validity window, returning
// the caller's identity. Any failure maps to ErrInvalidToken.
func (s *Service) ValidateToken(token string) (*domain.SessionClaims, error) {
	claims, err := s.sealer.Open(token)
	if err != nil {
		s.metrics.ObserveAuthRejected("token")
		return nil, err
	}

	now := s.now()
	if claims.CreatedAt.After(now) {
		// A creation time in the future means tampering or clock skew.
		s.metrics.ObserveAuthRejected("token")
		return nil, ErrInvalidToken
	}
	if now.Sub(claims.CreatedAt) > TokenValidity {
		s.metrics.ObserveAuthRejected("token")
		return nil, ErrInvalidToken
	}

	return claims, nil
}
