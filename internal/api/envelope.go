package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"wallet-backend/internal/auth"
	"wallet-backend/internal/domain"
	"wallet-backend/internal/resilience"
	"wallet-backend/internal/storage"
)

// envelope is the authenticated request wrapper: a session token plus the
// operation payload.
type envelope[T any] struct {
	SecurityToken string `json:"securityToken"`
	Payload       T      `json:"payload"`
}

// authenticated binds the request envelope and validates its session token.
// On failure it writes the error response and returns ok=false; a missing or
// garbage token gets the same 401 as an expired one.
func authenticated[T any](c *gin.Context, tokens TokenService) (*domain.SessionClaims, T, bool) {
	var req envelope[T]
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidToken.Error()})
		return nil, req.Payload, false
	}

	claims, err := tokens.ValidateToken(req.SecurityToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidToken.Error()})
		return nil, req.Payload, false
	}

	return claims, req.Payload, true
}

// respond writes the authenticated response envelope: caller identity plus
// the operation payload.
func respond(c *gin.Context, claims *domain.SessionClaims, payload interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"publicKey": claims.PublicKey,
		"address":   claims.Address,
		"payload":   payload,
	})
}

// writeError maps domain errors onto HTTP statuses. Anything unrecognized is
// reported as a generic upstream failure without leaking internals.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidSignature), errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, resilience.ErrUnknownChain):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, resilience.ErrNoEndpoint),
		errors.Is(err, resilience.ErrRateLimited),
		errors.Is(err, resilience.ErrMalformedResponse):
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
