package domain

import "time"

// User is a wallet owner, identified by the public key that signed in.
// PublicKey is stored in normalized (lowercase hex) form.
type User struct {
	PublicKey string
	Address   string
	CreatedAt time.Time
}

// SessionClaims is the payload wrapped by an encrypted session token.
type SessionClaims struct {
	PublicKey string    `json:"publicKey"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}
