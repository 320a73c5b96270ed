package auth

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/sha3"
)

// TimestampSkew is the anti-replay window around server time a signed
// timestamp must fall into.
const TimestampSkew = 5 * time.Minute

// signaturePrefix is the personal-message prefix applied before hashing.
const signaturePrefix = "\x19Ethereum Signed Message:\n"

// hashMessage returns the keccak-256 digest of the prefixed message.
func hashMessage(message string) []byte {
	h := sha3.NewLegacyKeccak256()
	fmt.Fprintf(h, "%s%d%s", signaturePrefix, len(message), message)
	return h.Sum(nil)
}

// RecoverPublicKey recovers the uncompressed secp256k1 public key (hex, no
// 0x prefix) from a 65-byte r||s||v signature over message.
func RecoverPublicKey(message string, signature []byte) (string, error) {
	if len(signature) != 65 {
		return "", fmt.Errorf("%w: signature must be 65 bytes, got %d", ErrInvalidSignature, len(signature))
	}

	// Recovery id comes last on the wire; RecoverCompact wants it first.
	header := signature[64]
	if header < 27 {
		header += 27
	}
	compact := make([]byte, 65)
	compact[0] = header
	copy(compact[1:], signature[:64])

	pub, _, err := ecdsa.RecoverCompact(compact, hashMessage(message))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	return hex.EncodeToString(pub.SerializeUncompressed()), nil
}

// AddressFromPublicKey derives the account address from an uncompressed
// public key: the last 20 bytes of the keccak-256 of the key material.
func AddressFromPublicKey(publicKey string) (string, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(publicKey), "0x"))
	if err != nil {
		return "", fmt.Errorf("decode public key: %w", err)
	}
	if len(raw) != 65 || raw[0] != 0x04 {
		return "", fmt.Errorf("public key must be 65 bytes uncompressed, got %d", len(raw))
	}

	h := sha3.NewLegacyKeccak256()
	h.Write(raw[1:])
	sum := h.Sum(nil)
	return "0x" + hex.EncodeToString(sum[12:]), nil
}

// VerifySignedTimestamp checks that signature is a valid recoverable
// signature over isoTimestamp made by publicKey, and that the timestamp is
// within the anti-replay window around now.
func VerifySignedTimestamp(publicKey, isoTimestamp string, signature []byte, now time.Time) error {
	ts, err := time.Parse(time.RFC3339, isoTimestamp)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp: %v", ErrInvalidSignature, err)
	}

	drift := now.Sub(ts)
	if drift < -TimestampSkew || drift > TimestampSkew {
		return fmt.Errorf("%w: timestamp outside replay window", ErrInvalidSignature)
	}

	recovered, err := RecoverPublicKey(isoTimestamp, signature)
	if err != nil {
		return err
	}

	if !strings.EqualFold(strings.TrimPrefix(publicKey, "0x"), recovered) {
		return fmt.Errorf("%w: recovered key mismatch", ErrInvalidSignature)
	}

	return nil
}
