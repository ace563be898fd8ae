package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// HashString returns a hex-encoded SHA-256 hash for verification-token
// storage, so a database leak does not expose usable tokens.
func HashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// NewTokenValue generates an opaque random verification-token value.
func NewTokenValue() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
