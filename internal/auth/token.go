package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// tokenBytes is the token entropy: 256 bits, hex encoded to 64 chars.
const tokenBytes = 32

// NewToken returns a random bearer token.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
