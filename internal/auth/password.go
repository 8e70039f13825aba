package auth

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Password schemes.
const (
	SchemeMD5    = "md5"
	SchemeBcrypt = "bcrypt"
)

// Hasher hashes new passwords with the configured scheme. Verification
// accepts both schemes, so existing MD5 hashes keep working after a switch
// to bcrypt.
type Hasher struct {
	scheme string
	cost   int
}

func NewHasher(scheme string) (*Hasher, error) {
	switch scheme {
	case SchemeMD5, SchemeBcrypt:
	default:
		return nil, fmt.Errorf("auth: unknown password scheme %q", scheme)
	}
	return &Hasher{scheme: scheme, cost: bcrypt.DefaultCost}, nil
}

// Hash returns the stored form of password.
func (h *Hasher) Hash(password string) (string, error) {
	if h.scheme == SchemeBcrypt {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
		if err != nil {
			return "", fmt.Errorf("auth: bcrypt: %w", err)
		}
		return string(hashed), nil
	}
	return md5Hex(password), nil
}

// Verify reports whether password matches the stored hash.
func (h *Hasher) Verify(hash, password string) bool {
	if strings.HasPrefix(hash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(hash), []byte(md5Hex(password))) == 1
}

// md5Hex is the unsalted lowercase hex digest used by legacy accounts.
func md5Hex(password string) string {
	sum := md5.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}
