package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// LegacySHA256 verifies unsalted hex sha256 digests written by older deployments.
// It cannot hash.
//
// Deprecated: sha256 without salt is not a password hash. Verify old records
// with it inside a Multi and rehash them with Bcrypt or Argon2 on login.
type LegacySHA256 struct{}

func (LegacySHA256) Hash(string) (string, error) {
	return "", ErrUnknownAlgorithm
}

func (LegacySHA256) Verify(hashed string, password string) bool {
	if len(hashed) != sha256.Size*2 || password == "" {
		return false
	}
	sum := sha256.Sum256([]byte(password))
	want := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(hashed)), []byte(want)) == 1
}
