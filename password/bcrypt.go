package password

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// prehashPrefix marks bcrypt hashes of base64(sha256(password)), used for
// passwords longer than bcrypt's 72 byte input limit.
const prehashPrefix = "$bcrypt-sha256$"

const maxBcryptInput = 72

// Bcrypt hashes with bcrypt; the salt is embedded in the output.
type Bcrypt struct {
	cost int
}

func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash accepts any password, the empty one included. Inputs over 72 bytes are
// digested first so no byte past the limit is ignored.
func (b *Bcrypt) Hash(password string) (string, error) {
	input, prefix := []byte(password), ""
	if len(input) > maxBcryptInput {
		input, prefix = prehash(password), prehashPrefix
	}
	bts, err := bcrypt.GenerateFromPassword(input, b.cost)
	if err != nil {
		return "", err
	}
	return prefix + string(bts), nil
}

func (b *Bcrypt) Verify(hashed string, password string) bool {
	input := []byte(password)
	if rest, ok := strings.CutPrefix(hashed, prehashPrefix); ok {
		hashed, input = rest, prehash(password)
	}
	err := bcrypt.CompareHashAndPassword([]byte(hashed), input)
	return err == nil
}

func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}
