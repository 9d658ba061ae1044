// Package password hashes and verifies user passwords.
//
// Hash always uses a salted, adaptive algorithm, so hashing the same password
// twice gives two different strings that both verify. Every password can be
// hashed, including the empty one and ones past bcrypt's 72 byte limit.
// Verify never panics and reports false for any hash it cannot parse.
package password

import (
	"errors"
	"fmt"
)

const (
	AlgorithmBcrypt = "bcrypt"
	AlgorithmArgon2 = "argon2id"
)

var ErrUnknownAlgorithm = errors.New("unknown password hashing algorithm")

// Hasher is the password hashing contract.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(hashed string, password string) bool
}

// New returns the hasher for algorithm. bcryptCost is ignored for argon2id;
// a cost outside bcrypt's range falls back to bcrypt.DefaultCost.
func New(algorithm string, bcryptCost int) (Hasher, error) {
	switch algorithm {
	case "", AlgorithmBcrypt:
		return NewBcrypt(bcryptCost), nil
	case AlgorithmArgon2:
		return NewArgon2(DefaultArgon2Config()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
}

// Multi hashes with its first Hasher and verifies against any of them, so
// existing hashes keep working after the algorithm is switched.
type Multi []Hasher

func (m Multi) Hash(password string) (string, error) {
	if len(m) == 0 {
		return "", ErrUnknownAlgorithm
	}
	return m[0].Hash(password)
}

func (m Multi) Verify(hashed string, password string) bool {
	for _, h := range m {
		if h.Verify(hashed, password) {
			return true
		}
	}
	return false
}
