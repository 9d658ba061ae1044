package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2Config holds argon2id parameters.
type Argon2Config struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func DefaultArgon2Config() Argon2Config {
	return Argon2Config{
		Memory:      64 * 1024,
		Time:        1,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2 produces PHC strings: $argon2id$v=19$m=65536,t=1,p=2$<salt>$<hash>.
type Argon2 struct {
	config Argon2Config
}

func NewArgon2(cfg Argon2Config) *Argon2 {
	return &Argon2{config: cfg}
}

func (a *Argon2) Hash(password string) (string, error) {
	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, a.config.Time, a.config.Memory, a.config.Parallelism, a.config.KeyLength)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		AlgorithmArgon2,
		argon2.Version,
		a.config.Memory,
		a.config.Time,
		a.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func (a *Argon2) Verify(hashed string, password string) bool {
	p, err := parsePHC(hashed)
	if err != nil {
		return false
	}
	computed := argon2.IDKey([]byte(password), p.salt, p.time, p.memory, p.parallelism, uint32(len(p.hash)))
	return subtle.ConstantTimeCompare(computed, p.hash) == 1
}

type phc struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

// Verify refuses parameters beyond these: 256 MiB and 16 passes.
const (
	maxArgon2Memory = 256 * 1024
	maxArgon2Time   = 16
)

var errInvalidPHC = errors.New("invalid argon2id hash")

func parsePHC(encoded string) (phc, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != AlgorithmArgon2 {
		return phc{}, errInvalidPHC
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return phc{}, errInvalidPHC
	}

	var p phc
	for _, kv := range strings.Split(parts[3], ",") {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return phc{}, errInvalidPHC
		}
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil || n == 0 {
			return phc{}, errInvalidPHC
		}
		switch key {
		case "m":
			p.memory = uint32(n)
		case "t":
			p.time = uint32(n)
		case "p":
			if n > 255 {
				return phc{}, errInvalidPHC
			}
			p.parallelism = uint8(n)
		default:
			return phc{}, errInvalidPHC
		}
	}
	if p.memory == 0 || p.time == 0 || p.parallelism == 0 {
		return phc{}, errInvalidPHC
	}
	if p.memory > maxArgon2Memory || p.time > maxArgon2Time {
		return phc{}, errInvalidPHC
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(p.salt) == 0 {
		return phc{}, errInvalidPHC
	}
	if p.hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.hash) == 0 {
		return phc{}, errInvalidPHC
	}
	return p, nil
}
