// Package crypto hashes account passwords with Argon2id.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/argon2"
)

// SaltLen is the length of a freshly generated salt.
const SaltLen = 16

// Params are Argon2id cost parameters.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
}

// DefaultParams are used by the record-store server.
var DefaultParams = Params{Time: 3, Memory: 64 * 1024, Threads: 1, KeyLen: 32}

// ErrEmptyPassword is returned when hashing an empty password.
var ErrEmptyPassword = errors.New("empty password")

// Hasher derives and checks password hashes.
type Hasher struct{ p Params }

// NewHasher returns a Hasher; zero params fall back to DefaultParams.
func NewHasher(p Params) *Hasher {
	if p.Time == 0 || p.Memory == 0 || p.KeyLen == 0 {
		p = DefaultParams
	}
	if p.Threads == 0 {
		p.Threads = 1
	}
	return &Hasher{p: p}
}

// NewSalt returns SaltLen random bytes.
func NewSalt() ([]byte, error) {
	b := make([]byte, SaltLen)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Hash generates a salt and returns the derived key together with it.
func (h *Hasher) Hash(password string) (hash, salt []byte, err error) {
	if password == "" {
		return nil, nil, ErrEmptyPassword
	}
	salt, err = NewSalt()
	if err != nil {
		return nil, nil, err
	}
	return h.derive(password, salt), salt, nil
}

// Verify reports whether password matches the stored hash and salt.
func (h *Hasher) Verify(password string, salt, expected []byte) bool {
	if password == "" || len(expected) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(h.derive(password, salt), expected) == 1
}

func (h *Hasher) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, h.p.Time, h.p.Memory, h.p.Threads, h.p.KeyLen)
}
