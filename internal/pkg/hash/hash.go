package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCredentialFormat indicates a stored hash that cannot be parsed.
var ErrInvalidCredentialFormat = errors.New("hash: invalid credential format")

const (
	// AlgorithmBcrypt selects bcrypt for new hashes.
	AlgorithmBcrypt = "bcrypt"
	// AlgorithmArgon2id selects argon2id for new hashes.
	AlgorithmArgon2id = "argon2id"
)

// Hasher hashes secrets and verifies plaintext against stored hashes.
type Hasher interface {
	// Hash returns the encoded hash of plaintext.
	Hash(plaintext string) ([]byte, error)
	// Verify reports whether plaintext matches hashed.
	Verify(hashed, plaintext string) (bool, error)
}

// Password hashes with one algorithm and verifies any supported format, so a
// change of algorithm keeps previously stored credentials valid.
type Password struct {
	algorithm string
	bcrypt    *Bcrypt
	argon2id  *Argon2id
}

// NewPassword returns a password hasher writing hashes with algorithm.
func NewPassword(algorithm string, bcryptCost int, pepper string) (*Password, error) {
	switch algorithm {
	case AlgorithmBcrypt, AlgorithmArgon2id:
	default:
		return nil, fmt.Errorf("hash: unknown algorithm %q", algorithm)
	}

	return &Password{
		algorithm: algorithm,
		bcrypt:    NewBcrypt(bcryptCost, pepper),
		argon2id:  NewArgon2id(pepper),
	}, nil
}

// Hash hashes plaintext with the configured algorithm.
func (p *Password) Hash(plaintext string) ([]byte, error) {
	if p.algorithm == AlgorithmArgon2id {
		return p.argon2id.Hash(plaintext)
	}
	return p.bcrypt.Hash(plaintext)
}

// Verify dispatches on the stored hash prefix.
func (p *Password) Verify(hashed, plaintext string) (bool, error) {
	switch {
	case isBcrypt(hashed):
		return p.bcrypt.Verify(hashed, plaintext)
	case strings.HasPrefix(hashed, "$argon2id$"):
		return p.argon2id.Verify(hashed, plaintext)
	default:
		return false, ErrInvalidCredentialFormat
	}
}

// NeedsRehash reports whether hashed was produced with a different algorithm
// or bcrypt cost than new hashes would use.
func (p *Password) NeedsRehash(hashed string) bool {
	if p.algorithm == AlgorithmArgon2id {
		return !strings.HasPrefix(hashed, "$argon2id$")
	}
	if !isBcrypt(hashed) {
		return true
	}
	return p.bcrypt.cost != bcryptCost(hashed)
}

func isBcrypt(hashed string) bool {
	return strings.HasPrefix(hashed, "$2a$") || strings.HasPrefix(hashed, "$2b$") || strings.HasPrefix(hashed, "$2y$")
}

// peppered keys the plaintext with the pepper. The HMAC output has a fixed
// length, which keeps long passwords inside bcrypt's 72-byte input limit.
func peppered(plaintext, pepper string) []byte {
	if pepper == "" {
		return []byte(plaintext)
	}
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(plaintext))
	return []byte(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}
