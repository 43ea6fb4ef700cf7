package cipher

import (
	"crypto/aes"
	stdcipher "crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

const (
	aesKeyLen    = 32
	gcmNonceSize = 12
	gcmTagSize   = 16
	rsaBits      = 4096
)

// AESGCM implements Cipher using AES-256-GCM.
type AESGCM struct {
	keys    KeyProvider
	rand    io.Reader
	rsaBits int
}

// Option customizes an AESGCM.
type Option func(*AESGCM)

// WithRSABits overrides the RSA modulus size used by GenerateKeyPair.
func WithRSABits(bits int) Option {
	return func(c *AESGCM) { c.rsaBits = bits }
}

// WithRandom overrides the entropy source. Intended for tests.
func WithRandom(r io.Reader) Option {
	return func(c *AESGCM) { c.rand = r }
}

// NewAESGCM constructs an AES-GCM cipher over the given keys.
func NewAESGCM(keys KeyProvider, opts ...Option) *AESGCM {
	c := &AESGCM{keys: keys, rand: rand.Reader, rsaBits: rsaBits}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Version reports the key version used by Encrypt.
func (c *AESGCM) Version() int {
	v, _, err := c.keys.Current()
	if err != nil {
		return 0
	}
	return v
}

// Encrypt seals plaintext under the current key with a fresh IV.
func (c *AESGCM) Encrypt(plaintext string) (Blob, error) {
	_, key, err := c.keys.Current()
	if err != nil {
		return Blob{}, fmt.Errorf("cipher: key provider error: %w", err)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return Blob{}, err
	}

	iv := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(c.rand, iv); err != nil {
		return Blob{}, fmt.Errorf("cipher: iv generation failed: %w", err)
	}

	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	ct, tag := sealed[:len(sealed)-gcmTagSize], sealed[len(sealed)-gcmTagSize:]

	return Blob{
		Encrypted: hex.EncodeToString(ct),
		AuthTag:   hex.EncodeToString(tag),
		IV:        hex.EncodeToString(iv),
	}, nil
}

// Decrypt opens a blob sealed under the current key.
func (c *AESGCM) Decrypt(blob Blob) (string, error) {
	v, _, err := c.keys.Current()
	if err != nil {
		return "", fmt.Errorf("cipher: key provider error: %w", err)
	}
	return c.DecryptVersion(blob, v)
}

// DecryptVersion opens a blob sealed under the key registered for version.
func (c *AESGCM) DecryptVersion(blob Blob, version int) (string, error) {
	key, err := c.keys.Key(version)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecryption, err)
	}

	ct, err := hex.DecodeString(blob.Encrypted)
	if err != nil {
		return "", ErrDecryption
	}
	tag, err := hex.DecodeString(blob.AuthTag)
	if err != nil || len(tag) != gcmTagSize {
		return "", ErrDecryption
	}
	iv, err := hex.DecodeString(blob.IV)
	if err != nil || len(iv) != gcmNonceSize {
		return "", ErrDecryption
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	plain, err := gcm.Open(nil, iv, append(ct, tag...), nil)
	if err != nil {
		// wrong key and tampering are indistinguishable on purpose
		return "", ErrDecryption
	}
	return string(plain), nil
}

func newGCM(key []byte) (stdcipher.AEAD, error) {
	if len(key) != aesKeyLen {
		return nil, fmt.Errorf("cipher: invalid key length %d (want %d): %w", len(key), aesKeyLen, ErrInvalidKeyLength)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: aes init failed: %w", err)
	}
	gcm, err := stdcipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher: gcm init failed: %w", err)
	}
	return gcm, nil
}
