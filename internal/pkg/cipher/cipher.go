package cipher

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	// ErrDecryption indicates the blob could not be authenticated or decoded.
	ErrDecryption = errors.New("cipher: decryption failed")
	// ErrInvalidKeyLength indicates the key is not 32 bytes long.
	ErrInvalidKeyLength = errors.New("cipher: invalid key length")
	// ErrUnknownKeyVersion indicates no key is registered for the requested version.
	ErrUnknownKeyVersion = errors.New("cipher: unknown key version")
)

// Cipher encrypts and decrypts strings and issues wrapped key pairs.
type Cipher interface {
	// Encrypt seals plaintext with the current key.
	Encrypt(plaintext string) (Blob, error)
	// Decrypt opens a blob sealed with the current key.
	Decrypt(blob Blob) (string, error)
	// DecryptVersion opens a blob sealed with the key of the given version.
	DecryptVersion(blob Blob, version int) (string, error)
	// GenerateKeyPair returns a public key and an encrypted private key.
	GenerateKeyPair() (KeyPair, error)
	// Version reports the key version used by Encrypt.
	Version() int
}

// Blob is the persisted form of an encrypted value.
type Blob struct {
	Encrypted string `json:"encrypted"`
	AuthTag   string `json:"authTag"`
	IV        string `json:"iv"`
}

// String returns the JSON text stored in encrypted columns.
func (b Blob) String() string {
	out, err := json.Marshal(b)
	if err != nil {
		return ""
	}
	return string(out)
}

// ParseBlob decodes the JSON text of an encrypted column.
func ParseBlob(s string) (Blob, error) {
	var b Blob
	dec := json.NewDecoder(strings.NewReader(s))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return Blob{}, ErrDecryption
	}
	if b.AuthTag == "" || b.IV == "" {
		return Blob{}, ErrDecryption
	}
	return b, nil
}

// KeyPair holds a PEM public key and the wrapped PEM private key.
type KeyPair struct {
	PublicKey  string
	PrivateKey Blob
}
