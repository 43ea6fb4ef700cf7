package cipher

import (
	"fmt"
	"maps"
)

// KeyProvider supplies versioned AES-256 keys.
type KeyProvider interface {
	// Current returns the version and key used for new encryptions.
	Current() (int, []byte, error)
	// Key returns the key registered for version.
	Key(version int) ([]byte, error)
}

// Keyring is an in-memory KeyProvider. Retired keys stay readable so rows
// written under an older encryption_version can still be opened.
type Keyring struct {
	current int
	keys    map[int][]byte
}

// NewKeyring builds a keyring whose current key is keys[current].
func NewKeyring(current int, keys map[int][]byte) (*Keyring, error) {
	if _, ok := keys[current]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKeyVersion, current)
	}
	for v, k := range keys {
		if len(k) != aesKeyLen {
			return nil, fmt.Errorf("cipher: key version %d has %d bytes (want %d): %w", v, len(k), aesKeyLen, ErrInvalidKeyLength)
		}
	}

	return &Keyring{current: current, keys: maps.Clone(keys)}, nil
}

// Current returns the active key.
func (r *Keyring) Current() (int, []byte, error) {
	k, err := r.Key(r.current)
	return r.current, k, err
}

// Key returns a copy of the key for version.
func (r *Keyring) Key(version int) ([]byte, error) {
	k, ok := r.keys[version]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKeyVersion, version)
	}
	out := make([]byte, len(k))
	copy(out, k)
	return out, nil
}
