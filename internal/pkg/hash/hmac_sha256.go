package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 derives keyed fingerprints: stable hex digests that let a value
// be logged, compared or used as a cache key without revealing it.
type HMACSHA256 struct {
	key []byte
}

func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{key: []byte(secret)}
}

// Sum returns the 64-character hex fingerprint of value.
func (h *HMACSHA256) Sum(value string) string {
	return hex.EncodeToString(h.mac(value))
}

// Equal reports in constant time whether fingerprint was derived from value.
func (h *HMACSHA256) Equal(fingerprint, value string) bool {
	raw, err := hex.DecodeString(fingerprint)
	if err != nil {
		return false
	}
	return hmac.Equal(raw, h.mac(value))
}

func (h *HMACSHA256) mac(value string) []byte {
	m := hmac.New(sha256.New, h.key)
	m.Write([]byte(value))
	return m.Sum(nil)
}
