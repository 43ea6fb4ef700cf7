package cipher_test

import (
	"bytes"
	"crypto/rsa"
	"encoding/hex"
	"testing"

	"github.com/shandysiswandi/medicore/internal/pkg/cipher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCipher(t *testing.T, opts ...cipher.Option) *cipher.AESGCM {
	t.Helper()

	ring, err := cipher.NewKeyring(1, map[int][]byte{
		1: bytes.Repeat([]byte{0x11}, 32),
		2: bytes.Repeat([]byte{0x22}, 32),
	})
	require.NoError(t, err)

	return cipher.NewAESGCM(ring, opts...)
}

func TestAESGCM_RoundTrip(t *testing.T) {
	c := newTestCipher(t)

	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "ascii", input: "Hypertension, stage 2"},
		{name: "unicode", input: "診断: 高血圧 🩺 — naïve café"},
		{name: "punctuation", input: `{"a":"b"}\n\t\x00'";--<script>`},
		{name: "long", input: string(bytes.Repeat([]byte("abc"), 4096))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := c.Encrypt(tt.input)
			require.NoError(t, err)

			got, err := c.Decrypt(blob)
			require.NoError(t, err)
			assert.Equal(t, tt.input, got)
		})
	}
}

func TestAESGCM_EncryptIsNonDeterministic(t *testing.T) {
	c := newTestCipher(t)

	a, err := c.Encrypt("same input")
	require.NoError(t, err)
	b, err := c.Encrypt("same input")
	require.NoError(t, err)

	assert.NotEqual(t, a.IV, b.IV)
	assert.NotEqual(t, a.Encrypted, b.Encrypted)
}

func TestAESGCM_DecryptFailsClosed(t *testing.T) {
	c := newTestCipher(t)

	blob, err := c.Encrypt("blood type: O-")
	require.NoError(t, err)

	flip := func(s string) string {
		raw, err := hex.DecodeString(s)
		require.NoError(t, err)
		raw[0] ^= 0xff
		return hex.EncodeToString(raw)
	}

	tests := []struct {
		name string
		blob cipher.Blob
	}{
		{name: "tampered tag", blob: cipher.Blob{Encrypted: blob.Encrypted, AuthTag: flip(blob.AuthTag), IV: blob.IV}},
		{name: "tampered ciphertext", blob: cipher.Blob{Encrypted: flip(blob.Encrypted), AuthTag: blob.AuthTag, IV: blob.IV}},
		{name: "tampered iv", blob: cipher.Blob{Encrypted: blob.Encrypted, AuthTag: blob.AuthTag, IV: flip(blob.IV)}},
		{name: "truncated ciphertext", blob: cipher.Blob{Encrypted: blob.Encrypted[:4], AuthTag: blob.AuthTag, IV: blob.IV}},
		{name: "truncated tag", blob: cipher.Blob{Encrypted: blob.Encrypted, AuthTag: blob.AuthTag[:10], IV: blob.IV}},
		{name: "short iv", blob: cipher.Blob{Encrypted: blob.Encrypted, AuthTag: blob.AuthTag, IV: "00"}},
		{name: "non hex", blob: cipher.Blob{Encrypted: "zz", AuthTag: blob.AuthTag, IV: blob.IV}},
		{name: "empty", blob: cipher.Blob{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Decrypt(tt.blob)
			assert.ErrorIs(t, err, cipher.ErrDecryption)
			assert.Empty(t, got)
		})
	}
}

func TestAESGCM_DecryptWithOtherKeyFails(t *testing.T) {
	c := newTestCipher(t)

	blob, err := c.Encrypt("allergy: penicillin")
	require.NoError(t, err)

	_, err = c.DecryptVersion(blob, 2)
	assert.ErrorIs(t, err, cipher.ErrDecryption)

	_, err = c.DecryptVersion(blob, 9)
	assert.ErrorIs(t, err, cipher.ErrDecryption)

	got, err := c.DecryptVersion(blob, 1)
	require.NoError(t, err)
	assert.Equal(t, "allergy: penicillin", got)
	assert.Equal(t, 1, c.Version())
}

func TestBlob_StringAndParse(t *testing.T) {
	c := newTestCipher(t)

	blob, err := c.Encrypt("note")
	require.NoError(t, err)

	text := blob.String()
	assert.Contains(t, text, `"authTag"`)
	assert.Contains(t, text, `"iv"`)
	assert.Contains(t, text, `"encrypted"`)

	parsed, err := cipher.ParseBlob(text)
	require.NoError(t, err)
	assert.Equal(t, blob, parsed)

	_, err = cipher.ParseBlob(text[:len(text)-5])
	assert.ErrorIs(t, err, cipher.ErrDecryption)

	_, err = cipher.ParseBlob(`{"encrypted":"00"}`)
	assert.ErrorIs(t, err, cipher.ErrDecryption)
}

func TestAESGCM_GenerateKeyPair(t *testing.T) {
	c := newTestCipher(t, cipher.WithRSABits(2048))

	kp, err := c.GenerateKeyPair()
	require.NoError(t, err)

	assert.Contains(t, kp.PublicKey, "BEGIN PUBLIC KEY")
	assert.NotContains(t, kp.PrivateKey.Encrypted, "PRIVATE KEY")

	priv, err := cipher.ParsePrivateKey(c, kp.PrivateKey, c.Version())
	require.NoError(t, err)
	assert.Equal(t, 2048, priv.N.BitLen())
	assert.IsType(t, &rsa.PrivateKey{}, priv)
}

func TestNewKeyring_Validation(t *testing.T) {
	_, err := cipher.NewKeyring(1, map[int][]byte{1: []byte("short")})
	assert.ErrorIs(t, err, cipher.ErrInvalidKeyLength)

	_, err = cipher.NewKeyring(3, map[int][]byte{1: bytes.Repeat([]byte{1}, 32)})
	assert.ErrorIs(t, err, cipher.ErrUnknownKeyVersion)
}
