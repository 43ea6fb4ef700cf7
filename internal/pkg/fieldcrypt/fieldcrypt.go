// Package fieldcrypt encrypts individual persisted fields at the repository
// boundary. Each encrypted column holds the JSON text of a cipher.Blob and each
// row records the key version in its encryption_version column.
package fieldcrypt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shandysiswandi/medicore/internal/pkg/cipher"
)

// Adapter seals and opens field values through a Cipher.
type Adapter struct {
	cipher cipher.Cipher
}

// New returns an Adapter over c.
func New(c cipher.Cipher) *Adapter {
	return &Adapter{cipher: c}
}

type readOptions struct {
	softFail bool
	field    string
}

// ReadOption changes how a field is opened.
type ReadOption func(*readOptions)

// WithSoftFail makes a failed decryption return the zero value instead of an
// error. Use it only for known-corrupted legacy rows; the failure is still logged.
func WithSoftFail() ReadOption {
	return func(o *readOptions) { o.softFail = true }
}

// WithField names the field in log lines.
func WithField(name string) ReadOption {
	return func(o *readOptions) { o.field = name }
}

// Version reports the key version new values are sealed with.
func (a *Adapter) Version() int {
	return a.cipher.Version()
}

// EncryptString seals s and returns the column text.
func (a *Adapter) EncryptString(s string) (string, error) {
	blob, err := a.cipher.Encrypt(s)
	if err != nil {
		return "", fmt.Errorf("fieldcrypt: encrypt: %w", err)
	}
	return blob.String(), nil
}

// EncryptJSON marshals v and seals the JSON text.
func (a *Adapter) EncryptJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("fieldcrypt: marshal: %w", err)
	}
	return a.EncryptString(string(raw))
}

// DecryptString opens column text sealed under key version.
func (a *Adapter) DecryptString(ctx context.Context, text string, version int, opts ...ReadOption) (string, error) {
	o := newReadOptions(opts)

	out, err := a.open(text, version)
	if err != nil {
		return "", a.fail(ctx, o, version, err)
	}
	return out, nil
}

// DecryptJSON opens column text and unmarshals the JSON into dst.
func (a *Adapter) DecryptJSON(ctx context.Context, text string, version int, dst any, opts ...ReadOption) error {
	o := newReadOptions(opts)

	out, err := a.open(text, version)
	if err != nil {
		return a.fail(ctx, o, version, err)
	}
	if err := json.Unmarshal([]byte(out), dst); err != nil {
		return a.fail(ctx, o, version, fmt.Errorf("%w: %w", cipher.ErrDecryption, err))
	}
	return nil
}

func (a *Adapter) open(text string, version int) (string, error) {
	blob, err := cipher.ParseBlob(text)
	if err != nil {
		return "", err
	}
	return a.cipher.DecryptVersion(blob, version)
}

func (a *Adapter) fail(ctx context.Context, o readOptions, version int, err error) error {
	if !errors.Is(err, cipher.ErrDecryption) {
		return fmt.Errorf("fieldcrypt: decrypt: %w", err)
	}
	if o.softFail {
		slog.WarnContext(ctx, "encrypted field could not be decrypted, returning empty value",
			"field", o.field, "encryption_version", version, "error", err)
		return nil
	}
	return fmt.Errorf("fieldcrypt: decrypt %s: %w", o.field, err)
}

func newReadOptions(opts []ReadOption) readOptions {
	var o readOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
