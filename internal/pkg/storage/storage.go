// Package storage resolves object keys held by medicore rows (consultation
// attachments) against a blob store and hands out short-lived download URLs.
//
// Uploading the binary itself happens outside this service; the adapters only
// need to confirm an object exists and sign a URL for it.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

var (
	// ErrMissingSigner indicates signed URL support is not configured.
	ErrMissingSigner = errors.New("storage: signed url signer not configured")

	// ErrObjectNotFound is returned when the key does not exist in the bucket.
	ErrObjectNotFound = errors.New("storage: object not found")

	// ErrInvalidKey is returned for empty keys or keys that try to escape their prefix.
	ErrInvalidKey = errors.New("storage: invalid object key")
)

// Storage is the subset of object storage the application relies on.
type Storage interface {
	io.Closer

	// PutObject stores data under key.
	PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error)
	// StatObject returns metadata or ErrObjectNotFound.
	StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error)
	// DeleteObject removes the object. Missing objects are not an error.
	DeleteObject(ctx context.Context, bucket, key string) error
	// PresignGet returns a URL that downloads key until expiry elapses.
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// PutOptions configures upload behavior.
type PutOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes object metadata.
type ObjectInfo struct {
	Bucket      string
	Key         string
	Size        int64
	ETag        string
	ContentType string
	Metadata    map[string]string
	UpdatedAt   time.Time
}

// CleanKey trims a client-supplied object key and rejects traversal.
func CleanKey(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." {
			return "", ErrInvalidKey
		}
	}
	return key, nil
}
