package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverS3     = "s3"
	DriverGCS    = "gcs"
	DriverMinIO  = "minio"
)

var ErrUnknownDriver = errors.New("storage: unknown driver")

// Options selects a backend by Driver and carries the settings of every
// backend; only the selected one is read.
type Options struct {
	Driver string
	S3     S3Options
	GCS    GCSOptions
	MinIO  MinIOOptions
	// MemoryBaseURL prefixes URLs returned by the in-memory store.
	MemoryBaseURL string
}

var openers = map[string]func(context.Context, Options) (Storage, error){
	DriverS3:    func(ctx context.Context, o Options) (Storage, error) { return NewS3(ctx, o.S3) },
	DriverGCS:   func(ctx context.Context, o Options) (Storage, error) { return NewGCS(ctx, o.GCS) },
	DriverMinIO: func(_ context.Context, o Options) (Storage, error) { return NewMinIO(o.MinIO) },
	DriverMemory: func(_ context.Context, o Options) (Storage, error) {
		base := o.MemoryBaseURL
		if base == "" {
			base = "http://localhost/objects"
		}
		return NewMemory(base), nil
	},
}

// Open builds the Storage named by opts.Driver. An empty driver means memory.
func Open(ctx context.Context, opts Options) (Storage, error) {
	name := strings.ToLower(strings.TrimSpace(opts.Driver))
	if name == "" {
		name = DriverMemory
	}

	open, ok := openers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
	return open(ctx, opts)
}
