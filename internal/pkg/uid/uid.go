// Package uid generates identifiers: snowflake numbers for row keys and
// UUIDv7 strings for token IDs and correlation IDs.
package uid

// NumberID generates unique 64-bit identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}
