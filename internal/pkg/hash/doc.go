// Package hash provides helpers for hashing and verifying secrets.
//
// Passwords are stored only as self-describing hash strings (bcrypt or
// argon2id), so the salt and work factor travel with the hash. Verification
// reports a mismatch as false and reserves errors for stored values that are
// not a recognizable hash at all (ErrInvalidCredentialFormat).
package hash
