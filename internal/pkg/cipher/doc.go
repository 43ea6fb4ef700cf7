// Package cipher provides authenticated symmetric encryption of strings and
// per-user asymmetric key material.
//
// Encrypt produces a Blob of hex-encoded ciphertext, GCM tag and IV. The IV is
// drawn fresh for every call, so encrypting the same plaintext twice yields two
// different blobs. Decrypt fails closed with ErrDecryption on any tampering,
// key mismatch or malformed field; it never returns partial plaintext.
package cipher
