// Package jwt issues and verifies the JSON Web Tokens used by the API.
//
// It includes:
//   - Access and refresh tokens, each signed with its own HS512 secret.
//   - Single-purpose tokens (password reset, pending 2FA, 2FA setup) signed
//     with a third secret and bound to a purpose tag.
//   - Context helpers for storing and retrieving authenticated claims.
package jwt
