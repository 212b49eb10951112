// Package auth provides authentication for the mesh gateway API.
//
// It implements:
//   - Argon2id password hashing in PHC string format
//   - Opaque session tokens (256-bit random, stored as SHA-256 hashes)
//     with a sliding inactivity expiry
//   - SQLite-backed user and token repositories
//   - First-run seeding of an admin account
//
// Tokens are deliberately opaque rather than signed: every authenticated
// request is checked against the token store, so revocation is immediate
// and token lifetime is extended on use.
package auth
