package auth

import (
	"errors"
	"time"
)

// AccessRights values for user accounts.
const (
	// AccessUser can list channels, send messages, and read telemetry.
	AccessUser = "user"

	// AccessAdmin can additionally create channels and manage accounts.
	AccessAdmin = "admin"
)

// User represents a gateway account, keyed by email.
type User struct {
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // never serialised
	AccessRights string    `json:"access_rights"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SessionToken represents a stored opaque session token.
// Only the SHA-256 hash of the raw token is persisted.
type SessionToken struct {
	ID        string    `json:"id"`
	TokenHash string    `json:"-"` // never serialised
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Domain errors, checked with errors.Is().
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrUserExists         = errors.New("user already exists")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
)
