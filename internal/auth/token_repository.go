package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// tokenBytes is the number of random bytes in a raw session token (256-bit).
const tokenBytes = 32

// TokenRepository defines the interface for session token persistence.
//
// Tokens use a sliding expiry: Validate extends the expiry window on every
// successful check, so a token expires only after the configured period of
// inactivity.
type TokenRepository interface {
	Issue(ctx context.Context, email string, ttl time.Duration) (raw string, err error)
	Validate(ctx context.Context, raw string, ttl time.Duration) (email string, err error)
	Revoke(ctx context.Context, raw string) error
	RevokeAllForUser(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// SQLiteTokenRepository implements TokenRepository using SQLite.
type SQLiteTokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new SQLite-backed token repository.
func NewTokenRepository(db *sql.DB) *SQLiteTokenRepository {
	return &SQLiteTokenRepository{db: db}
}

// HashToken computes the SHA-256 hash of a raw token string for storage.
// Raw tokens are never stored — only their hashes.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

// Issue generates a new opaque session token for the given account and
// stores its hash. The raw token is returned to the caller exactly once.
func (r *SQLiteTokenRepository) Issue(ctx context.Context, email string, ttl time.Duration) (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	raw := hex.EncodeToString(b)

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO session_tokens (id, token_hash, email, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		"st-"+uuid.NewString()[:16], HashToken(raw), email,
		now.Format(time.RFC3339), now.Add(ttl).Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("storing session token: %w", err)
	}

	return raw, nil
}

// Validate checks a raw token against the store and returns the associated
// email. A valid token has its expiry pushed out by ttl (sliding window).
func (r *SQLiteTokenRepository) Validate(ctx context.Context, raw string, ttl time.Duration) (string, error) {
	if raw == "" {
		return "", ErrTokenInvalid
	}

	var email, expiresAtStr string
	err := r.db.QueryRowContext(ctx,
		"SELECT email, expires_at FROM session_tokens WHERE token_hash = ?",
		HashToken(raw),
	).Scan(&email, &expiresAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrTokenInvalid
		}
		return "", fmt.Errorf("looking up session token: %w", err)
	}

	expiresAt, _ := time.Parse(time.RFC3339, expiresAtStr) //nolint:errcheck // format is controlled
	now := time.Now().UTC()
	if now.After(expiresAt) {
		return "", ErrTokenExpired
	}

	// Sliding expiry: activity keeps the session alive.
	_, err = r.db.ExecContext(ctx,
		"UPDATE session_tokens SET expires_at = ? WHERE token_hash = ?",
		now.Add(ttl).Format(time.RFC3339), HashToken(raw),
	)
	if err != nil {
		return "", fmt.Errorf("extending session token: %w", err)
	}

	return email, nil
}

// Revoke deletes a single token by its raw value.
func (r *SQLiteTokenRepository) Revoke(ctx context.Context, raw string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM session_tokens WHERE token_hash = ?", HashToken(raw))
	if err != nil {
		return fmt.Errorf("revoking session token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrTokenInvalid
	}
	return nil
}

// RevokeAllForUser deletes every token belonging to an account.
func (r *SQLiteTokenRepository) RevokeAllForUser(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM session_tokens WHERE email = ?", email)
	if err != nil {
		return fmt.Errorf("revoking user tokens: %w", err)
	}
	return nil
}

// DeleteExpired removes all tokens past their expiry and returns the count.
// Intended to be run periodically by the process wiring.
func (r *SQLiteTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM session_tokens WHERE expires_at < ?",
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting expired tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}
