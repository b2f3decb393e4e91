// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ResetTokenExpiry is the default lifetime of a reset token.
const ResetTokenExpiry = time.Hour

// ResetToken is a persisted reset token. Only the SHA-256 of the plaintext
// token is stored.
type ResetToken struct {
	ID        ulid.ULID
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewResetToken creates a ResetToken with a fresh ID.
func NewResetToken(userID, tokenHash string, expiresAt time.Time) (*ResetToken, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, oops.Code("RESET_INVALID_USER").Errorf("user id cannot be empty")
	}
	if tokenHash == "" {
		return nil, oops.Code("RESET_INVALID_TOKEN_HASH").Errorf("token hash cannot be empty")
	}
	now := time.Now()
	if !expiresAt.After(now) {
		return nil, oops.Code("RESET_INVALID_EXPIRY").
			With("expires_at", expiresAt).
			Errorf("expiry must be in the future")
	}
	return &ResetToken{
		ID:        ulid.Make(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}

// IsExpired returns true if the token has expired.
func (r *ResetToken) IsExpired() bool {
	return r.IsExpiredAt(time.Now())
}

// IsExpiredAt returns true if the token has expired at now.
func (r *ResetToken) IsExpiredAt(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// HashResetToken computes the hex SHA-256 of a plaintext token.
func HashResetToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// VerifyResetToken checks a plaintext token against a stored hash in
// constant time.
func VerifyResetToken(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(HashResetToken(token)), []byte(hash)) == 1
}

// ResetTokenRepository is the external reset-token store.
type ResetTokenRepository interface {
	// Create stores a new token. Returns an error wrapping ErrTokenCollision
	// if the token hash already exists.
	Create(ctx context.Context, token *ResetToken) error

	// GetByTokenHash retrieves a token by hash. Returns ErrNotFound if absent.
	GetByTokenHash(ctx context.Context, tokenHash string) (*ResetToken, error)

	// DeleteByUser removes every token for userID and returns how many were
	// removed. Zero is not an error.
	DeleteByUser(ctx context.Context, userID string) (int64, error)

	// DeleteExpired removes every expired token and returns the count.
	DeleteExpired(ctx context.Context) (int64, error)
}
