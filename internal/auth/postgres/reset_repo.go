// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/passcode/internal/auth"
)

// ResetTokenRepository implements auth.ResetTokenRepository using PostgreSQL.
type ResetTokenRepository struct {
	db  DB
	now func() time.Time
}

// NewResetTokenRepository creates a new ResetTokenRepository.
func NewResetTokenRepository(db DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db, now: time.Now}
}

// Create stores a new reset token. A duplicate token hash is reported as
// auth.ErrTokenCollision.
func (r *ResetTokenRepository) Create(ctx context.Context, token *auth.ResetToken) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO reset_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, token.ID.String(), token.UserID, token.TokenHash, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("RESET_CREATE_FAILED").
				With("operation", "insert reset_token").
				With("user_id", token.UserID).
				Wrap(errors.Join(auth.ErrTokenCollision, err))
		}
		return oops.Code("RESET_CREATE_FAILED").
			With("operation", "insert reset_token").
			With("user_id", token.UserID).
			Wrap(err)
	}
	return nil
}

// GetByTokenHash retrieves a reset token by its hash.
func (r *ResetTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.ResetToken, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM reset_tokens
		WHERE token_hash = $1
	`, tokenHash)

	token, err := scanResetToken(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("RESET_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return token, nil
}

// DeleteByUser removes every reset token for userID. Zero rows is not an error.
func (r *ResetTokenRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM reset_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, oops.Code("RESET_DELETE_BY_USER_FAILED").
			With("operation", "delete reset_tokens by user").
			With("user_id", userID).
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// DeleteExpired removes every expired reset token and returns the count.
func (r *ResetTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM reset_tokens WHERE expires_at <= $1`, r.now())
	if err != nil {
		return 0, oops.Code("RESET_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired reset_tokens").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// scanResetToken returns pgx.ErrNoRows unwrapped so callers can map it.
func scanResetToken(row pgx.Row) (*auth.ResetToken, error) {
	var (
		idStr     string
		token     auth.ResetToken
		expiresAt time.Time
		createdAt time.Time
	)

	if err := row.Scan(&idStr, &token.UserID, &token.TokenHash, &expiresAt, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with context
		}
		return nil, oops.Code("RESET_SCAN_FAILED").
			With("operation", "scan reset_token").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("RESET_INVALID_ID").
			With("operation", "parse reset token id").
			With("id", idStr).
			Wrap(err)
	}

	token.ID = id
	token.ExpiresAt = expiresAt
	token.CreatedAt = createdAt
	return &token, nil
}

// Compile-time interface check.
var _ auth.ResetTokenRepository = (*ResetTokenRepository)(nil)
