// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/holomush/passcode/internal/auth"
)

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const selectUser = `
	SELECT id, email, salt, hash, failed_login_count, is_locked_out, updated_at
	FROM users
`

// Create inserts a user record.
func (r *UserRepository) Create(ctx context.Context, user *auth.UserRecord) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, email, salt, hash, failed_login_count, is_locked_out)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.Email, user.Salt, user.Hash, user.FailedLoginCount, user.IsLockedOut)
	if err != nil {
		code := "USER_CREATE_FAILED"
		if isUniqueViolation(err) {
			code = "USER_EXISTS"
		}
		return oops.Code(code).
			With("operation", "insert user").
			With("user_id", user.ID).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*auth.UserRecord, error) {
	user, err := scanUser(r.db.QueryRow(ctx, selectUser+`WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("user_id", id).Wrap(auth.ErrNotFound)
	}
	return user, err
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.UserRecord, error) {
	user, err := scanUser(r.db.QueryRow(ctx, selectUser+`WHERE LOWER(email) = LOWER($1)`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return user, err
}

// UpdateCredential replaces salt and hash and clears the lockout state.
func (r *UserRepository) UpdateCredential(ctx context.Context, id string, cred auth.StoredCredential) error {
	result, err := r.db.Exec(ctx, `
		UPDATE users
		SET salt = $2, hash = $3, failed_login_count = 0, is_locked_out = FALSE, updated_at = NOW()
		WHERE id = $1
	`, id, cred.Salt, cred.Hash)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update credential").
			With("user_id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("user_id", id).Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdateLockout persists the failure counter and lockout flag.
func (r *UserRepository) UpdateLockout(ctx context.Context, id string, failedLoginCount int, isLockedOut bool) error {
	result, err := r.db.Exec(ctx, `
		UPDATE users
		SET failed_login_count = $2, is_locked_out = $3, updated_at = NOW()
		WHERE id = $1
	`, id, failedLoginCount, isLockedOut)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update lockout").
			With("user_id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("user_id", id).Wrap(auth.ErrNotFound)
	}
	return nil
}

// IncrementFailures adds one failed attempt in a single statement so
// concurrent failures are all counted. A locked user stays locked.
func (r *UserRepository) IncrementFailures(ctx context.Context, id string, threshold int) (int, bool, error) {
	var (
		count  int
		locked bool
	)
	err := r.db.QueryRow(ctx, `
		UPDATE users
		SET failed_login_count = failed_login_count + 1,
			is_locked_out = is_locked_out OR failed_login_count + 1 >= $2,
			updated_at = NOW()
		WHERE id = $1
		RETURNING failed_login_count, is_locked_out
	`, id, threshold).Scan(&count, &locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, oops.Code("USER_NOT_FOUND").With("user_id", id).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return 0, false, oops.Code("USER_UPDATE_FAILED").
			With("operation", "increment failures").
			With("user_id", id).
			Wrap(err)
	}
	return count, locked, nil
}

func scanUser(row pgx.Row) (*auth.UserRecord, error) {
	var user auth.UserRecord
	err := row.Scan(&user.ID, &user.Email, &user.Salt, &user.Hash,
		&user.FailedLoginCount, &user.IsLockedOut, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with context
		}
		return nil, oops.Code("USER_SCAN_FAILED").With("operation", "scan user").Wrap(err)
	}
	return &user, nil
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)
