// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"time"
)

// UserRecord is the credential-bearing view of a user supplied by the
// external user store.
type UserRecord struct {
	ID               string
	Email            string
	Salt             string
	Hash             string
	FailedLoginCount int
	IsLockedOut      bool
	UpdatedAt        time.Time
}

// Credential returns the stored salt and hash.
func (u *UserRecord) Credential() StoredCredential {
	return StoredCredential{Salt: u.Salt, Hash: u.Hash}
}

// HasCredential reports whether a credential has been set.
func (u *UserRecord) HasCredential() bool {
	return u.Hash != ""
}

// RecordFailure increments the failure counter and locks the record when
// policy's threshold is reached. A locked record stays locked.
func (u *UserRecord) RecordFailure(policy LockoutPolicy) {
	u.FailedLoginCount++
	u.IsLockedOut = u.IsLockedOut || policy.Exceeded(u.FailedLoginCount)
	u.UpdatedAt = time.Now()
}

// RecordSuccess clears the failure counter and lockout.
func (u *UserRecord) RecordSuccess() {
	u.FailedLoginCount = 0
	u.IsLockedOut = false
	u.UpdatedAt = time.Now()
}

// ReplaceCredential overwrites salt and hash wholesale and clears lockout
// state. Credentials are never mutated in place.
func (u *UserRecord) ReplaceCredential(cred StoredCredential) {
	u.Salt = cred.Salt
	u.Hash = cred.Hash
	u.RecordSuccess()
}

// UserRepository is the external user record store.
type UserRepository interface {
	// GetByID retrieves a user by identifier. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*UserRecord, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	// Returns ErrNotFound if no user has the given email.
	GetByEmail(ctx context.Context, email string) (*UserRecord, error)

	// UpdateCredential replaces salt and hash and clears lockout state.
	UpdateCredential(ctx context.Context, id string, cred StoredCredential) error

	// UpdateLockout persists the failure counter and lockout flag.
	UpdateLockout(ctx context.Context, id string, failedLoginCount int, isLockedOut bool) error

	// IncrementFailures atomically adds one failed attempt and locks the
	// record once the count reaches threshold. It returns the stored values
	// after the increment. Returns ErrNotFound if absent.
	IncrementFailures(ctx context.Context, id string, threshold int) (failedLoginCount int, isLockedOut bool, err error)
}
