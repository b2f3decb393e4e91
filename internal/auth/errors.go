// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is wrapped when a hashing primitive receives an empty
	// salt or secret. It signals a caller bug, never a user mistake.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTokenCollision is returned by reset-token stores when a token hash
	// already exists.
	ErrTokenCollision = errors.New("reset token hash already exists")

	// ErrLockedOut is returned when a locked account attempts verification.
	ErrLockedOut = errors.New("account is locked out")
)
