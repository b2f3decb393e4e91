// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

// DefaultFailedLoginAttempts is the number of failed verifications that
// locks an account.
const DefaultFailedLoginAttempts = 3

// LockoutPolicy decides when a failure counter locks an account.
// Enforcement belongs to the login flow; this type only owns the threshold.
type LockoutPolicy struct {
	Threshold int
}

// NewLockoutPolicy creates a LockoutPolicy, falling back to the default
// threshold when threshold is not positive.
func NewLockoutPolicy(threshold int) LockoutPolicy {
	if threshold <= 0 {
		threshold = DefaultFailedLoginAttempts
	}
	return LockoutPolicy{Threshold: threshold}
}

// Exceeded reports whether failures has reached the lockout threshold.
func (l LockoutPolicy) Exceeded(failures int) bool {
	return failures >= l.Threshold
}

// Remaining returns how many failures are left before lockout.
func (l LockoutPolicy) Remaining(failures int) int {
	if failures >= l.Threshold {
		return 0
	}
	return l.Threshold - failures
}
