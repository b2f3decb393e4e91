// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"unicode"
	"unicode/utf8"

	"github.com/samber/oops"
)

// Default acceptance rules for new secrets.
const (
	DefaultEmailMaxLength    = 254
	DefaultPasswordMaxLength = 50
	DefaultPinLength         = 4
)

// StrongPasswordOptions is the named strength policy a password must meet.
// Counts are minimums; zero disables the corresponding check.
type StrongPasswordOptions struct {
	MinLength    int `koanf:"min_length" yaml:"min_length" json:"min_length" jsonschema:"minimum=1"`
	MinLowercase int `koanf:"min_lowercase" yaml:"min_lowercase" json:"min_lowercase" jsonschema:"minimum=0"`
	MinUppercase int `koanf:"min_uppercase" yaml:"min_uppercase" json:"min_uppercase" jsonschema:"minimum=0"`
	MinNumbers   int `koanf:"min_numbers" yaml:"min_numbers" json:"min_numbers" jsonschema:"minimum=0"`
	MinSymbols   int `koanf:"min_symbols" yaml:"min_symbols" json:"min_symbols" jsonschema:"minimum=0"`
}

// DefaultStrongPasswordOptions returns 9 characters with at least one
// lowercase and one uppercase letter.
func DefaultStrongPasswordOptions() StrongPasswordOptions {
	return StrongPasswordOptions{
		MinLength:    9,
		MinLowercase: 1,
		MinUppercase: 1,
		MinNumbers:   0,
		MinSymbols:   0,
	}
}

// IsStrong reports whether s satisfies every minimum in o.
func (o StrongPasswordOptions) IsStrong(s string) bool {
	if utf8.RuneCountInString(s) < o.MinLength {
		return false
	}

	var lower, upper, numbers, symbols int
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower++
		case unicode.IsUpper(r):
			upper++
		case unicode.IsDigit(r):
			numbers++
		case unicode.IsPunct(r) || unicode.IsSymbol(r) || r == ' ':
			symbols++
		}
	}

	return lower >= o.MinLowercase &&
		upper >= o.MinUppercase &&
		numbers >= o.MinNumbers &&
		symbols >= o.MinSymbols
}

// Policy governs acceptance of new secrets. Changing it never re-validates
// hashes that are already stored.
type Policy struct {
	EmailMaxLength      int                   `koanf:"email_max_length" yaml:"email_max_length" json:"email_max_length" jsonschema:"minimum=1"`
	PasswordMaxLength   int                   `koanf:"password_max_length" yaml:"password_max_length" json:"password_max_length" jsonschema:"minimum=1"`
	PinLength           int                   `koanf:"pin_length" yaml:"pin_length" json:"pin_length" jsonschema:"minimum=1"`
	StrongPassword      StrongPasswordOptions `koanf:"strong_password" yaml:"strong_password" json:"strong_password"`
	FailedLoginAttempts int                   `koanf:"failed_login_attempts" yaml:"failed_login_attempts" json:"failed_login_attempts" jsonschema:"minimum=1"`
}

// DefaultPolicy returns the reference policy.
func DefaultPolicy() Policy {
	return Policy{
		EmailMaxLength:      DefaultEmailMaxLength,
		PasswordMaxLength:   DefaultPasswordMaxLength,
		PinLength:           DefaultPinLength,
		StrongPassword:      DefaultStrongPasswordOptions(),
		FailedLoginAttempts: DefaultFailedLoginAttempts,
	}
}

// Validate checks that the policy is internally consistent.
func (p Policy) Validate() error {
	switch {
	case p.EmailMaxLength <= 0:
		return oops.Code("POLICY_INVALID").With("field", "email_max_length").Errorf("email max length must be positive")
	case p.PasswordMaxLength <= 0:
		return oops.Code("POLICY_INVALID").With("field", "password_max_length").Errorf("password max length must be positive")
	case p.PinLength <= 0:
		return oops.Code("POLICY_INVALID").With("field", "pin_length").Errorf("pin length must be positive")
	case p.FailedLoginAttempts <= 0:
		return oops.Code("POLICY_INVALID").With("field", "failed_login_attempts").Errorf("failed login attempts must be positive")
	case p.StrongPassword.MinLength > p.PasswordMaxLength:
		return oops.Code("POLICY_INVALID").
			With("field", "strong_password.min_length").
			Errorf("strong password min length %d exceeds max length %d", p.StrongPassword.MinLength, p.PasswordMaxLength)
	}

	minimums := p.StrongPassword.MinLowercase + p.StrongPassword.MinUppercase +
		p.StrongPassword.MinNumbers + p.StrongPassword.MinSymbols
	if p.StrongPassword.MinLowercase < 0 || p.StrongPassword.MinUppercase < 0 ||
		p.StrongPassword.MinNumbers < 0 || p.StrongPassword.MinSymbols < 0 {
		return oops.Code("POLICY_INVALID").With("field", "strong_password").Errorf("character class minimums cannot be negative")
	}
	if minimums > p.PasswordMaxLength {
		return oops.Code("POLICY_INVALID").
			With("field", "strong_password").
			Errorf("character class minimums (%d) exceed password max length %d", minimums, p.PasswordMaxLength)
	}
	return nil
}

// EmailWithinLimit reports whether email is non-empty and no longer than the
// configured maximum.
func (p Policy) EmailWithinLimit(email string) bool {
	n := utf8.RuneCountInString(email)
	return n > 0 && n <= p.EmailMaxLength
}
