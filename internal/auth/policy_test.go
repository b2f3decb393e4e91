// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/passcode/internal/auth"
	"github.com/holomush/passcode/pkg/errutil"
)

func TestDefaultPolicy(t *testing.T) {
	p := auth.DefaultPolicy()
	assert.Equal(t, 254, p.EmailMaxLength)
	assert.Equal(t, 50, p.PasswordMaxLength)
	assert.Equal(t, 4, p.PinLength)
	assert.Equal(t, 3, p.FailedLoginAttempts)
	assert.Equal(t, auth.StrongPasswordOptions{MinLength: 9, MinLowercase: 1, MinUppercase: 1}, p.StrongPassword)
	require.NoError(t, p.Validate())
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*auth.Policy)
		field  string
	}{
		{name: "zero email length", mutate: func(p *auth.Policy) { p.EmailMaxLength = 0 }, field: "email_max_length"},
		{name: "negative password length", mutate: func(p *auth.Policy) { p.PasswordMaxLength = -1 }, field: "password_max_length"},
		{name: "zero pin length", mutate: func(p *auth.Policy) { p.PinLength = 0 }, field: "pin_length"},
		{name: "zero lockout threshold", mutate: func(p *auth.Policy) { p.FailedLoginAttempts = 0 }, field: "failed_login_attempts"},
		{
			name:   "min length above max",
			mutate: func(p *auth.Policy) { p.StrongPassword.MinLength = 51 },
			field:  "strong_password.min_length",
		},
		{
			name:   "negative class minimum",
			mutate: func(p *auth.Policy) { p.StrongPassword.MinSymbols = -1 },
			field:  "strong_password",
		},
		{
			name: "class minimums above max",
			mutate: func(p *auth.Policy) {
				p.PasswordMaxLength = 10
				p.StrongPassword.MinNumbers = 10
			},
			field: "strong_password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := auth.DefaultPolicy()
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "POLICY_INVALID")
			errutil.AssertErrorContext(t, err, "field", tt.field)
		})
	}
}

func TestStrongPasswordOptions_IsStrong(t *testing.T) {
	opts := auth.StrongPasswordOptions{MinLength: 4, MinLowercase: 1, MinUppercase: 1, MinNumbers: 1, MinSymbols: 1}

	assert.True(t, opts.IsStrong("aB3!"))
	assert.False(t, opts.IsStrong("aB3"), "too short")
	assert.False(t, opts.IsStrong("ab3!"), "no uppercase")
	assert.False(t, opts.IsStrong("AB3!"), "no lowercase")
	assert.False(t, opts.IsStrong("aBc!"), "no digit")
	assert.False(t, opts.IsStrong("aB3c"), "no symbol")
	assert.True(t, opts.IsStrong("aB3 "), "space counts as symbol")
	assert.True(t, auth.StrongPasswordOptions{}.IsStrong(""), "zero options accept anything")
}

func TestPolicy_EmailWithinLimit(t *testing.T) {
	p := auth.DefaultPolicy()
	local := strings.Repeat("a", 254-len("@example.com"))

	assert.True(t, p.EmailWithinLimit(local+"@example.com"))
	assert.False(t, p.EmailWithinLimit(local+"a@example.com"))
	assert.False(t, p.EmailWithinLimit(""))
}
