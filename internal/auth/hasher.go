// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"regexp"
	"unicode/utf8"

	"github.com/samber/oops"
	"golang.org/x/crypto/pbkdf2"
)

// Derivation parameters. Stored hashes depend on these bit-for-bit; changing
// any of them invalidates every existing credential of that kind.
const (
	PasswordIterations = 10000
	PasswordKeyLen     = 64 // 128 hex chars
	PinIterations      = 1000
	PinKeyLen          = 32 // 64 hex chars
)

// Hasher is the credential contract shared by every credential kind.
type Hasher interface {
	// Kind reports the credential kind this hasher produces.
	Kind() Kind

	// HashLen is the hex length of hashes produced by Hash.
	HashLen() int

	// Hash derives the stored hash for secret under salt.
	// Returns an error wrapping ErrInvalidInput if either is empty.
	Hash(salt, secret string) (string, error)

	// Matches reports whether secret hashes to storedHash under salt.
	// Returns (false, nil) on mismatch and an ErrInvalidInput error on empty input.
	Matches(secret, salt, storedHash string) (bool, error)

	// IsValid performs syntactic validation only; no hashing.
	IsValid(secret string) bool
}

// derivation is PBKDF2-HMAC-SHA512 with fixed cost and output size.
type derivation struct {
	iterations int
	keyLen     int
}

func (d derivation) hash(salt, secret string) (string, error) {
	if salt == "" {
		return "", oops.Code("AUTH_INVALID_INPUT").With("field", "salt").Wrapf(ErrInvalidInput, "salt cannot be empty")
	}
	if secret == "" {
		return "", oops.Code("AUTH_INVALID_INPUT").With("field", "secret").Wrapf(ErrInvalidInput, "secret cannot be empty")
	}
	key := pbkdf2.Key([]byte(secret), []byte(salt), d.iterations, d.keyLen, sha512.New)
	return hex.EncodeToString(key), nil
}

func (d derivation) matches(secret, salt, storedHash string) (bool, error) {
	computed, err := d.hash(salt, secret)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1, nil
}

func (d derivation) hashLen() int {
	return hex.EncodedLen(d.keyLen)
}

// PasswordHasher implements Hasher for passwords.
type PasswordHasher struct {
	derivation
	maxLength int
	strong    StrongPasswordOptions
}

// NewPasswordHasher creates a PasswordHasher validating against policy.
func NewPasswordHasher(policy Policy) *PasswordHasher {
	return &PasswordHasher{
		derivation: derivation{iterations: PasswordIterations, keyLen: PasswordKeyLen},
		maxLength:  policy.PasswordMaxLength,
		strong:     policy.StrongPassword,
	}
}

// Kind returns KindPassword.
func (h *PasswordHasher) Kind() Kind { return KindPassword }

// HashLen returns 128.
func (h *PasswordHasher) HashLen() int { return h.hashLen() }

// Hash derives a password hash.
func (h *PasswordHasher) Hash(salt, secret string) (string, error) {
	return h.hash(salt, secret)
}

// Matches checks secret against storedHash.
func (h *PasswordHasher) Matches(secret, salt, storedHash string) (bool, error) {
	return h.matches(secret, salt, storedHash)
}

// IsValid reports whether secret is an acceptable new password.
func (h *PasswordHasher) IsValid(secret string) bool {
	if secret == "" || utf8.RuneCountInString(secret) > h.maxLength {
		return false
	}
	return h.strong.IsStrong(secret)
}

var pinCharset = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// PinHasher implements Hasher for short alphanumeric PINs.
type PinHasher struct {
	derivation
	length int
}

// NewPinHasher creates a PinHasher requiring policy.PinLength characters.
func NewPinHasher(policy Policy) *PinHasher {
	return &PinHasher{
		derivation: derivation{iterations: PinIterations, keyLen: PinKeyLen},
		length:     policy.PinLength,
	}
}

// Kind returns KindPin.
func (h *PinHasher) Kind() Kind { return KindPin }

// HashLen returns 64.
func (h *PinHasher) HashLen() int { return h.hashLen() }

// Hash derives a PIN hash.
func (h *PinHasher) Hash(salt, secret string) (string, error) {
	return h.hash(salt, secret)
}

// Matches checks secret against storedHash.
func (h *PinHasher) Matches(secret, salt, storedHash string) (bool, error) {
	return h.matches(secret, salt, storedHash)
}

// IsValid reports whether secret is exactly PinLength characters of [a-zA-Z0-9].
func (h *PinHasher) IsValid(secret string) bool {
	return len(secret) == h.length && pinCharset.MatchString(secret)
}

// Compile-time interface checks.
var (
	_ Hasher = (*PasswordHasher)(nil)
	_ Hasher = (*PinHasher)(nil)
)
