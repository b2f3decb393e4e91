// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package secret produces hex-encoded random values for salts, refresh keys
// and reset tokens.
package secret

import (
	"crypto/rand"
	"encoding/hex"
	"io"

	"github.com/samber/oops"
)

// Byte lengths per purpose. These must stay stable: stored salts and issued
// tokens are compared by their encoded length.
const (
	SaltBytes       = 16 // 32 hex chars
	RefreshKeyBytes = 32 // 64 hex chars
	ResetTokenBytes = 32 // 64 hex chars
)

// Generator reads random bytes from a source and hex-encodes them.
// It holds no mutable state and is safe for concurrent use as long as the
// source is.
type Generator struct {
	source io.Reader
}

// NewGenerator creates a Generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{source: rand.Reader}
}

// NewGeneratorFromSource creates a Generator reading from r.
// Intended for tests that need deterministic or failing entropy.
func NewGeneratorFromSource(r io.Reader) *Generator {
	if r == nil {
		r = rand.Reader
	}
	return &Generator{source: r}
}

// Salt returns a fresh 16-byte salt, hex-encoded.
func (g *Generator) Salt() (string, error) {
	return g.read("salt", SaltBytes)
}

// RefreshKey returns a fresh 32-byte refresh-token key, hex-encoded.
func (g *Generator) RefreshKey() (string, error) {
	return g.read("refresh_key", RefreshKeyBytes)
}

// ResetToken returns a fresh 32-byte reset token, hex-encoded.
func (g *Generator) ResetToken() (string, error) {
	return g.read("reset_token", ResetTokenBytes)
}

func (g *Generator) read(purpose string, n int) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(g.source, buf); err != nil {
		return "", oops.Code("SECRET_ENTROPY_UNAVAILABLE").
			With("purpose", purpose).
			With("bytes", n).
			Wrap(err)
	}
	return hex.EncodeToString(buf), nil
}

var defaultGenerator = NewGenerator()

// Salt returns a salt from the default crypto/rand generator.
func Salt() (string, error) { return defaultGenerator.Salt() }

// RefreshKey returns a refresh key from the default crypto/rand generator.
func RefreshKey() (string, error) { return defaultGenerator.RefreshKey() }

// ResetToken returns a reset token from the default crypto/rand generator.
func ResetToken() (string, error) { return defaultGenerator.ResetToken() }
