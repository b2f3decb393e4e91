// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"time"

	"github.com/samber/oops"
)

// StoredCredential is the persisted half of a credential.
type StoredCredential struct {
	Salt string
	Hash string
}

// Passcode hides the password/PIN split behind one API.
// It is immutable after construction and safe for concurrent use.
type Passcode struct {
	password Hasher
	pin      Hasher
	resolver *Resolver
	recorder Recorder
}

// Option configures a Passcode.
type Option func(*Passcode)

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(p *Passcode) {
		if r != nil {
			p.recorder = r
		}
	}
}

// NewPasscode creates a Passcode from explicit password and PIN hashers.
func NewPasscode(password, pin Hasher, opts ...Option) (*Passcode, error) {
	if password == nil {
		return nil, oops.Code("AUTH_PASSCODE_INVALID").Errorf("password hasher is required")
	}
	if pin == nil {
		return nil, oops.Code("AUTH_PASSCODE_INVALID").Errorf("pin hasher is required")
	}
	resolver, err := NewResolver(password, pin)
	if err != nil {
		return nil, err
	}

	p := &Passcode{
		password: password,
		pin:      pin,
		resolver: resolver,
		recorder: noopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// NewDefaultPasscode wires the password and PIN hashers for policy.
func NewDefaultPasscode(policy Policy, opts ...Option) (*Passcode, error) {
	return NewPasscode(NewPasswordHasher(policy), NewPinHasher(policy), opts...)
}

// Resolver returns the kind resolver used by p.
func (p *Passcode) Resolver() *Resolver {
	return p.resolver
}

// IsValid reports whether secret is acceptable as either a password or a PIN.
// A raw secret is ambiguous until hashed, so both rules are tried.
func (p *Passcode) IsValid(secret string) bool {
	return p.Classify(secret) != KindUnset
}

// Classify returns the kind secret would be hashed as. Password rules are
// tried before PIN rules, so a secret valid under both is a password.
func (p *Passcode) Classify(secret string) Kind {
	switch {
	case secret == "":
		return KindUnset
	case p.password.IsValid(secret):
		return KindPassword
	case p.pin.IsValid(secret):
		return KindPin
	default:
		return KindUnset
	}
}

// Matches reports whether secret matches the stored credential.
// It fails closed: an empty secret, empty hash or unrecognized hash length
// returns false. The only error is the hasher's ErrInvalidInput on an empty salt.
func (p *Passcode) Matches(stored StoredCredential, secret string) (bool, error) {
	if secret == "" || stored.Hash == "" {
		return false, nil
	}

	kind := p.resolver.KindOf(stored.Hash)
	hasher := p.hasherFor(kind)
	if hasher == nil {
		p.recorder.RecordMatch(KindUnset, false)
		return false, nil
	}

	ok, err := hasher.Matches(secret, stored.Salt, stored.Hash)
	if err != nil {
		return false, err
	}
	p.recorder.RecordMatch(kind, ok)
	return ok, nil
}

// ComputeHash hashes secret under salt with whichever hasher accepts it.
// Returns ("", KindUnset, nil) when secret is empty or accepted by neither.
func (p *Passcode) ComputeHash(salt, secret string) (string, Kind, error) {
	kind := p.Classify(secret)
	hasher := p.hasherFor(kind)
	if hasher == nil {
		return "", KindUnset, nil
	}

	start := time.Now()
	hash, err := hasher.Hash(salt, secret)
	if err != nil {
		return "", KindUnset, err
	}
	p.recorder.RecordHash(kind, time.Since(start))
	return hash, kind, nil
}

func (p *Passcode) hasherFor(kind Kind) Hasher {
	switch kind {
	case KindPassword:
		return p.password
	case KindPin:
		return p.pin
	case KindUnset:
		return nil
	default:
		return nil
	}
}
