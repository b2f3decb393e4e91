// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import "github.com/samber/oops"

// Candidate exposes the stored-hash fields of a user record.
// At most one is normally populated.
type Candidate struct {
	PasswordHash string
	PinHash      string
}

// Resolver infers credential kinds from stored-hash length.
type Resolver struct {
	passwordLen int
	pinLen      int
}

// NewResolver creates a Resolver from the hash lengths of the two hashers.
// Equal lengths make inference ambiguous and are rejected.
func NewResolver(password, pin Hasher) (*Resolver, error) {
	if password == nil || pin == nil {
		return nil, oops.Code("AUTH_RESOLVER_INVALID").Errorf("password and pin hashers are required")
	}
	if password.HashLen() == pin.HashLen() {
		return nil, oops.Code("AUTH_KIND_AMBIGUOUS").
			With("hash_len", password.HashLen()).
			Errorf("password and pin hashes share length %d", password.HashLen())
	}
	return &Resolver{passwordLen: password.HashLen(), pinLen: pin.HashLen()}, nil
}

// InferKind returns the kind of whichever hash field is populated, checking
// the password field first. Unknown lengths yield KindUnset.
func (r *Resolver) InferKind(c Candidate) Kind {
	switch {
	case c.PasswordHash != "":
		return r.KindOf(c.PasswordHash)
	case c.PinHash != "":
		return r.KindOf(c.PinHash)
	default:
		return KindUnset
	}
}

// KindOf maps a single stored hash to its kind by length.
func (r *Resolver) KindOf(storedHash string) Kind {
	switch len(storedHash) {
	case 0:
		return KindUnset
	case r.passwordLen:
		return KindPassword
	case r.pinLen:
		return KindPin
	default:
		return KindUnset
	}
}
