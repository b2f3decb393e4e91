// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"strings"

	"github.com/samber/oops"
)

// Kind identifies which credential family a secret or stored hash belongs to.
type Kind int

// Credential kinds. KindUnset is the zero value and covers records with no
// credential yet as well as hashes of unrecognized shape.
const (
	KindUnset Kind = iota
	KindPassword
	KindPin
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindPassword:
		return "password"
	case KindPin:
		return "pin"
	default:
		return "unset"
	}
}

// ParseKind parses the String form of a kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "password":
		return KindPassword, nil
	case "pin":
		return KindPin, nil
	case "unset", "":
		return KindUnset, nil
	default:
		return KindUnset, oops.Code("AUTH_UNKNOWN_KIND").With("kind", s).Errorf("unknown credential kind %q", s)
	}
}
