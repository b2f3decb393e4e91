// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil_test

import (
	"errors"
	"testing"

	"github.com/samber/oops"

	"github.com/holomush/passcode/pkg/errutil"
)

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("AUTH_INVALID_INPUT").Errorf("salt cannot be empty")
	errutil.AssertErrorCode(t, err, "AUTH_INVALID_INPUT")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("field", "salt").Errorf("test error")
	errutil.AssertErrorContext(t, err, "field", "salt")
}

func TestAssertCodedSentinel(t *testing.T) {
	sentinel := errors.New("not found")
	err := oops.Code("RESET_NOT_FOUND").Wrap(sentinel)
	errutil.AssertCodedSentinel(t, err, "RESET_NOT_FOUND", sentinel)
}
