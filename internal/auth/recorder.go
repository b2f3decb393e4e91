// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import "time"

// Recorder receives credential and reset-token events for metrics.
type Recorder interface {
	RecordHash(kind Kind, elapsed time.Duration)
	RecordMatch(kind Kind, matched bool)
	RecordTokensIssued(n int)
	RecordTokensInvalidated(n int64)
	RecordTokensSwept(n int64)
}

type noopRecorder struct{}

func (noopRecorder) RecordHash(Kind, time.Duration) {}
func (noopRecorder) RecordMatch(Kind, bool)         {}
func (noopRecorder) RecordTokensIssued(int)         {}
func (noopRecorder) RecordTokensInvalidated(int64)  {}
func (noopRecorder) RecordTokensSwept(int64)        {}
