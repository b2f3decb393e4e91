// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/passcode/internal/auth"
)

const namespace = "passcode"

// Metrics records credential and reset token events.
type Metrics struct {
	HashDuration      *prometheus.HistogramVec
	MatchTotal        *prometheus.CounterVec
	TokensIssued      prometheus.Counter
	TokensInvalidated prometheus.Counter
	TokensSwept       prometheus.Counter
}

// NewMetrics creates the credential metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HashDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "hash_duration_seconds",
				Help:      "Time spent deriving credential hashes by kind",
				Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
			},
			[]string{"kind"},
		),
		MatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "match_total",
				Help:      "Credential comparisons by kind and result",
			},
			[]string{"kind", "result"},
		),
		TokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reset_tokens_issued_total",
			Help:      "Reset tokens issued",
		}),
		TokensInvalidated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reset_tokens_invalidated_total",
			Help:      "Reset tokens removed by invalidation",
		}),
		TokensSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reset_tokens_swept_total",
			Help:      "Expired reset tokens removed by sweeps",
		}),
	}

	reg.MustRegister(m.HashDuration, m.MatchTotal, m.TokensIssued, m.TokensInvalidated, m.TokensSwept)
	return m
}

// RecordHash observes one hash derivation.
func (m *Metrics) RecordHash(kind auth.Kind, elapsed time.Duration) {
	m.HashDuration.WithLabelValues(kind.String()).Observe(elapsed.Seconds())
}

// RecordMatch counts one comparison.
func (m *Metrics) RecordMatch(kind auth.Kind, matched bool) {
	result := "mismatch"
	if matched {
		result = "match"
	}
	m.MatchTotal.WithLabelValues(kind.String(), result).Inc()
}

// RecordTokensIssued counts issued tokens.
func (m *Metrics) RecordTokensIssued(n int) {
	if n > 0 {
		m.TokensIssued.Add(float64(n))
	}
}

// RecordTokensInvalidated counts tokens removed for a user.
func (m *Metrics) RecordTokensInvalidated(n int64) {
	if n > 0 {
		m.TokensInvalidated.Add(float64(n))
	}
}

// RecordTokensSwept counts tokens removed by a sweep.
func (m *Metrics) RecordTokensSwept(n int64) {
	if n > 0 {
		m.TokensSwept.Add(float64(n))
	}
}

var _ auth.Recorder = (*Metrics)(nil)
