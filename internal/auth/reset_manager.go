// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/holomush/passcode/internal/auth"

// issueAttempts bounds retries when a freshly generated token collides with
// a stored hash.
const issueAttempts = 3

// TokenSource generates opaque reset tokens.
type TokenSource interface {
	ResetToken() (string, error)
}

// ResetTokenManager issues, validates and invalidates reset tokens.
type ResetTokenManager struct {
	repo     ResetTokenRepository
	tokens   TokenSource
	ttl      time.Duration
	recorder Recorder
	logger   *slog.Logger
	tracer   trace.Tracer
}

// ResetOption configures a ResetTokenManager.
type ResetOption func(*ResetTokenManager)

// WithTTL sets the token lifetime. Non-positive values keep the default.
func WithTTL(ttl time.Duration) ResetOption {
	return func(m *ResetTokenManager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithResetRecorder sets the metrics recorder.
func WithResetRecorder(r Recorder) ResetOption {
	return func(m *ResetTokenManager) {
		if r != nil {
			m.recorder = r
		}
	}
}

// WithResetLogger sets the logger.
func WithResetLogger(l *slog.Logger) ResetOption {
	return func(m *ResetTokenManager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewResetTokenManager creates a ResetTokenManager.
func NewResetTokenManager(repo ResetTokenRepository, tokens TokenSource, opts ...ResetOption) (*ResetTokenManager, error) {
	if repo == nil {
		return nil, oops.Code("RESET_MANAGER_INVALID").Errorf("reset token repository is required")
	}
	if tokens == nil {
		return nil, oops.Code("RESET_MANAGER_INVALID").Errorf("token source is required")
	}
	m := &ResetTokenManager{
		repo:     repo,
		tokens:   tokens,
		ttl:      ResetTokenExpiry,
		recorder: noopRecorder{},
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// TTL returns the configured token lifetime.
func (m *ResetTokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue generates a reset token for userID, stores its hash and returns the
// plaintext. Delivering the token is the caller's job.
func (m *ResetTokenManager) Issue(ctx context.Context, userID string) (string, error) {
	ctx, span := m.tracer.Start(ctx, "ResetTokenManager.Issue",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	var token string
	backoff := retry.WithMaxRetries(issueAttempts-1, retry.NewConstant(5*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		plain, err := m.tokens.ResetToken()
		if err != nil {
			return oops.Code("RESET_ISSUE_FAILED").With("operation", "generate token").Wrap(err)
		}

		reset, err := NewResetToken(userID, HashResetToken(plain), time.Now().Add(m.ttl))
		if err != nil {
			return oops.Code("RESET_ISSUE_FAILED").With("operation", "new reset token").Wrap(err)
		}

		if err := m.repo.Create(ctx, reset); err != nil {
			wrapped := oops.Code("RESET_ISSUE_FAILED").
				With("operation", "create").
				With("user_id", userID).
				Wrap(err)
			if errors.Is(err, ErrTokenCollision) {
				m.logger.WarnContext(ctx, "reset token hash collision, regenerating", "user_id", userID)
				return retry.RetryableError(wrapped)
			}
			return wrapped
		}

		token = plain
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "issue failed")
		return "", err
	}

	m.recorder.RecordTokensIssued(1)
	return token, nil
}

// Validate returns the user a plaintext token was issued to.
// Unknown tokens fail with RESET_TOKEN_INVALID, expired ones with RESET_TOKEN_EXPIRED.
func (m *ResetTokenManager) Validate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", oops.Code("RESET_TOKEN_EMPTY").Errorf("reset token cannot be empty")
	}

	ctx, span := m.tracer.Start(ctx, "ResetTokenManager.Validate")
	defer span.End()

	reset, err := m.repo.GetByTokenHash(ctx, HashResetToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Store detail is dropped so callers see a single code for unknown tokens.
			return "", oops.Code("RESET_TOKEN_INVALID").Wrapf(ErrNotFound, "reset token not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return "", oops.Code("RESET_VALIDATE_FAILED").With("operation", "GetByTokenHash").Wrap(err)
	}

	if reset.IsExpired() {
		return "", oops.Code("RESET_TOKEN_EXPIRED").
			With("expired_at", reset.ExpiresAt).
			Errorf("reset token has expired")
	}

	return reset.UserID, nil
}

// InvalidateAll deletes every outstanding token for userID and reports
// whether any existed. Finding none is not an error.
func (m *ResetTokenManager) InvalidateAll(ctx context.Context, userID string) (bool, error) {
	ctx, span := m.tracer.Start(ctx, "ResetTokenManager.InvalidateAll",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	n, err := m.repo.DeleteByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return false, oops.Code("RESET_INVALIDATE_FAILED").
			With("operation", "DeleteByUser").
			With("user_id", userID).
			Wrap(err)
	}

	span.SetAttributes(attribute.Int64("reset.deleted", n))
	m.recorder.RecordTokensInvalidated(n)
	return n > 0, nil
}

// SweepExpired purges expired tokens and returns how many were removed.
func (m *ResetTokenManager) SweepExpired(ctx context.Context) (int64, error) {
	ctx, span := m.tracer.Start(ctx, "ResetTokenManager.SweepExpired")
	defer span.End()

	n, err := m.repo.DeleteExpired(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sweep failed")
		return 0, oops.Code("RESET_SWEEP_FAILED").With("operation", "DeleteExpired").Wrap(err)
	}

	m.recorder.RecordTokensSwept(n)
	if n > 0 {
		m.logger.InfoContext(ctx, "swept expired reset tokens", "count", n)
	}
	return n, nil
}
