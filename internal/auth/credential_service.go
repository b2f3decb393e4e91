// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/passcode/pkg/errutil"
)

// SaltSource generates per-credential salts.
type SaltSource interface {
	Salt() (string, error)
}

// CredentialService sets, resets and verifies user credentials on top of
// Passcode and ResetTokenManager.
type CredentialService struct {
	users    UserRepository
	tokens   *ResetTokenManager
	passcode *Passcode
	salts    SaltSource
	policy   Policy
	lockout  LockoutPolicy
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewCredentialService creates a CredentialService logging to slog.Default.
func NewCredentialService(
	users UserRepository,
	tokens *ResetTokenManager,
	passcode *Passcode,
	salts SaltSource,
	policy Policy,
) (*CredentialService, error) {
	return NewCredentialServiceWithLogger(users, tokens, passcode, salts, policy, nil)
}

// NewCredentialServiceWithLogger creates a CredentialService with an explicit logger.
func NewCredentialServiceWithLogger(
	users UserRepository,
	tokens *ResetTokenManager,
	passcode *Passcode,
	salts SaltSource,
	policy Policy,
	logger *slog.Logger,
) (*CredentialService, error) {
	switch {
	case users == nil:
		return nil, oops.Code("CREDENTIAL_SERVICE_INVALID").Errorf("user repository is required")
	case tokens == nil:
		return nil, oops.Code("CREDENTIAL_SERVICE_INVALID").Errorf("reset token manager is required")
	case passcode == nil:
		return nil, oops.Code("CREDENTIAL_SERVICE_INVALID").Errorf("passcode is required")
	case salts == nil:
		return nil, oops.Code("CREDENTIAL_SERVICE_INVALID").Errorf("salt source is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialService{
		users:    users,
		tokens:   tokens,
		passcode: passcode,
		salts:    salts,
		policy:   policy,
		lockout:  NewLockoutPolicy(policy.FailedLoginAttempts),
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}, nil
}

// RequestReset issues a reset token for the user owning email.
// An unknown email returns ("", nil) so callers cannot enumerate accounts.
func (s *CredentialService) RequestReset(ctx context.Context, email string) (string, error) {
	if !s.policy.EmailWithinLimit(email) {
		return "", oops.Code("RESET_EMAIL_INVALID").
			With("max", s.policy.EmailMaxLength).
			Errorf("email must be between 1 and %d characters", s.policy.EmailMaxLength)
	}

	ctx, span := s.tracer.Start(ctx, "CredentialService.RequestReset")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return "", oops.Code("RESET_REQUEST_FAILED").With("operation", "GetByEmail").Wrap(err)
	}

	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return "", oops.Code("RESET_REQUEST_FAILED").With("operation", "Issue").Wrap(err)
	}
	return token, nil
}

// ResetCredential redeems token and replaces the owner's credential with secret.
// All of the user's reset tokens are deleted afterwards.
func (s *CredentialService) ResetCredential(ctx context.Context, token, secret string) error {
	if secret == "" {
		return oops.Code("RESET_SECRET_EMPTY").Errorf("new secret cannot be empty")
	}
	if !s.passcode.IsValid(secret) {
		return oops.Code("CREDENTIAL_REJECTED").Errorf("secret is neither a valid password nor a valid pin")
	}

	ctx, span := s.tracer.Start(ctx, "CredentialService.ResetCredential")
	defer span.End()

	userID, err := s.tokens.Validate(ctx, token)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("user.id", userID))

	if err := s.replaceCredential(ctx, userID, secret); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "replace credential failed")
		return err
	}

	s.invalidateBestEffort(ctx, userID)
	return nil
}

// ChangeCredential replaces a user's credential outside the reset flow, for
// example an administrator-forced change. Outstanding reset tokens are
// invalidated so they cannot be redeemed later.
func (s *CredentialService) ChangeCredential(ctx context.Context, userID, secret string) error {
	if !s.passcode.IsValid(secret) {
		return oops.Code("CREDENTIAL_REJECTED").Errorf("secret is neither a valid password nor a valid pin")
	}

	ctx, span := s.tracer.Start(ctx, "CredentialService.ChangeCredential",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	if err := s.replaceCredential(ctx, userID, secret); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "replace credential failed")
		return err
	}

	s.invalidateBestEffort(ctx, userID)
	return nil
}

// VerifyCredential checks secret against the user's stored credential.
// Locked accounts fail with ErrLockedOut before any hashing. A mismatch
// increments the failure counter and locks the account at the threshold;
// a match clears the counter and invalidates outstanding reset tokens.
func (s *CredentialService) VerifyCredential(ctx context.Context, userID, secret string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "CredentialService.VerifyCredential",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, oops.Code("AUTH_VERIFY_FAILED").With("operation", "GetByID").With("user_id", userID).Wrap(err)
	}

	if user.IsLockedOut {
		return false, oops.Code("AUTH_LOCKED_OUT").With("user_id", userID).Wrap(ErrLockedOut)
	}
	if !user.HasCredential() {
		return false, nil
	}

	ok, err := s.passcode.Matches(user.Credential(), secret)
	if err != nil {
		return false, oops.Code("AUTH_VERIFY_FAILED").With("operation", "Matches").With("user_id", userID).Wrap(err)
	}

	if !ok {
		count, locked, err := s.users.IncrementFailures(ctx, user.ID, s.lockout.Threshold)
		if err != nil {
			return false, oops.Code("AUTH_VERIFY_FAILED").With("operation", "IncrementFailures").With("user_id", userID).Wrap(err)
		}
		if locked {
			s.logger.WarnContext(ctx, "account locked after failed verifications",
				"user_id", user.ID,
				"failed_login_count", count)
		}
		return false, nil
	}

	if user.FailedLoginCount > 0 {
		user.RecordSuccess()
		if err := s.users.UpdateLockout(ctx, user.ID, 0, false); err != nil {
			return false, oops.Code("AUTH_VERIFY_FAILED").With("operation", "UpdateLockout").With("user_id", userID).Wrap(err)
		}
	}
	s.invalidateBestEffort(ctx, user.ID)
	return true, nil
}

func (s *CredentialService) replaceCredential(ctx context.Context, userID, secret string) error {
	salt, err := s.salts.Salt()
	if err != nil {
		return oops.Code("CREDENTIAL_UPDATE_FAILED").With("operation", "Salt").Wrap(err)
	}

	hash, kind, err := s.passcode.ComputeHash(salt, secret)
	if err != nil {
		return oops.Code("CREDENTIAL_UPDATE_FAILED").With("operation", "ComputeHash").Wrap(err)
	}
	if kind == KindUnset {
		return oops.Code("CREDENTIAL_REJECTED").Errorf("secret is neither a valid password nor a valid pin")
	}

	if err := s.users.UpdateCredential(ctx, userID, StoredCredential{Salt: salt, Hash: hash}); err != nil {
		return oops.Code("CREDENTIAL_UPDATE_FAILED").
			With("operation", "UpdateCredential").
			With("user_id", userID).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "credential replaced", "user_id", userID, "kind", kind.String())
	return nil
}

// invalidateBestEffort deletes reset tokens after the credential is already
// persisted; a failure is logged rather than returned.
func (s *CredentialService) invalidateBestEffort(ctx context.Context, userID string) {
	if _, err := s.tokens.InvalidateAll(ctx, userID); err != nil {
		errutil.LogWarn(ctx, s.logger, "best-effort reset token cleanup failed", err,
			"operation", "delete_tokens",
			"user_id", userID)
	}
}
