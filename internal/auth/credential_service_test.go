// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/holomush/passcode/internal/auth"
	"github.com/holomush/passcode/internal/auth/memory"
	"github.com/holomush/passcode/internal/auth/mocks"
	"github.com/holomush/passcode/internal/secret"
	"github.com/holomush/passcode/pkg/errutil"
)

type serviceFixture struct {
	svc    *auth.CredentialService
	users  *memory.UserStore
	resets *memory.ResetTokenStore
	pc     *auth.Passcode
}

func newServiceFixture(t *testing.T, users ...auth.UserRecord) *serviceFixture {
	t.Helper()
	policy := auth.DefaultPolicy()
	pc, err := auth.NewDefaultPasscode(policy)
	require.NoError(t, err)

	userStore := memory.NewUserStore(users...)
	resetStore := memory.NewResetTokenStore()
	mgr, err := auth.NewResetTokenManager(resetStore, secret.NewGenerator())
	require.NoError(t, err)

	svc, err := auth.NewCredentialService(userStore, mgr, pc, secret.NewGenerator(), policy)
	require.NoError(t, err)
	return &serviceFixture{svc: svc, users: userStore, resets: resetStore, pc: pc}
}

func credentialFor(t *testing.T, pc *auth.Passcode, secretValue string) auth.StoredCredential {
	t.Helper()
	salt, err := secret.Salt()
	require.NoError(t, err)
	hash, kind, err := pc.ComputeHash(salt, secretValue)
	require.NoError(t, err)
	require.NotEqual(t, auth.KindUnset, kind)
	return auth.StoredCredential{Salt: salt, Hash: hash}
}

func TestNewCredentialService_NilDependencies(t *testing.T) {
	policy := auth.DefaultPolicy()
	pc, err := auth.NewDefaultPasscode(policy)
	require.NoError(t, err)
	mgr, err := auth.NewResetTokenManager(mocks.NewMockResetTokenRepository(t), mocks.NewMockTokenSource(t))
	require.NoError(t, err)
	users := mocks.NewMockUserRepository(t)
	salts := mocks.NewMockSaltSource(t)

	tests := []struct {
		name        string
		users       auth.UserRepository
		tokens      *auth.ResetTokenManager
		passcode    *auth.Passcode
		salts       auth.SaltSource
		expectError string
	}{
		{name: "nil users", tokens: mgr, passcode: pc, salts: salts, expectError: "user repository is required"},
		{name: "nil tokens", users: users, passcode: pc, salts: salts, expectError: "reset token manager is required"},
		{name: "nil passcode", users: users, tokens: mgr, salts: salts, expectError: "passcode is required"},
		{name: "nil salts", users: users, tokens: mgr, passcode: pc, expectError: "salt source is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := auth.NewCredentialService(tt.users, tt.tokens, tt.passcode, tt.salts, policy)
			require.Error(t, err)
			assert.Nil(t, svc)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}

	t.Run("invalid policy", func(t *testing.T) {
		bad := policy
		bad.PinLength = 0
		_, err := auth.NewCredentialService(users, mgr, pc, salts, bad)
		errutil.AssertErrorCode(t, err, "POLICY_INVALID")
	})
}

func TestCredentialService_RequestReset(t *testing.T) {
	ctx := context.Background()

	t.Run("issues token for existing user", func(t *testing.T) {
		f := newServiceFixture(t, auth.UserRecord{ID: "u1", Email: "alice@example.com"})

		token, err := f.svc.RequestReset(ctx, "Alice@Example.com")
		require.NoError(t, err)
		assert.Len(t, token, 64)
		assert.Equal(t, 1, f.resets.Len())
	})

	t.Run("unknown email returns empty token without error", func(t *testing.T) {
		f := newServiceFixture(t)

		token, err := f.svc.RequestReset(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.Empty(t, token)
		assert.Zero(t, f.resets.Len())
	})

	t.Run("email over limit is rejected", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.svc.RequestReset(ctx, strings.Repeat("a", 250)+"@ex.com")
		errutil.AssertErrorCode(t, err, "RESET_EMAIL_INVALID")
	})

	t.Run("lookup failure", func(t *testing.T) {
		users := mocks.NewMockUserRepository(t)
		pc := newPasscode(t)
		mgr, err := auth.NewResetTokenManager(mocks.NewMockResetTokenRepository(t), mocks.NewMockTokenSource(t))
		require.NoError(t, err)
		svc, err := auth.NewCredentialService(users, mgr, pc, mocks.NewMockSaltSource(t), auth.DefaultPolicy())
		require.NoError(t, err)

		users.On("GetByEmail", mock.Anything, "a@example.com").Return(nil, errors.New("db down"))
		_, err = svc.RequestReset(ctx, "a@example.com")
		errutil.AssertErrorCode(t, err, "RESET_REQUEST_FAILED")
		errutil.AssertErrorContext(t, err, "operation", "GetByEmail")
	})
}

func TestCredentialService_ResetCredential(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces credential and invalidates all tokens", func(t *testing.T) {
		f := newServiceFixture(t, auth.UserRecord{ID: "u1", Email: "alice@example.com", FailedLoginCount: 3, IsLockedOut: true})

		first, err := f.svc.RequestReset(ctx, "alice@example.com")
		require.NoError(t, err)
		second, err := f.svc.RequestReset(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, 2, f.resets.Len())

		require.NoError(t, f.svc.ResetCredential(ctx, second, "N3wPassword"))
		assert.Zero(t, f.resets.Len())

		user, err := f.users.GetByID(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, user.Salt, 32)
		assert.Len(t, user.Hash, 128)
		assert.False(t, user.IsLockedOut)
		assert.Zero(t, user.FailedLoginCount)

		ok, err := f.pc.Matches(user.Credential(), "N3wPassword")
		require.NoError(t, err)
		assert.True(t, ok)

		err = f.svc.ResetCredential(ctx, first, "An0therPass")
		errutil.AssertErrorCode(t, err, "RESET_TOKEN_INVALID")
	})

	t.Run("pin credential", func(t *testing.T) {
		f := newServiceFixture(t, auth.UserRecord{ID: "u1", Email: "alice@example.com"})
		token, err := f.svc.RequestReset(ctx, "alice@example.com")
		require.NoError(t, err)

		require.NoError(t, f.svc.ResetCredential(ctx, token, "9z9z"))
		user, err := f.users.GetByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, auth.KindPin, f.pc.Resolver().KindOf(user.Hash))
	})

	t.Run("empty secret", func(t *testing.T) {
		f := newServiceFixture(t)
		err := f.svc.ResetCredential(ctx, "tok", "")
		errutil.AssertErrorCode(t, err, "RESET_SECRET_EMPTY")
	})

	t.Run("rejected secret leaves token usable", func(t *testing.T) {
		f := newServiceFixture(t, auth.UserRecord{ID: "u1", Email: "alice@example.com"})
		token, err := f.svc.RequestReset(ctx, "alice@example.com")
		require.NoError(t, err)

		err = f.svc.ResetCredential(ctx, token, "no good")
		errutil.AssertErrorCode(t, err, "CREDENTIAL_REJECTED")
		assert.Equal(t, 1, f.resets.Len())

		require.NoError(t, f.svc.ResetCredential(ctx, token, "N3wPassword"))
	})

	t.Run("unknown token", func(t *testing.T) {
		f := newServiceFixture(t)
		err := f.svc.ResetCredential(ctx, "not-a-token", "N3wPassword")
		errutil.AssertCodedSentinel(t, err, "RESET_TOKEN_INVALID", auth.ErrNotFound)
	})

	t.Run("salt failure", func(t *testing.T) {
		users := mocks.NewMockUserRepository(t)
		repo := mocks.NewMockResetTokenRepository(t)
		salts := mocks.NewMockSaltSource(t)
		mgr, err := auth.NewResetTokenManager(repo, mocks.NewMockTokenSource(t))
		require.NoError(t, err)
		svc, err := auth.NewCredentialService(users, mgr, newPasscode(t), salts, auth.DefaultPolicy())
		require.NoError(t, err)

		reset, err := auth.NewResetToken("u1", auth.HashResetToken("tok"), time.Now().Add(time.Hour))
		require.NoError(t, err)
		repo.On("GetByTokenHash", mock.Anything, auth.HashResetToken("tok")).Return(reset, nil)
		salts.On("Salt").Return("", errors.New("entropy gone"))

		err = svc.ResetCredential(ctx, "tok", "N3wPassword")
		errutil.AssertErrorCode(t, err, "CREDENTIAL_UPDATE_FAILED")
		errutil.AssertErrorContext(t, err, "operation", "Salt")
	})
}

func TestCredentialService_ChangeCredential(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, auth.UserRecord{ID: "u1", Email: "alice@example.com"})

	token, err := f.svc.RequestReset(ctx, "alice@example.com")
	require.NoError(t, err)

	require.NoError(t, f.svc.ChangeCredential(ctx, "u1", "Ch4ngedPass"))
	assert.Zero(t, f.resets.Len(), "outstanding reset tokens are invalidated")

	err = f.svc.ResetCredential(ctx, token, "An0therPass")
	errutil.AssertErrorCode(t, err, "RESET_TOKEN_INVALID")

	err = f.svc.ChangeCredential(ctx, "u1", "no good")
	errutil.AssertErrorCode(t, err, "CREDENTIAL_REJECTED")

	err = f.svc.ChangeCredential(ctx, "missing", "Ch4ngedPass")
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestCredentialService_VerifyCredential(t *testing.T) {
	ctx := context.Background()

	t.Run("correct secret", func(t *testing.T) {
		f := newServiceFixture(t)
		cred := credentialFor(t, f.pc, "Str0ngP@ss!")
		f.users.Put(auth.UserRecord{ID: "u1", Salt: cred.Salt, Hash: cred.Hash, FailedLoginCount: 2})

		ok, err := f.svc.VerifyCredential(ctx, "u1", "Str0ngP@ss!")
		require.NoError(t, err)
		assert.True(t, ok)

		user, err := f.users.GetByID(ctx, "u1")
		require.NoError(t, err)
		assert.Zero(t, user.FailedLoginCount)
	})

	t.Run("successful login invalidates reset tokens", func(t *testing.T) {
		f := newServiceFixture(t)
		cred := credentialFor(t, f.pc, "7f3a")
		f.users.Put(auth.UserRecord{ID: "u1", Email: "a@example.com", Salt: cred.Salt, Hash: cred.Hash})

		_, err := f.svc.RequestReset(ctx, "a@example.com")
		require.NoError(t, err)

		ok, err := f.svc.VerifyCredential(ctx, "u1", "7f3a")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Zero(t, f.resets.Len())
	})

	t.Run("locks after threshold failures", func(t *testing.T) {
		f := newServiceFixture(t)
		cred := credentialFor(t, f.pc, "Str0ngP@ss!")
		f.users.Put(auth.UserRecord{ID: "u1", Salt: cred.Salt, Hash: cred.Hash})

		for i := 1; i <= auth.DefaultFailedLoginAttempts; i++ {
			ok, err := f.svc.VerifyCredential(ctx, "u1", "Wr0ngPass!")
			require.NoError(t, err)
			assert.False(t, ok)

			user, err := f.users.GetByID(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, i, user.FailedLoginCount)
			assert.Equal(t, i == auth.DefaultFailedLoginAttempts, user.IsLockedOut)
		}

		ok, err := f.svc.VerifyCredential(ctx, "u1", "Str0ngP@ss!")
		assert.False(t, ok)
		errutil.AssertCodedSentinel(t, err, "AUTH_LOCKED_OUT", auth.ErrLockedOut)
	})

	t.Run("no credential yet", func(t *testing.T) {
		f := newServiceFixture(t, auth.UserRecord{ID: "u1"})

		ok, err := f.svc.VerifyCredential(ctx, "u1", "Str0ngP@ss!")
		require.NoError(t, err)
		assert.False(t, ok)

		user, err := f.users.GetByID(ctx, "u1")
		require.NoError(t, err)
		assert.Zero(t, user.FailedLoginCount, "invited users are not penalized")
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newServiceFixture(t)
		_, err := f.svc.VerifyCredential(ctx, "nope", "Str0ngP@ss!")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("empty stored salt surfaces as invalid input", func(t *testing.T) {
		f := newServiceFixture(t)
		cred := credentialFor(t, f.pc, "Str0ngP@ss!")
		f.users.Put(auth.UserRecord{ID: "u1", Hash: cred.Hash})

		_, err := f.svc.VerifyCredential(ctx, "u1", "Str0ngP@ss!")
		errutil.AssertCodedSentinel(t, err, "AUTH_INVALID_INPUT", auth.ErrInvalidInput)
	})

	t.Run("lockout persistence failure", func(t *testing.T) {
		users := mocks.NewMockUserRepository(t)
		pc := newPasscode(t)
		mgr, err := auth.NewResetTokenManager(mocks.NewMockResetTokenRepository(t), mocks.NewMockTokenSource(t))
		require.NoError(t, err)
		svc, err := auth.NewCredentialService(users, mgr, pc, mocks.NewMockSaltSource(t), auth.DefaultPolicy())
		require.NoError(t, err)

		cred := credentialFor(t, pc, "Str0ngP@ss!")
		users.On("GetByID", mock.Anything, "u1").Return(&auth.UserRecord{ID: "u1", Salt: cred.Salt, Hash: cred.Hash}, nil)
		users.On("IncrementFailures", mock.Anything, "u1", auth.DefaultFailedLoginAttempts).Return(0, false, errors.New("db down"))

		_, err = svc.VerifyCredential(ctx, "u1", "Wr0ngPass!")
		errutil.AssertErrorCode(t, err, "AUTH_VERIFY_FAILED")
		errutil.AssertErrorContext(t, err, "operation", "IncrementFailures")
	})

	t.Run("concurrent failures are all counted", func(t *testing.T) {
		const attempts = 8
		f := newServiceFixture(t)
		cred := credentialFor(t, f.pc, "Str0ngP@ss!")
		f.users.Put(auth.UserRecord{ID: "u1", Salt: cred.Salt, Hash: cred.Hash})

		var (
			wg     sync.WaitGroup
			start  = make(chan struct{})
			failed atomic.Int32
		)
		for range attempts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				ok, err := f.svc.VerifyCredential(ctx, "u1", "Wr0ngPass!")
				if !ok && err == nil {
					failed.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		user, err := f.users.GetByID(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, user.IsLockedOut)
		assert.Equal(t, int(failed.Load()), user.FailedLoginCount,
			"every attempt that reached hashing must be counted")
		assert.GreaterOrEqual(t, user.FailedLoginCount, auth.DefaultFailedLoginAttempts)
	})
}
