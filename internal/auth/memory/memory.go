// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package memory provides in-process implementations of the auth stores.
// They back the CLI when no database is configured and exercise the
// repository contracts in tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/passcode/internal/auth"
)

// ResetTokenStore is a map-backed auth.ResetTokenRepository.
type ResetTokenStore struct {
	mu     sync.RWMutex
	byHash map[string]auth.ResetToken
	now    func() time.Time
}

// NewResetTokenStore creates an empty ResetTokenStore.
func NewResetTokenStore() *ResetTokenStore {
	return &ResetTokenStore{
		byHash: make(map[string]auth.ResetToken),
		now:    time.Now,
	}
}

// Create stores token. A duplicate hash wraps auth.ErrTokenCollision.
func (s *ResetTokenStore) Create(_ context.Context, token *auth.ResetToken) error {
	if token == nil {
		return oops.Code("RESET_CREATE_FAILED").Errorf("reset token is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byHash[token.TokenHash]; exists {
		return oops.Code("RESET_CREATE_FAILED").With("user_id", token.UserID).Wrap(auth.ErrTokenCollision)
	}
	s.byHash[token.TokenHash] = *token
	return nil
}

// GetByTokenHash returns a copy of the stored token.
func (s *ResetTokenStore) GetByTokenHash(_ context.Context, tokenHash string) (*auth.ResetToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.byHash[tokenHash]
	if !ok {
		return nil, oops.Code("RESET_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return &token, nil
}

// DeleteByUser removes every token held by userID.
func (s *ResetTokenStore) DeleteByUser(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for hash, token := range s.byHash {
		if token.UserID == userID {
			delete(s.byHash, hash)
			n++
		}
	}
	return n, nil
}

// DeleteExpired removes tokens whose expiry has passed.
func (s *ResetTokenStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var n int64
	for hash, token := range s.byHash {
		if token.IsExpiredAt(now) {
			delete(s.byHash, hash)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored tokens.
func (s *ResetTokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byHash)
}

// UserStore is a map-backed auth.UserRepository.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]auth.UserRecord
}

// NewUserStore creates a UserStore seeded with users.
func NewUserStore(users ...auth.UserRecord) *UserStore {
	s := &UserStore{users: make(map[string]auth.UserRecord, len(users))}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

// Put inserts or replaces a user.
func (s *UserStore) Put(user auth.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

// GetByID returns a copy of the user.
func (s *UserStore) GetByID(_ context.Context, id string) (*auth.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("user_id", id).Wrap(auth.ErrNotFound)
	}
	return &user, nil
}

// GetByEmail matches email case-insensitively.
func (s *UserStore) GetByEmail(_ context.Context, email string) (*auth.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return &user, nil
		}
	}
	return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
}

// UpdateCredential replaces the credential and clears lockout state.
func (s *UserStore) UpdateCredential(_ context.Context, id string, cred auth.StoredCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return oops.Code("USER_NOT_FOUND").With("user_id", id).Wrap(auth.ErrNotFound)
	}
	user.ReplaceCredential(cred)
	s.users[id] = user
	return nil
}

// UpdateLockout persists the failure counter and lockout flag.
func (s *UserStore) UpdateLockout(_ context.Context, id string, failedLoginCount int, isLockedOut bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return oops.Code("USER_NOT_FOUND").With("user_id", id).Wrap(auth.ErrNotFound)
	}
	user.FailedLoginCount = failedLoginCount
	user.IsLockedOut = isLockedOut
	user.UpdatedAt = time.Now()
	s.users[id] = user
	return nil
}

// IncrementFailures adds one failed attempt under the write lock.
func (s *UserStore) IncrementFailures(_ context.Context, id string, threshold int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return 0, false, oops.Code("USER_NOT_FOUND").With("user_id", id).Wrap(auth.ErrNotFound)
	}
	user.RecordFailure(auth.NewLockoutPolicy(threshold))
	s.users[id] = user
	return user.FailedLoginCount, user.IsLockedOut, nil
}

// Compile-time interface checks.
var (
	_ auth.ResetTokenRepository = (*ResetTokenStore)(nil)
	_ auth.UserRepository       = (*UserStore)(nil)
)
