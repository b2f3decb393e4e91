// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/holomush/passcode/internal/auth"
)

// MockResetTokenRepository is a mock implementation of auth.ResetTokenRepository.
type MockResetTokenRepository struct {
	mock.Mock
}

// NewMockResetTokenRepository creates a mock that asserts its expectations on cleanup.
func NewMockResetTokenRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockResetTokenRepository {
	m := &MockResetTokenRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create provides a mock function.
func (m *MockResetTokenRepository) Create(ctx context.Context, token *auth.ResetToken) error {
	ret := m.Called(ctx, token)
	if fn, ok := ret.Get(0).(func(context.Context, *auth.ResetToken) error); ok {
		return fn(ctx, token)
	}
	return ret.Error(0)
}

// GetByTokenHash provides a mock function.
func (m *MockResetTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.ResetToken, error) {
	ret := m.Called(ctx, tokenHash)
	var token *auth.ResetToken
	if v := ret.Get(0); v != nil {
		token = v.(*auth.ResetToken)
	}
	return token, ret.Error(1)
}

// DeleteByUser provides a mock function.
func (m *MockResetTokenRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	ret := m.Called(ctx, userID)
	return ret.Get(0).(int64), ret.Error(1)
}

// DeleteExpired provides a mock function.
func (m *MockResetTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	ret := m.Called(ctx)
	return ret.Get(0).(int64), ret.Error(1)
}

var _ auth.ResetTokenRepository = (*MockResetTokenRepository)(nil)
