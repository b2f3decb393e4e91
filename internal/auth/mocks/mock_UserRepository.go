// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/holomush/passcode/internal/auth"
)

// MockUserRepository is a mock implementation of auth.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a mock that asserts its expectations on cleanup.
func NewMockUserRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockUserRepository {
	m := &MockUserRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// GetByID provides a mock function.
func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*auth.UserRecord, error) {
	ret := m.Called(ctx, id)
	var user *auth.UserRecord
	if v := ret.Get(0); v != nil {
		user = v.(*auth.UserRecord)
	}
	return user, ret.Error(1)
}

// GetByEmail provides a mock function.
func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*auth.UserRecord, error) {
	ret := m.Called(ctx, email)
	var user *auth.UserRecord
	if v := ret.Get(0); v != nil {
		user = v.(*auth.UserRecord)
	}
	return user, ret.Error(1)
}

// UpdateCredential provides a mock function.
func (m *MockUserRepository) UpdateCredential(ctx context.Context, id string, cred auth.StoredCredential) error {
	ret := m.Called(ctx, id, cred)
	return ret.Error(0)
}

// UpdateLockout provides a mock function.
func (m *MockUserRepository) UpdateLockout(ctx context.Context, id string, failedLoginCount int, isLockedOut bool) error {
	ret := m.Called(ctx, id, failedLoginCount, isLockedOut)
	return ret.Error(0)
}

// IncrementFailures provides a mock function.
func (m *MockUserRepository) IncrementFailures(ctx context.Context, id string, threshold int) (int, bool, error) {
	ret := m.Called(ctx, id, threshold)
	return ret.Int(0), ret.Bool(1), ret.Error(2)
}

var _ auth.UserRepository = (*MockUserRepository)(nil)
