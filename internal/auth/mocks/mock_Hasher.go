// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/holomush/passcode/internal/auth"
)

// MockHasher is a mock implementation of auth.Hasher.
type MockHasher struct {
	mock.Mock
}

// NewMockHasher creates a mock that asserts its expectations on cleanup.
func NewMockHasher(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockHasher {
	m := &MockHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Kind provides a mock function.
func (m *MockHasher) Kind() auth.Kind {
	ret := m.Called()
	return ret.Get(0).(auth.Kind)
}

// HashLen provides a mock function.
func (m *MockHasher) HashLen() int {
	ret := m.Called()
	return ret.Int(0)
}

// Hash provides a mock function.
func (m *MockHasher) Hash(salt, secret string) (string, error) {
	ret := m.Called(salt, secret)
	return ret.String(0), ret.Error(1)
}

// Matches provides a mock function.
func (m *MockHasher) Matches(secret, salt, storedHash string) (bool, error) {
	ret := m.Called(secret, salt, storedHash)
	return ret.Bool(0), ret.Error(1)
}

// IsValid provides a mock function.
func (m *MockHasher) IsValid(secret string) bool {
	ret := m.Called(secret)
	return ret.Bool(0)
}

var _ auth.Hasher = (*MockHasher)(nil)
