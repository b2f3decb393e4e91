// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/holomush/passcode/internal/auth"
)

// MockTokenSource is a mock implementation of auth.TokenSource.
type MockTokenSource struct {
	mock.Mock
}

// NewMockTokenSource creates a mock that asserts its expectations on cleanup.
func NewMockTokenSource(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockTokenSource {
	m := &MockTokenSource{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// ResetToken provides a mock function.
func (m *MockTokenSource) ResetToken() (string, error) {
	ret := m.Called()
	return ret.String(0), ret.Error(1)
}

// MockSaltSource is a mock implementation of auth.SaltSource.
type MockSaltSource struct {
	mock.Mock
}

// NewMockSaltSource creates a mock that asserts its expectations on cleanup.
func NewMockSaltSource(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockSaltSource {
	m := &MockSaltSource{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Salt provides a mock function.
func (m *MockSaltSource) Salt() (string, error) {
	ret := m.Called()
	return ret.String(0), ret.Error(1)
}

var (
	_ auth.TokenSource = (*MockTokenSource)(nil)
	_ auth.SaltSource  = (*MockSaltSource)(nil)
)
