// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package mocks provides testify mocks for the API collaborators.
package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/accountd/accountd/internal/api"
	"github.com/accountd/accountd/internal/auth"
)

var _ api.AuthService = (*MockAuthService)(nil)

// MockAuthService is a mock of api.AuthService.
type MockAuthService struct {
	mock.Mock
}

// NewMockAuthService creates a MockAuthService whose expectations are asserted on cleanup.
func NewMockAuthService(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockAuthService {
	m := &MockAuthService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Register provides a mock function.
func (_m *MockAuthService) Register(ctx context.Context, in auth.RegisterInput) (auth.TokenPair, error) {
	ret := _m.Called(ctx, in)
	r0, _ := ret.Get(0).(auth.TokenPair)
	return r0, ret.Error(1)
}

// Login provides a mock function.
func (_m *MockAuthService) Login(ctx context.Context, email, password string) (auth.TokenPair, error) {
	ret := _m.Called(ctx, email, password)
	r0, _ := ret.Get(0).(auth.TokenPair)
	return r0, ret.Error(1)
}

// Refresh provides a mock function.
func (_m *MockAuthService) Refresh(ctx context.Context, userID ulid.ULID, presented string) (auth.TokenPair, error) {
	ret := _m.Called(ctx, userID, presented)
	r0, _ := ret.Get(0).(auth.TokenPair)
	return r0, ret.Error(1)
}

// Logout provides a mock function.
func (_m *MockAuthService) Logout(ctx context.Context, userID ulid.ULID) error {
	ret := _m.Called(ctx, userID)
	return ret.Error(0)
}
