// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/accountd/accountd/internal/api"
	"github.com/accountd/accountd/internal/auth"
)

var _ api.Authenticator = (*MockAuthenticator)(nil)

// MockAuthenticator is a mock of api.Authenticator.
type MockAuthenticator struct {
	mock.Mock
}

// NewMockAuthenticator creates a MockAuthenticator whose expectations are asserted on cleanup.
func NewMockAuthenticator(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockAuthenticator {
	m := &MockAuthenticator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// AuthenticateAccess provides a mock function.
func (_m *MockAuthenticator) AuthenticateAccess(ctx context.Context, bearer string) (auth.Principal, error) {
	ret := _m.Called(ctx, bearer)
	r0, _ := ret.Get(0).(auth.Principal)
	return r0, ret.Error(1)
}

// AuthenticateRefresh provides a mock function.
func (_m *MockAuthenticator) AuthenticateRefresh(ctx context.Context, bearer string) (auth.RefreshCredential, error) {
	ret := _m.Called(ctx, bearer)
	r0, _ := ret.Get(0).(auth.RefreshCredential)
	return r0, ret.Error(1)
}
