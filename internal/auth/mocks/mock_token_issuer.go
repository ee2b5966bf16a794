// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/accountd/accountd/internal/auth"
)

var _ auth.TokenIssuer = (*MockTokenIssuer)(nil)

// MockTokenIssuer is a mock of auth.TokenIssuer.
type MockTokenIssuer struct {
	mock.Mock
}

// NewMockTokenIssuer creates a MockTokenIssuer whose expectations are asserted on cleanup.
func NewMockTokenIssuer(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockTokenIssuer {
	m := &MockTokenIssuer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// GenerateTokenPair provides a mock function.
func (_m *MockTokenIssuer) GenerateTokenPair(ctx context.Context, payload auth.TokenPayload) (auth.TokenPair, error) {
	ret := _m.Called(ctx, payload)
	r0, _ := ret.Get(0).(auth.TokenPair)
	return r0, ret.Error(1)
}

// VerifyAccessToken provides a mock function.
func (_m *MockTokenIssuer) VerifyAccessToken(token string) (auth.TokenPayload, error) {
	ret := _m.Called(token)
	r0, _ := ret.Get(0).(auth.TokenPayload)
	return r0, ret.Error(1)
}

// VerifyRefreshToken provides a mock function.
func (_m *MockTokenIssuer) VerifyRefreshToken(token string) (auth.TokenPayload, error) {
	ret := _m.Called(token)
	r0, _ := ret.Get(0).(auth.TokenPayload)
	return r0, ret.Error(1)
}
