// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/accountd/accountd/internal/user"
)

// MockProfileRepository is a mock of user.ProfileRepository.
type MockProfileRepository struct {
	mock.Mock
}

// NewMockProfileRepository creates a MockProfileRepository whose expectations are asserted on cleanup.
func NewMockProfileRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockProfileRepository {
	m := &MockProfileRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// GetByUserID provides a mock function.
func (_m *MockProfileRepository) GetByUserID(ctx context.Context, userID ulid.ULID) (*user.Profile, error) {
	ret := _m.Called(ctx, userID)
	r0, _ := ret.Get(0).(*user.Profile)
	return r0, ret.Error(1)
}

// Update provides a mock function.
func (_m *MockProfileRepository) Update(ctx context.Context, p *user.Profile) error {
	ret := _m.Called(ctx, p)
	return ret.Error(0)
}

// List provides a mock function.
func (_m *MockProfileRepository) List(ctx context.Context, q user.ListQuery) ([]*user.Profile, int, error) {
	ret := _m.Called(ctx, q)
	r0, _ := ret.Get(0).([]*user.Profile)
	return r0, ret.Int(1), ret.Error(2)
}

var _ user.ProfileRepository = (*MockProfileRepository)(nil)
