// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/accountd/accountd/internal/api"
	"github.com/accountd/accountd/internal/user"
)

var _ api.UserService = (*MockUserService)(nil)

// MockUserService is a mock of api.UserService.
type MockUserService struct {
	mock.Mock
}

// NewMockUserService creates a MockUserService whose expectations are asserted on cleanup.
func NewMockUserService(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockUserService {
	m := &MockUserService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Get provides a mock function.
func (_m *MockUserService) Get(ctx context.Context, id ulid.ULID) (*user.Profile, error) {
	ret := _m.Called(ctx, id)
	r0, _ := ret.Get(0).(*user.Profile)
	return r0, ret.Error(1)
}

// List provides a mock function.
func (_m *MockUserService) List(ctx context.Context, q user.ListQuery) (*user.Page, error) {
	ret := _m.Called(ctx, q)
	r0, _ := ret.Get(0).(*user.Page)
	return r0, ret.Error(1)
}

// UpdateProfile provides a mock function.
func (_m *MockUserService) UpdateProfile(ctx context.Context, actorID, userID ulid.ULID, upd user.ProfileUpdate) (*user.Profile, error) {
	ret := _m.Called(ctx, actorID, userID, upd)
	r0, _ := ret.Get(0).(*user.Profile)
	return r0, ret.Error(1)
}

// Delete provides a mock function.
func (_m *MockUserService) Delete(ctx context.Context, actorID, userID ulid.ULID) error {
	ret := _m.Called(ctx, actorID, userID)
	return ret.Error(0)
}
