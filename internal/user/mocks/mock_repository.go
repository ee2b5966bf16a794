// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package mocks provides testify mocks for the user repositories.
package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/accountd/accountd/internal/user"
)

// MockRepository is a mock of user.Repository.
type MockRepository struct {
	mock.Mock
}

// NewMockRepository creates a MockRepository whose expectations are asserted on cleanup.
func NewMockRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockRepository {
	m := &MockRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// CreateWithProfile provides a mock function.
func (_m *MockRepository) CreateWithProfile(ctx context.Context, u *user.User, p *user.Profile) error {
	ret := _m.Called(ctx, u, p)
	return ret.Error(0)
}

// GetByID provides a mock function.
func (_m *MockRepository) GetByID(ctx context.Context, id ulid.ULID) (*user.User, error) {
	ret := _m.Called(ctx, id)
	r0, _ := ret.Get(0).(*user.User)
	return r0, ret.Error(1)
}

// GetByEmail provides a mock function.
func (_m *MockRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	ret := _m.Called(ctx, email)
	r0, _ := ret.Get(0).(*user.User)
	return r0, ret.Error(1)
}

// ExistsByEmail provides a mock function.
func (_m *MockRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	ret := _m.Called(ctx, email)
	return ret.Bool(0), ret.Error(1)
}

// UpdatePasswordHash provides a mock function.
func (_m *MockRepository) UpdatePasswordHash(ctx context.Context, id ulid.ULID, hash string) error {
	ret := _m.Called(ctx, id, hash)
	return ret.Error(0)
}

// SetRefreshTokenHash provides a mock function.
func (_m *MockRepository) SetRefreshTokenHash(ctx context.Context, id ulid.ULID, hash *string) error {
	ret := _m.Called(ctx, id, hash)
	return ret.Error(0)
}

// SwapRefreshTokenHash provides a mock function.
func (_m *MockRepository) SwapRefreshTokenHash(ctx context.Context, id ulid.ULID, expected, next string) error {
	ret := _m.Called(ctx, id, expected, next)
	return ret.Error(0)
}

// Delete provides a mock function.
func (_m *MockRepository) Delete(ctx context.Context, id ulid.ULID) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

var _ user.Repository = (*MockRepository)(nil)
