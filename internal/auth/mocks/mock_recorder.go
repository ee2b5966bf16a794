// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/accountd/accountd/internal/auth"
)

var _ auth.Recorder = (*MockRecorder)(nil)

// MockRecorder is a mock of auth.Recorder.
type MockRecorder struct {
	mock.Mock
}

// NewMockRecorder creates a MockRecorder whose expectations are asserted on cleanup.
func NewMockRecorder(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockRecorder {
	m := &MockRecorder{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// RecordAuthOperation provides a mock function.
func (_m *MockRecorder) RecordAuthOperation(operation, outcome string) {
	_m.Called(operation, outcome)
}
