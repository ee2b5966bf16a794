// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package errutil

import (
	"errors"
	"net/http"
)

// CodeValidation is the code carried by request validation failures.
const CodeValidation = "VALIDATION_ERROR"

// Failure is an expected, user-facing domain error with a stable wire contract.
// Code, Message and Status never change once published.
type Failure struct {
	Code    string
	Message string
	Status  int
	// Field names the offending input for validation failures.
	Field string
}

// NewFailure creates a Failure.
func NewFailure(code, message string, status int) *Failure {
	return &Failure{Code: code, Message: message, Status: status}
}

func (f *Failure) Error() string {
	return f.Message
}

// Is matches failures by code so that copies of a sentinel compare equal.
func (f *Failure) Is(target error) bool {
	var other *Failure
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == f.Code
}

// InvalidField creates a 400 validation Failure for one input field.
func InvalidField(field, message string) *Failure {
	return &Failure{Code: CodeValidation, Message: message, Status: http.StatusBadRequest, Field: field}
}

// AsFailure extracts the outermost Failure in err's chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// StatusOf returns the HTTP status for err: the Failure's status, or 500.
func StatusOf(err error) int {
	if f, ok := AsFailure(err); ok {
		return f.Status
	}
	return http.StatusInternalServerError
}
