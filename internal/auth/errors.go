// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package auth

import (
	"net/http"

	"github.com/samber/oops"

	"github.com/accountd/accountd/pkg/errutil"
)

// Authentication failures. Their code, message and status are a wire contract.
var (
	ErrInvalidCredentials = errutil.NewFailure(
		"INVALID_CREDENTIALS", "Invalid credentials", http.StatusUnauthorized)
	ErrInvalidRefreshToken = errutil.NewFailure(
		"INVALID_REFRESH_TOKEN", "Invalid refresh token", http.StatusUnauthorized)
	ErrInvalidAccessToken = errutil.NewFailure(
		"INVALID_ACCESS_TOKEN", "Invalid access token", http.StatusUnauthorized)
	ErrEmailAlreadyInUse = errutil.NewFailure(
		"EMAIL_ALREADY_IN_USE", "Email is already in use", http.StatusConflict)
)

// reject wraps a failure with its own code and diagnostic context. The context
// is for logs only; callers see the failure's message.
func reject(f *errutil.Failure, kv ...any) error {
	return oops.Code(f.Code).With(kv...).Wrap(f)
}
