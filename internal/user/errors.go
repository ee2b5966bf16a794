// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package user

import (
	"errors"
	"net/http"

	"github.com/accountd/accountd/pkg/errutil"
)

// ErrNotFound is returned by repositories when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrRefreshTokenChanged is returned by Repository.SwapRefreshTokenHash when the
// stored hash no longer equals the expected value.
var ErrRefreshTokenChanged = errors.New("refresh token hash changed")

// ErrEmailTaken is returned by Repository.CreateWithProfile when the email
// collides with an existing account.
var ErrEmailTaken = errors.New("email already taken")

// Domain failures surfaced to API callers.
var (
	ErrUserNotFound = errutil.NewFailure(
		"USER_NOT_FOUND", "User not found", http.StatusNotFound)
	ErrProfileNotFound = errutil.NewFailure(
		"PROFILE_NOT_FOUND", "Profile not found", http.StatusNotFound)
	ErrNotAllowedToDelete = errutil.NewFailure(
		"USER_NOT_ALLOWED_TO_DELETE", "User is not allowed to delete this resource", http.StatusForbidden)
	ErrNotAllowedToEditProfile = errutil.NewFailure(
		"USER_NOT_ALLOWED_TO_EDIT_PROFILE", "User is not allowed to edit this profile", http.StatusForbidden)
)
