// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package user holds the account and profile domain of accountd.
//
// # Domain Types
//
// User and Profile are created through their constructors:
//   - NewUser - validates the email and password hash and assigns a ULID
//   - NewProfile - validates names and birth date for an existing user id
//
// A Profile is owned by exactly one User and is created in the same
// transaction as the User (see Repository.CreateWithProfile).
//
// # Services
//
// Service implements the profile-facing use cases: fetch, paginated listing,
// owner-only profile edits and owner-only account deletion. Authentication
// lives in package auth, which consumes Repository through its own UserStore
// contract.
package user
