// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package auth implements credentials and the session lifecycle.
//
// # Primitives
//
//   - PasswordHasher - salted slow hash for passwords and stored refresh credentials
//   - TokenHasher - fast digest applied to refresh tokens before PasswordHasher
//   - TokenIssuer - signs and verifies access/refresh token pairs under separate secrets
//
// A stored refresh credential is PasswordHasher.Hash(TokenHasher.Hash(token)).
// Raw refresh tokens are never persisted.
//
// # Services
//
//   - Service - Register, Login, Refresh, Logout
//   - Guard - bearer token authentication for access and refresh tokens
//
// Expected failures are the errutil.Failure values in errors.go. Anything else
// returned by this package is an infrastructure error.
package auth
