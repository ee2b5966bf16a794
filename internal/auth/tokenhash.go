// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// TokenHasher digests opaque tokens before they reach the PasswordHasher.
// The digest has a fixed length, so long signed tokens never inflate the cost
// of the slow hash.
type TokenHasher interface {
	Hash(token string) string
}

// SHA256TokenHasher implements TokenHasher as hex-encoded SHA-256.
type SHA256TokenHasher struct{}

// NewSHA256TokenHasher creates a SHA256TokenHasher.
func NewSHA256TokenHasher() SHA256TokenHasher {
	return SHA256TokenHasher{}
}

// Hash returns the 64-character hex SHA-256 digest of token.
func (SHA256TokenHasher) Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
