// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package user

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/accountd/accountd/pkg/errutil"
)

// User is an account that can authenticate.
type User struct {
	ID           ulid.ULID
	Email        string
	PasswordHash string
	// RefreshTokenHash is set while a refresh token is outstanding and nil
	// after logout or before the first login.
	RefreshTokenHash *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewUser creates a User with a fresh ID. The email is stored as given.
func NewUser(email, passwordHash string) (*User, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("USER_INVALID").Errorf("password hash cannot be empty")
	}
	now := time.Now().UTC()
	return &User{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// LoggedIn reports whether a refresh credential is currently stored.
func (u *User) LoggedIn() bool {
	return u.RefreshTokenHash != nil
}

// ValidateEmail checks that email is a single bare address.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return oops.Code("USER_INVALID").
			Wrap(errutil.InvalidField("email", "email must be an email"))
	}
	return nil
}

// Repository manages user persistence. Profiles are written through it only
// during registration; everything else goes through ProfileRepository.
type Repository interface {
	// CreateWithProfile stores a user and its profile atomically.
	CreateWithProfile(ctx context.Context, u *User, p *Profile) error

	// GetByID retrieves a user by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by exact email. Returns ErrNotFound if absent.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// ExistsByEmail reports whether a user with the exact email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// UpdatePasswordHash replaces the stored password hash.
	UpdatePasswordHash(ctx context.Context, id ulid.ULID, hash string) error

	// SetRefreshTokenHash overwrites the stored refresh hash; nil clears it.
	SetRefreshTokenHash(ctx context.Context, id ulid.ULID, hash *string) error

	// SwapRefreshTokenHash replaces expected with next in a single atomic write.
	// Returns ErrRefreshTokenChanged if the stored value is no longer expected.
	SwapRefreshTokenHash(ctx context.Context, id ulid.ULID, expected, next string) error

	// Delete removes a user and, by cascade, its profile.
	Delete(ctx context.Context, id ulid.ULID) error
}

func normalizeName(s string) string {
	return strings.TrimSpace(s)
}
