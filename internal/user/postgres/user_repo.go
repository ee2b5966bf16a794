// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/accountd/accountd/internal/user"
)

// usersEmailKey is the unique constraint on users.email.
const usersEmailKey = "users_email_key"

const userColumns = `id, email, password_hash, refresh_token_hash, created_at, updated_at`

// UserRepository implements user.Repository using PostgreSQL.
type UserRepository struct {
	pool poolIface
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool poolIface) *UserRepository {
	return &UserRepository{pool: pool}
}

// CreateWithProfile inserts the user and its profile in one transaction.
func (r *UserRepository) CreateWithProfile(ctx context.Context, u *user.User, p *user.Profile) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO users (id, email, password_hash, refresh_token_hash, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`,
			u.ID.String(),
			u.Email,
			u.PasswordHash,
			u.RefreshTokenHash,
			u.CreatedAt,
			u.UpdatedAt,
		); err != nil {
			return oops.With("operation", "insert user").Wrap(err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO profiles (user_id, first_name, last_name, birth_date, bio, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			p.UserID.String(),
			p.FirstName,
			p.LastName,
			p.BirthDate,
			p.Bio,
			p.CreatedAt,
			p.UpdatedAt,
		); err != nil {
			return oops.With("operation", "insert profile").Wrap(err)
		}
		return nil
	})
	if isUniqueViolation(err, usersEmailKey) {
		return oops.Code("USER_EMAIL_TAKEN").
			With("user_id", u.ID.String()).
			Wrap(user.ErrEmailTaken)
	}
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").
			With("user_id", u.ID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*user.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id.String())

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(user.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id.String()).
			Wrap(err)
	}
	return u, nil
}

// GetByEmail retrieves a user by exact email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(user.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}
	return u, nil
}

// ExistsByEmail reports whether the email is registered.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, oops.Code("USER_EXISTS_FAILED").
			With("operation", "check email").
			Wrap(err)
	}
	return exists, nil
}

// UpdatePasswordHash replaces the password hash.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id ulid.ULID, hash string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1
	`, id.String(), hash, time.Now().UTC())
	if err != nil {
		return oops.Code("USER_UPDATE_PASSWORD_FAILED").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(user.ErrNotFound)
	}
	return nil
}

// SetRefreshTokenHash overwrites or clears the stored refresh hash.
func (r *UserRepository) SetRefreshTokenHash(ctx context.Context, id ulid.ULID, hash *string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET refresh_token_hash = $2, updated_at = $3 WHERE id = $1
	`, id.String(), hash, time.Now().UTC())
	if err != nil {
		return oops.Code("USER_SET_REFRESH_HASH_FAILED").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(user.ErrNotFound)
	}
	return nil
}

// SwapRefreshTokenHash replaces expected with next only if expected is still stored.
func (r *UserRepository) SwapRefreshTokenHash(ctx context.Context, id ulid.ULID, expected, next string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET refresh_token_hash = $3, updated_at = $4
		WHERE id = $1 AND refresh_token_hash = $2
	`, id.String(), expected, next, time.Now().UTC())
	if err != nil {
		return oops.Code("USER_SWAP_REFRESH_HASH_FAILED").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_REFRESH_HASH_CHANGED").
			With("id", id.String()).
			Wrap(user.ErrRefreshTokenChanged)
	}
	return nil
}

// Delete removes a user; the profile is removed by cascade.
func (r *UserRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("USER_DELETE_FAILED").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(user.ErrNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (*user.User, error) {
	var (
		u     user.User
		idStr string
	)
	if err := row.Scan(&idStr, &u.Email, &u.PasswordHash, &u.RefreshTokenHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with operation context
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.With("operation", "parse user id").With("id", idStr).Wrap(err)
	}
	u.ID = id
	return &u, nil
}

var _ user.Repository = (*UserRepository)(nil)
