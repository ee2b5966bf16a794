// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/accountd/accountd/internal/user"
)

const profileColumns = `user_id, first_name, last_name, birth_date, bio, created_at, updated_at`

// sortColumns maps API sort fields to SQL columns. Only these are ever
// interpolated into ORDER BY.
var sortColumns = map[user.SortField]string{
	user.SortByCreatedAt: "created_at",
	user.SortByUpdatedAt: "updated_at",
	user.SortByFirstName: "first_name",
	user.SortByLastName:  "last_name",
	user.SortByBirthDate: "birth_date",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ProfileRepository implements user.ProfileRepository using PostgreSQL.
type ProfileRepository struct {
	pool poolIface
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(pool poolIface) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// GetByUserID retrieves the profile of a user.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID ulid.ULID) (*user.Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID.String())

	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PROFILE_NOT_FOUND").
			With("user_id", userID.String()).
			Wrap(user.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PROFILE_GET_FAILED").
			With("operation", "get profile by user id").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return p, nil
}

// Update stores the mutable profile fields.
func (r *ProfileRepository) Update(ctx context.Context, p *user.Profile) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE profiles
		SET first_name = $2, last_name = $3, birth_date = $4, bio = $5, updated_at = $6
		WHERE user_id = $1
	`,
		p.UserID.String(),
		p.FirstName,
		p.LastName,
		p.BirthDate,
		p.Bio,
		p.UpdatedAt,
	)
	if err != nil {
		return oops.Code("PROFILE_UPDATE_FAILED").
			With("user_id", p.UserID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PROFILE_NOT_FOUND").
			With("user_id", p.UserID.String()).
			Wrap(user.ErrNotFound)
	}
	return nil
}

// List returns one page of profiles and the total number of matches.
// q must already be normalized.
func (r *ProfileRepository) List(ctx context.Context, q user.ListQuery) ([]*user.Profile, int, error) {
	column, ok := sortColumns[q.SortBy]
	if !ok {
		return nil, 0, oops.Code("PROFILE_LIST_FAILED").With("sort_by", q.SortBy).Errorf("unsupported sort field")
	}
	dir := "ASC"
	if q.SortDir == user.SortDesc {
		dir = "DESC"
	}

	where, args := "", []any{}
	if q.Search != "" {
		args = append(args, "%"+likeEscaper.Replace(q.Search)+"%")
		where = ` WHERE first_name ILIKE $1 OR last_name ILIKE $1`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`+where, args...).Scan(&total); err != nil {
		return nil, 0, oops.Code("PROFILE_LIST_FAILED").
			With("operation", "count profiles").
			Wrap(err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM profiles%s ORDER BY %s %s, user_id ASC LIMIT $%d OFFSET $%d`,
		profileColumns, where, column, dir, n+1, n+2)
	rows, err := r.pool.Query(ctx, query, append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, 0, oops.Code("PROFILE_LIST_FAILED").
			With("operation", "query profiles").
			Wrap(err)
	}
	defer rows.Close()

	profiles := make([]*user.Profile, 0, q.Limit)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, oops.Code("PROFILE_LIST_FAILED").
				With("operation", "scan profile row").
				Wrap(err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, oops.Code("PROFILE_LIST_FAILED").
			With("operation", "iterate profiles").
			Wrap(err)
	}
	return profiles, total, nil
}

func scanProfile(row pgx.Row) (*user.Profile, error) {
	var (
		p     user.Profile
		idStr string
	)
	if err := row.Scan(&idStr, &p.FirstName, &p.LastName, &p.BirthDate, &p.Bio, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with operation context
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.With("operation", "parse profile user id").With("user_id", idStr).Wrap(err)
	}
	p.UserID = id
	return &p, nil
}

var _ user.ProfileRepository = (*ProfileRepository)(nil)
