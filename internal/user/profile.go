// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package user

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/accountd/accountd/pkg/errutil"
)

// DateLayout is the wire format of birth dates.
const DateLayout = time.DateOnly

// MinNameLength is the shortest accepted first or last name.
const MinNameLength = 2

// Profile holds the personal details of a User. It shares the user's ID.
type Profile struct {
	UserID    ulid.ULID
	FirstName string
	LastName  string
	BirthDate time.Time
	Bio       *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProfile creates a validated Profile for userID.
func NewProfile(userID ulid.ULID, firstName, lastName string, birthDate time.Time, bio *string) (*Profile, error) {
	now := time.Now().UTC()
	p := &Profile{
		UserID:    userID,
		FirstName: normalizeName(firstName),
		LastName:  normalizeName(lastName),
		BirthDate: truncateDate(birthDate),
		Bio:       bio,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the profile invariants.
func (p *Profile) Validate() error {
	if len([]rune(p.FirstName)) < MinNameLength {
		return oops.Code("PROFILE_INVALID").
			Wrap(errutil.InvalidField("firstName", fmt.Sprintf("firstName must be at least %d characters", MinNameLength)))
	}
	if len([]rune(p.LastName)) < MinNameLength {
		return oops.Code("PROFILE_INVALID").
			Wrap(errutil.InvalidField("lastName", fmt.Sprintf("lastName must be at least %d characters", MinNameLength)))
	}
	if p.BirthDate.IsZero() {
		return oops.Code("PROFILE_INVALID").
			Wrap(errutil.InvalidField("birthDate", "birthDate is required"))
	}
	if p.BirthDate.After(time.Now().UTC()) {
		return oops.Code("PROFILE_INVALID").
			Wrap(errutil.InvalidField("birthDate", "birthDate cannot be in the future"))
	}
	return nil
}

// ProfileUpdate is a partial profile edit; nil fields are left untouched.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	BirthDate *time.Time
	Bio       *string
}

// Apply merges u into p and validates the result.
func (p *Profile) Apply(u ProfileUpdate) error {
	next := *p
	if u.FirstName != nil {
		next.FirstName = normalizeName(*u.FirstName)
	}
	if u.LastName != nil {
		next.LastName = normalizeName(*u.LastName)
	}
	if u.BirthDate != nil {
		next.BirthDate = truncateDate(*u.BirthDate)
	}
	if u.Bio != nil {
		next.Bio = u.Bio
	}
	if err := next.Validate(); err != nil {
		return err
	}
	next.UpdatedAt = time.Now().UTC()
	*p = next
	return nil
}

// ParseBirthDate parses a YYYY-MM-DD date.
func ParseBirthDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, oops.Code("PROFILE_INVALID").
			Wrap(errutil.InvalidField("birthDate", "birthDate must be a date in YYYY-MM-DD format"))
	}
	return d, nil
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ProfileRepository manages profile persistence.
type ProfileRepository interface {
	// GetByUserID retrieves the profile of a user. Returns ErrNotFound if absent.
	GetByUserID(ctx context.Context, userID ulid.ULID) (*Profile, error)

	// Update stores the mutable fields of p. Returns ErrNotFound if absent.
	Update(ctx context.Context, p *Profile) error

	// List returns one page of profiles matching q and the total match count.
	List(ctx context.Context, q ListQuery) ([]*Profile, int, error)
}
