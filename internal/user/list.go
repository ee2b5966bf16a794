// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package user

import (
	"math"
	"strings"

	"github.com/samber/oops"

	"github.com/accountd/accountd/pkg/errutil"
)

// Pagination bounds.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// SortField is a sortable profile column.
type SortField string

// Sortable fields.
const (
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
	SortByFirstName SortField = "firstName"
	SortByLastName  SortField = "lastName"
	SortByBirthDate SortField = "birthDate"
)

// SortDir is an ordering direction.
type SortDir string

// Directions.
const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// ListQuery selects a page of profiles.
type ListQuery struct {
	Page    int
	Limit   int
	SortBy  SortField
	SortDir SortDir
	// Search filters by first or last name, case-insensitively.
	Search string
}

// Normalize fills defaults and rejects unknown sort settings.
func (q ListQuery) Normalize() (ListQuery, error) {
	if q.Page <= 0 {
		q.Page = DefaultPage
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	// Offset must stay representable.
	if q.Page-1 > math.MaxInt/q.Limit {
		return q, oops.Code("LIST_QUERY_INVALID").With("page", q.Page).
			Wrap(errutil.InvalidField("page", "page is too large"))
	}
	if q.SortBy == "" {
		q.SortBy = SortByCreatedAt
	}
	switch q.SortBy {
	case SortByCreatedAt, SortByUpdatedAt, SortByFirstName, SortByLastName, SortByBirthDate:
	default:
		return q, oops.Code("LIST_QUERY_INVALID").With("sort_by", q.SortBy).
			Wrap(errutil.InvalidField("sortBy", "sortBy must be one of createdAt, updatedAt, firstName, lastName, birthDate"))
	}
	q.SortDir = SortDir(strings.ToLower(string(q.SortDir)))
	if q.SortDir == "" {
		q.SortDir = SortAsc
	}
	if q.SortDir != SortAsc && q.SortDir != SortDesc {
		return q, oops.Code("LIST_QUERY_INVALID").With("sort_dir", q.SortDir).
			Wrap(errutil.InvalidField("sortDir", "sortDir must be asc or desc"))
	}
	q.Search = strings.TrimSpace(q.Search)
	return q, nil
}

// Offset is the number of rows skipped before the page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Page is one slice of a profile listing.
type Page struct {
	Data       []*Profile
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

func newPage(profiles []*Profile, total int, q ListQuery) *Page {
	return &Page{
		Data:       profiles,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: (total + q.Limit - 1) / q.Limit,
	}
}
