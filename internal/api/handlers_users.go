// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/accountd/accountd/internal/auth"
	"github.com/accountd/accountd/internal/user"
	"github.com/accountd/accountd/pkg/errutil"
)

// UserService is the profile side consumed by the users routes.
type UserService interface {
	Get(ctx context.Context, id ulid.ULID) (*user.Profile, error)
	List(ctx context.Context, q user.ListQuery) (*user.Page, error)
	UpdateProfile(ctx context.Context, actorID, userID ulid.ULID, upd user.ProfileUpdate) (*user.Profile, error)
	Delete(ctx context.Context, actorID, userID ulid.ULID) error
}

const deletedMessage = "User deleted successfully"

// ProfileView is the public shape of a profile.
type ProfileView struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	BirthDate string  `json:"birthDate"`
	Bio       *string `json:"bio"`
}

// UserView is the public shape of a user.
type UserView struct {
	ID      string      `json:"id"`
	Profile ProfileView `json:"profile"`
}

// PageMeta describes a page of a listing.
type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// UserPage is the body of GET /users.
type UserPage struct {
	Data []UserView `json:"data"`
	Meta PageMeta   `json:"meta"`
}

func viewOf(p *user.Profile) UserView {
	return UserView{
		ID: p.UserID.String(),
		Profile: ProfileView{
			FirstName: p.FirstName,
			LastName:  p.LastName,
			BirthDate: p.BirthDate.Format(user.DateLayout),
			Bio:       p.Bio,
		},
	}
}

func (h *handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	q, err := listQueryFrom(r.URL.Query())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	page, err := h.users.List(r.Context(), q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out := UserPage{
		Data: make([]UserView, 0, len(page.Data)),
		Meta: PageMeta{Total: page.Total, Page: page.Page, Limit: page.Limit, TotalPages: page.TotalPages},
	}
	for _, p := range page.Data {
		out.Data = append(out.Data, viewOf(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	p, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(p))
}

func (h *handlers) updateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFrom(r.Context())
	if !ok {
		writeError(w, r, h.logger, auth.ErrInvalidAccessToken)
		return
	}
	id, err := userIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req UpdateProfileRequest
	if err := decode(w, r, updateProfileSchema, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	upd := user.ProfileUpdate{FirstName: req.FirstName, LastName: req.LastName, Bio: req.Bio}
	if req.BirthDate != nil {
		d, err := user.ParseBirthDate(*req.BirthDate)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		upd.BirthDate = &d
	}

	p, err := h.users.UpdateProfile(r.Context(), actor.UserID, id, upd)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(p))
}

func (h *handlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFrom(r.Context())
	if !ok {
		writeError(w, r, h.logger, auth.ErrInvalidAccessToken)
		return
	}
	id, err := userIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.users.Delete(r.Context(), actor.UserID, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: deletedMessage})
}

func userIDParam(r *http.Request) (ulid.ULID, error) {
	raw := r.PathValue("userId")
	id, err := ulid.Parse(raw)
	if err != nil {
		return ulid.ULID{}, oops.Code("USER_ID_INVALID").With("user_id", raw).
			Wrap(errutil.InvalidField("userId", "userId must be a valid user id"))
	}
	return id, nil
}

// listQueryFrom reads pagination parameters. Range and enum checks happen
// in ListQuery.Normalize.
func listQueryFrom(v url.Values) (user.ListQuery, error) {
	q := user.ListQuery{
		SortBy:  user.SortField(v.Get("sortBy")),
		SortDir: user.SortDir(v.Get("sortDir")),
		Search:  v.Get("search"),
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &q.Page}, {"limit", &q.Limit}} {
		raw := v.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return q, errutil.InvalidField(p.name, p.name+" must be a positive integer")
		}
		*p.dst = n
	}
	return q, nil
}
