// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package api_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/accountd/accountd/internal/api"
	"github.com/accountd/accountd/internal/api/mocks"
	"github.com/accountd/accountd/internal/auth"
	"github.com/accountd/accountd/internal/user"
)

type observation struct {
	method string
	route  string
	status int
}

type fakeObserver struct {
	mu   sync.Mutex
	seen []observation
}

func (f *fakeObserver) ObserveHTTPRequest(method, route string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, observation{method, route, status})
}

type testAPI struct {
	handler  http.Handler
	auth     *mocks.MockAuthService
	users    *mocks.MockUserService
	guard    *mocks.MockAuthenticator
	observer *fakeObserver
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ta := &testAPI{
		auth:     mocks.NewMockAuthService(t),
		users:    mocks.NewMockUserService(t),
		guard:    mocks.NewMockAuthenticator(t),
		observer: &fakeObserver{},
	}
	h, err := api.NewRouter(api.RouterConfig{
		Auth:     ta.auth,
		Users:    ta.users,
		Guard:    ta.guard,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Observer: ta.observer,
	})
	require.NoError(t, err)
	ta.handler = h
	return ta
}

func (ta *testAPI) do(method, path, body, bearer string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	ta.handler.ServeHTTP(rec, req)
	return rec
}

// signedIn makes the guard accept access token "tok" for id.
func (ta *testAPI) signedIn(id ulid.ULID) {
	ta.guard.On("AuthenticateAccess", mock.Anything, "tok").
		Return(auth.Principal{UserID: id, Email: "a@x.com"}, nil)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) api.ErrorResponse {
	t.Helper()
	require.Equal(t, status, rec.Code, "body: %s", rec.Body.String())
	body := decodeBody[api.ErrorResponse](t, rec)
	assert.Equal(t, status, body.StatusCode)
	require.NotEmpty(t, body.Errors)
	assert.Equal(t, code, body.Errors[0].Code)
	return body
}

const validRegistration = `{"email":"a@x.com","password":"Secret12","firstName":"Ada","lastName":"Lovelace","birthDate":"1990-12-10"}`

func TestNewRouter_RequiresCollaborators(t *testing.T) {
	_, err := api.NewRouter(api.RouterConfig{})
	assert.ErrorIs(t, err, api.ErrNilAuthService)

	_, err = api.NewRouter(api.RouterConfig{Auth: mocks.NewMockAuthService(t)})
	assert.ErrorIs(t, err, api.ErrNilUserService)

	_, err = api.NewRouter(api.RouterConfig{Auth: mocks.NewMockAuthService(t), Users: mocks.NewMockUserService(t)})
	assert.ErrorIs(t, err, api.ErrNilAuthenticator)
}

func TestRegister(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		ta := newTestAPI(t)
		pair := auth.TokenPair{AccessToken: "a1", RefreshToken: "r1"}
		ta.auth.On("Register", mock.Anything, auth.RegisterInput{
			Email:     "a@x.com",
			Password:  "Secret12",
			FirstName: "Ada",
			LastName:  "Lovelace",
			BirthDate: time.Date(1990, 12, 10, 0, 0, 0, 0, time.UTC),
		}).Return(pair, nil)

		rec := ta.do(http.MethodPost, "/auth/register", validRegistration, "")

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, pair, decodeBody[auth.TokenPair](t, rec))
		assert.JSONEq(t, `{"accessToken":"a1","refreshToken":"r1"}`, rec.Body.String())
	})

	t.Run("email already in use", func(t *testing.T) {
		ta := newTestAPI(t)
		ta.auth.On("Register", mock.Anything, mock.Anything).Return(auth.TokenPair{}, auth.ErrEmailAlreadyInUse)

		rec := ta.do(http.MethodPost, "/auth/register", validRegistration, "")

		body := assertError(t, rec, http.StatusConflict, "EMAIL_ALREADY_IN_USE")
		assert.Equal(t, "Email is already in use", body.Message)
	})

	invalid := []struct {
		name  string
		body  string
		field string
	}{
		{"bad email", `{"email":"nope","password":"Secret12","firstName":"Ada","lastName":"Lovelace","birthDate":"1990-12-10"}`, "email"},
		{"short password", `{"email":"a@x.com","password":"abc","firstName":"Ada","lastName":"Lovelace","birthDate":"1990-12-10"}`, "password"},
		{"long password", `{"email":"a@x.com","password":"` + strings.Repeat("x", 21) + `","firstName":"Ada","lastName":"Lovelace","birthDate":"1990-12-10"}`, "password"},
		{"short first name", `{"email":"a@x.com","password":"Secret12","firstName":"A","lastName":"Lovelace","birthDate":"1990-12-10"}`, "firstName"},
		{"bad birth date", `{"email":"a@x.com","password":"Secret12","firstName":"Ada","lastName":"Lovelace","birthDate":"10/12/1990"}`, "birthDate"},
		{"missing email", `{"password":"Secret12","firstName":"Ada","lastName":"Lovelace","birthDate":"1990-12-10"}`, "email"},
		{"unknown field", `{"email":"a@x.com","password":"Secret12","firstName":"Ada","lastName":"Lovelace","birthDate":"1990-12-10","role":"admin"}`, "role"},
	}
	for _, tt := range invalid {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			ta := newTestAPI(t)

			rec := ta.do(http.MethodPost, "/auth/register", tt.body, "")

			body := assertError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
			assert.Equal(t, "Validation failed", body.Message)
			fields := make([]string, 0, len(body.Errors))
			for _, e := range body.Errors {
				fields = append(fields, e.Field)
			}
			assert.Contains(t, fields, tt.field)
			ta.auth.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
		})
	}

	t.Run("rejects malformed json", func(t *testing.T) {
		ta := newTestAPI(t)
		rec := ta.do(http.MethodPost, "/auth/register", `{"email":`, "")
		assertError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
	})

	t.Run("rejects oversized body", func(t *testing.T) {
		ta := newTestAPI(t)
		huge := `{"email":"a@x.com","bio":"` + strings.Repeat("x", 2<<20) + `"}`
		rec := ta.do(http.MethodPost, "/auth/register", huge, "")
		assertError(t, rec, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE")
	})
}

func TestLogin(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		ta := newTestAPI(t)
		ta.auth.On("Login", mock.Anything, "a@x.com", "Secret12").
			Return(auth.TokenPair{AccessToken: "a1", RefreshToken: "r1"}, nil)

		rec := ta.do(http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"Secret12"}`, "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	})

	t.Run("invalid credentials", func(t *testing.T) {
		ta := newTestAPI(t)
		ta.auth.On("Login", mock.Anything, "a@x.com", "Wrong123").
			Return(auth.TokenPair{}, auth.ErrInvalidCredentials)

		rec := ta.do(http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"Wrong123"}`, "")

		body := assertError(t, rec, http.StatusUnauthorized, "INVALID_CREDENTIALS")
		assert.Equal(t, "Invalid credentials", body.Message)
	})

	t.Run("unexpected error is opaque", func(t *testing.T) {
		ta := newTestAPI(t)
		ta.auth.On("Login", mock.Anything, mock.Anything, mock.Anything).
			Return(auth.TokenPair{}, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

		rec := ta.do(http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"Secret12"}`, "")

		assertError(t, rec, http.StatusInternalServerError, "INTERNAL_ERROR")
		assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	})
}

func TestRefresh(t *testing.T) {
	t.Run("rotates", func(t *testing.T) {
		ta := newTestAPI(t)
		id := ulid.Make()
		ta.guard.On("AuthenticateRefresh", mock.Anything, "r1").
			Return(auth.RefreshCredential{UserID: id, Email: "a@x.com", Token: "r1"}, nil)
		ta.auth.On("Refresh", mock.Anything, id, "r1").
			Return(auth.TokenPair{AccessToken: "a2", RefreshToken: "r2"}, nil)

		rec := ta.do(http.MethodPost, "/auth/refresh", "", "r1")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, auth.TokenPair{AccessToken: "a2", RefreshToken: "r2"}, decodeBody[auth.TokenPair](t, rec))
	})

	t.Run("missing bearer", func(t *testing.T) {
		ta := newTestAPI(t)
		ta.guard.On("AuthenticateRefresh", mock.Anything, "").
			Return(auth.RefreshCredential{}, auth.ErrInvalidRefreshToken)

		rec := ta.do(http.MethodPost, "/auth/refresh", "", "")

		body := assertError(t, rec, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN")
		assert.Equal(t, "Invalid refresh token", body.Message)
	})

	t.Run("stale token", func(t *testing.T) {
		ta := newTestAPI(t)
		id := ulid.Make()
		ta.guard.On("AuthenticateRefresh", mock.Anything, "r1").
			Return(auth.RefreshCredential{UserID: id, Email: "a@x.com", Token: "r1"}, nil)
		ta.auth.On("Refresh", mock.Anything, id, "r1").Return(auth.TokenPair{}, auth.ErrInvalidRefreshToken)

		rec := ta.do(http.MethodPost, "/auth/refresh", "", "r1")

		assertError(t, rec, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN")
	})
}

func TestLogout(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		ta := newTestAPI(t)
		id := ulid.Make()
		ta.signedIn(id)
		ta.auth.On("Logout", mock.Anything, id).Return(nil)

		rec := ta.do(http.MethodPost, "/auth/logout", "", "tok")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Logged out successfully"}`, rec.Body.String())
	})

	t.Run("invalid access token", func(t *testing.T) {
		ta := newTestAPI(t)
		ta.guard.On("AuthenticateAccess", mock.Anything, "bad").
			Return(auth.Principal{}, auth.ErrInvalidAccessToken)

		rec := ta.do(http.MethodPost, "/auth/logout", "", "bad")

		body := assertError(t, rec, http.StatusUnauthorized, "INVALID_ACCESS_TOKEN")
		assert.Equal(t, "Invalid access token", body.Message)
		ta.auth.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
	})
}

func testProfile(id ulid.ULID) *user.Profile {
	bio := "Analyst"
	return &user.Profile{
		UserID:    id,
		FirstName: "Ada",
		LastName:  "Lovelace",
		BirthDate: time.Date(1990, 12, 10, 0, 0, 0, 0, time.UTC),
		Bio:       &bio,
	}
}

func TestListUsers(t *testing.T) {
	t.Run("passes query and renders meta", func(t *testing.T) {
		ta := newTestAPI(t)
		id := ulid.Make()
		ta.signedIn(id)
		ta.users.On("List", mock.Anything, user.ListQuery{
			Page: 2, Limit: 5, SortBy: user.SortByLastName, SortDir: user.SortDesc, Search: "ada",
		}).Return(&user.Page{Data: []*user.Profile{testProfile(id)}, Total: 6, Page: 2, Limit: 5, TotalPages: 2}, nil)

		rec := ta.do(http.MethodGet, "/users?page=2&limit=5&sortBy=lastName&sortDir=desc&search=ada", "", "tok")

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody[api.UserPage](t, rec)
		assert.Equal(t, api.PageMeta{Total: 6, Page: 2, Limit: 5, TotalPages: 2}, body.Meta)
		require.Len(t, body.Data, 1)
		assert.Equal(t, id.String(), body.Data[0].ID)
		assert.Equal(t, "1990-12-10", body.Data[0].Profile.BirthDate)
	})

	t.Run("empty page renders an empty array", func(t *testing.T) {
		ta := newTestAPI(t)
		ta.signedIn(ulid.Make())
		ta.users.On("List", mock.Anything, user.ListQuery{}).Return(&user.Page{Page: 1, Limit: 10}, nil)

		rec := ta.do(http.MethodGet, "/users", "", "tok")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"data":[]`)
	})

	t.Run("rejects a non-numeric page", func(t *testing.T) {
		ta := newTestAPI(t)
		ta.signedIn(ulid.Make())

		rec := ta.do(http.MethodGet, "/users?page=two", "", "tok")

		body := assertError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
		assert.Equal(t, "page", body.Errors[0].Field)
	})

	t.Run("requires an access token", func(t *testing.T) {
		ta := newTestAPI(t)
		ta.guard.On("AuthenticateAccess", mock.Anything, "").
			Return(auth.Principal{}, auth.ErrInvalidAccessToken)

		rec := ta.do(http.MethodGet, "/users", "", "")

		assertError(t, rec, http.StatusUnauthorized, "INVALID_ACCESS_TOKEN")
	})
}

func TestGetUser(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		ta := newTestAPI(t)
		id := ulid.Make()
		ta.signedIn(id)
		ta.users.On("Get", mock.Anything, id).Return(testProfile(id), nil)

		rec := ta.do(http.MethodGet, "/users/"+id.String(), "", "tok")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t,
			`{"id":"`+id.String()+`","profile":{"firstName":"Ada","lastName":"Lovelace","birthDate":"1990-12-10","bio":"Analyst"}}`,
			rec.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		ta := newTestAPI(t)
		id := ulid.Make()
		ta.signedIn(ulid.Make())
		ta.users.On("Get", mock.Anything, id).Return(nil, user.ErrUserNotFound)

		rec := ta.do(http.MethodGet, "/users/"+id.String(), "", "tok")

		body := assertError(t, rec, http.StatusNotFound, "USER_NOT_FOUND")
		assert.Equal(t, "User not found", body.Message)
	})

	t.Run("malformed id", func(t *testing.T) {
		ta := newTestAPI(t)
		ta.signedIn(ulid.Make())

		rec := ta.do(http.MethodGet, "/users/42", "", "tok")

		body := assertError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
		assert.Equal(t, "userId", body.Errors[0].Field)
	})
}

func TestUpdateUser(t *testing.T) {
	t.Run("owner edits", func(t *testing.T) {
		ta := newTestAPI(t)
		id := ulid.Make()
		ta.signedIn(id)
		first := "Augusta"
		birth := time.Date(1991, 1, 2, 0, 0, 0, 0, time.UTC)
		updated := testProfile(id)
		updated.FirstName = first
		ta.users.On("UpdateProfile", mock.Anything, id, id, user.ProfileUpdate{FirstName: &first, BirthDate: &birth}).
			Return(updated, nil)

		rec := ta.do(http.MethodPut, "/users/"+id.String(), `{"firstName":"Augusta","birthDate":"1991-01-02"}`, "tok")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Augusta", decodeBody[api.UserView](t, rec).Profile.FirstName)
	})

	t.Run("someone else's profile", func(t *testing.T) {
		ta := newTestAPI(t)
		actor, target := ulid.Make(), ulid.Make()
		ta.signedIn(actor)
		ta.users.On("UpdateProfile", mock.Anything, actor, target, mock.Anything).
			Return(nil, user.ErrNotAllowedToEditProfile)

		rec := ta.do(http.MethodPut, "/users/"+target.String(), `{"bio":"hi"}`, "tok")

		body := assertError(t, rec, http.StatusForbidden, "USER_NOT_ALLOWED_TO_EDIT_PROFILE")
		assert.Equal(t, "User is not allowed to edit this profile", body.Message)
	})

	t.Run("rejects short name", func(t *testing.T) {
		ta := newTestAPI(t)
		id := ulid.Make()
		ta.signedIn(id)

		rec := ta.do(http.MethodPut, "/users/"+id.String(), `{"lastName":"L"}`, "tok")

		assertError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
	})
}

func TestDeleteUser(t *testing.T) {
	t.Run("owner deletes", func(t *testing.T) {
		ta := newTestAPI(t)
		id := ulid.Make()
		ta.signedIn(id)
		ta.users.On("Delete", mock.Anything, id, id).Return(nil)

		rec := ta.do(http.MethodDelete, "/users/"+id.String(), "", "tok")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"User deleted successfully"}`, rec.Body.String())
	})

	t.Run("not allowed", func(t *testing.T) {
		ta := newTestAPI(t)
		actor, target := ulid.Make(), ulid.Make()
		ta.signedIn(actor)
		ta.users.On("Delete", mock.Anything, actor, target).Return(user.ErrNotAllowedToDelete)

		rec := ta.do(http.MethodDelete, "/users/"+target.String(), "", "tok")

		assertError(t, rec, http.StatusForbidden, "USER_NOT_ALLOWED_TO_DELETE")
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("security headers", func(t *testing.T) {
		ta := newTestAPI(t)
		rec := ta.do(http.MethodGet, "/nowhere", "", "")

		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
		assert.Empty(t, rec.Header().Get("Cache-Control"))
	})

	t.Run("unknown route", func(t *testing.T) {
		ta := newTestAPI(t)
		rec := ta.do(http.MethodGet, "/nowhere", "", "")
		assertError(t, rec, http.StatusNotFound, "ROUTE_NOT_FOUND")
	})

	t.Run("panic becomes 500", func(t *testing.T) {
		ta := newTestAPI(t)
		ta.auth.On("Login", mock.Anything, mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { panic("boom") })

		rec := ta.do(http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"Secret12"}`, "")

		assertError(t, rec, http.StatusInternalServerError, "INTERNAL_ERROR")
	})

	t.Run("observer sees route pattern and status", func(t *testing.T) {
		ta := newTestAPI(t)
		id := ulid.Make()
		ta.signedIn(id)
		ta.users.On("Get", mock.Anything, id).Return(testProfile(id), nil)

		ta.do(http.MethodGet, "/users/"+id.String(), "", "tok")

		require.Len(t, ta.observer.seen, 1)
		assert.Equal(t, observation{http.MethodGet, "GET /users/{userId}", http.StatusOK}, ta.observer.seen[0])
	})
}
