// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package api

import (
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("accountd/api")

// Construction errors.
var (
	ErrNilAuthService   = errors.New("auth service is required")
	ErrNilUserService   = errors.New("user service is required")
	ErrNilAuthenticator = errors.New("authenticator is required")
)

// RouterConfig holds the collaborators of the HTTP API.
type RouterConfig struct {
	Auth     AuthService
	Users    UserService
	Guard    Authenticator
	Logger   *slog.Logger
	Observer RequestObserver
}

type handlers struct {
	auth   AuthService
	users  UserService
	logger *slog.Logger
}

// NewRouter builds the API handler with its middleware chain.
func NewRouter(cfg RouterConfig) (http.Handler, error) {
	switch {
	case cfg.Auth == nil:
		return nil, ErrNilAuthService
	case cfg.Users == nil:
		return nil, ErrNilUserService
	case cfg.Guard == nil:
		return nil, ErrNilAuthenticator
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var observer RequestObserver = nopObserver{}
	if cfg.Observer != nil {
		observer = cfg.Observer
	}

	h := &handlers{auth: cfg.Auth, users: cfg.Users, logger: logger}
	access := func(fn http.HandlerFunc) http.Handler { return requireAccess(cfg.Guard, logger, fn) }

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", h.register)
	mux.HandleFunc("POST /auth/login", h.login)
	mux.Handle("POST /auth/refresh", requireRefresh(cfg.Guard, logger, h.refresh))
	mux.Handle("POST /auth/logout", access(h.logout))

	mux.Handle("GET /users", access(h.listUsers))
	mux.Handle("GET /users/{userId}", access(h.getUser))
	mux.Handle("PUT /users/{userId}", access(h.updateUser))
	mux.Handle("DELETE /users/{userId}", access(h.deleteUser))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, logger, errRouteNotFound)
	})

	return instrument(logger, observer)(securityHeaders(recoverer(logger)(mux))), nil
}
