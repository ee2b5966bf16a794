// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package api

import (
	"context"
	"net/http"

	"github.com/oklog/ulid/v2"

	"github.com/accountd/accountd/internal/auth"
	"github.com/accountd/accountd/internal/user"
)

// AuthService is the session lifecycle consumed by the auth routes.
type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (auth.TokenPair, error)
	Login(ctx context.Context, email, password string) (auth.TokenPair, error)
	Refresh(ctx context.Context, userID ulid.ULID, presented string) (auth.TokenPair, error)
	Logout(ctx context.Context, userID ulid.ULID) error
}

const logoutMessage = "Logged out successfully"

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decode(w, r, registerSchema, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	birthDate, err := user.ParseBirthDate(req.BirthDate)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	pair, err := h.auth.Register(r.Context(), auth.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: birthDate,
		Bio:       req.Bio,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, pair)
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(w, r, loginSchema, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	pair, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	cred, ok := refreshCredentialFrom(r.Context())
	if !ok {
		writeError(w, r, h.logger, auth.ErrInvalidRefreshToken)
		return
	}
	pair, err := h.auth.Refresh(r.Context(), cred.UserID, cred.Token)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r.Context())
	if !ok {
		writeError(w, r, h.logger, auth.ErrInvalidAccessToken)
		return
	}
	if err := h.auth.Logout(r.Context(), p.UserID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: logoutMessage})
}
