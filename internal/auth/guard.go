// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/accountd/accountd/internal/user"
)

// Principal is the verified identity behind an access token.
type Principal struct {
	UserID ulid.ULID
	Email  string
}

// RefreshCredential is a signature-verified refresh token and its claims.
// Its match against the stored hash is checked by Service.Refresh.
type RefreshCredential struct {
	UserID ulid.ULID
	Email  string
	Token  string
}

// userLookup is the part of UserStore the guards need.
type userLookup interface {
	GetByID(ctx context.Context, id ulid.ULID) (*user.User, error)
}

// Guard authenticates bearer tokens at the request boundary.
type Guard struct {
	issuer TokenIssuer
	users  userLookup
}

// NewGuard creates a Guard.
func NewGuard(issuer TokenIssuer, users UserStore) (*Guard, error) {
	if issuer == nil {
		return nil, ErrNilTokenIssuer
	}
	if users == nil {
		return nil, ErrNilUserStore
	}
	return &Guard{issuer: issuer, users: users}, nil
}

// BearerToken extracts the token from an Authorization header value.
// It returns "" when the header is not a bearer credential.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// AuthenticateAccess verifies an access token and confirms its subject still
// exists. Every failure is ErrInvalidAccessToken.
func (g *Guard) AuthenticateAccess(ctx context.Context, bearer string) (Principal, error) {
	if bearer == "" {
		return Principal{}, reject(ErrInvalidAccessToken, "reason", "missing token")
	}
	payload, err := g.issuer.VerifyAccessToken(bearer)
	if err != nil {
		return Principal{}, err
	}
	id, err := wellFormed(payload)
	if err != nil {
		return Principal{}, reject(ErrInvalidAccessToken, "reason", err.Error())
	}

	if _, err := g.users.GetByID(ctx, id); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Principal{}, reject(ErrInvalidAccessToken, "reason", "unknown user", "user_id", id.String())
		}
		return Principal{}, oops.Code("AUTH_GUARD_FAILED").
			With("operation", "get user").
			With("user_id", id.String()).
			Wrap(err)
	}
	return Principal{UserID: id, Email: payload.Email}, nil
}

// AuthenticateRefresh verifies a refresh token under the refresh secret and
// checks its claims. Every failure is ErrInvalidRefreshToken.
func (g *Guard) AuthenticateRefresh(_ context.Context, bearer string) (RefreshCredential, error) {
	if bearer == "" {
		return RefreshCredential{}, reject(ErrInvalidRefreshToken, "reason", "missing token")
	}
	payload, err := g.issuer.VerifyRefreshToken(bearer)
	if err != nil {
		return RefreshCredential{}, err
	}
	id, err := wellFormed(payload)
	if err != nil {
		return RefreshCredential{}, reject(ErrInvalidRefreshToken, "reason", err.Error())
	}
	return RefreshCredential{UserID: id, Email: payload.Email, Token: bearer}, nil
}

// wellFormed checks that payload carries a user ID subject and an email.
func wellFormed(payload TokenPayload) (ulid.ULID, error) {
	if payload.Email == "" {
		return ulid.ULID{}, errors.New("missing email claim")
	}
	if payload.Subject == "" {
		return ulid.ULID{}, errors.New("missing subject claim")
	}
	return payload.UserID()
}
