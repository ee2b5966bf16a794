// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"

	"github.com/accountd/accountd/pkg/errutil"
)

// Token lifetime defaults.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
	DefaultIssuer     = "accountd"
)

// TokenPayload is the claim set signed into both tokens of a pair.
type TokenPayload struct {
	Subject string
	Email   string
}

// UserID parses the subject as a user ID.
func (p TokenPayload) UserID() (ulid.ULID, error) {
	id, err := ulid.Parse(p.Subject)
	if err != nil {
		return ulid.ULID{}, oops.Code("AUTH_INVALID_SUBJECT").With("subject", p.Subject).Wrap(err)
	}
	return id, nil
}

// TokenPair is an access token and a refresh token minted together.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenIssuer signs and verifies token pairs.
type TokenIssuer interface {
	// GenerateTokenPair signs payload as an access and a refresh token.
	// Either both tokens are returned or neither is.
	GenerateTokenPair(ctx context.Context, payload TokenPayload) (TokenPair, error)

	// VerifyAccessToken checks signature and expiry under the access secret.
	VerifyAccessToken(token string) (TokenPayload, error)

	// VerifyRefreshToken checks signature and expiry under the refresh secret.
	VerifyRefreshToken(token string) (TokenPayload, error)
}

// TokenConfig configures a JWTIssuer.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	// Now overrides the clock used for iat, exp and expiry checks.
	Now func() time.Time
}

// Validate checks that both secrets are present and distinct and that the
// access token expires before the refresh token.
func (c TokenConfig) Validate() error {
	switch {
	case c.AccessSecret == "":
		return oops.Code("TOKEN_CONFIG_INVALID").Errorf("access token secret is required")
	case c.RefreshSecret == "":
		return oops.Code("TOKEN_CONFIG_INVALID").Errorf("refresh token secret is required")
	case c.AccessSecret == c.RefreshSecret:
		return oops.Code("TOKEN_CONFIG_INVALID").Errorf("access and refresh token secrets must differ")
	case c.AccessTTL <= 0 || c.RefreshTTL <= 0:
		return oops.Code("TOKEN_CONFIG_INVALID").
			With("access_ttl", c.AccessTTL).
			With("refresh_ttl", c.RefreshTTL).
			Errorf("token lifetimes must be positive")
	case c.AccessTTL >= c.RefreshTTL:
		return oops.Code("TOKEN_CONFIG_INVALID").
			With("access_ttl", c.AccessTTL).
			With("refresh_ttl", c.RefreshTTL).
			Errorf("access token lifetime must be shorter than refresh token lifetime")
	}
	return nil
}

// claims is the JWT body of both token kinds.
type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// tokenKind binds a secret and lifetime to the failure reported when
// verification under that secret fails.
type tokenKind struct {
	name    string
	secret  []byte
	ttl     time.Duration
	failure *errutil.Failure
}

// JWTIssuer implements TokenIssuer with HS256 JWTs.
type JWTIssuer struct {
	access  tokenKind
	refresh tokenKind
	issuer  string
	now     func() time.Time
}

// NewJWTIssuer creates a JWTIssuer from a validated config.
func NewJWTIssuer(cfg TokenConfig) (*JWTIssuer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = DefaultIssuer
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &JWTIssuer{
		access:  tokenKind{name: "access", secret: []byte(cfg.AccessSecret), ttl: cfg.AccessTTL, failure: ErrInvalidAccessToken},
		refresh: tokenKind{name: "refresh", secret: []byte(cfg.RefreshSecret), ttl: cfg.RefreshTTL, failure: ErrInvalidRefreshToken},
		issuer:  issuer,
		now:     now,
	}, nil
}

// GenerateTokenPair signs both tokens concurrently.
func (j *JWTIssuer) GenerateTokenPair(ctx context.Context, payload TokenPayload) (TokenPair, error) {
	var pair TokenPair
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		token, err := j.sign(ctx, j.access, payload)
		pair.AccessToken = token
		return err
	})
	g.Go(func() error {
		token, err := j.sign(ctx, j.refresh, payload)
		pair.RefreshToken = token
		return err
	})
	if err := g.Wait(); err != nil {
		return TokenPair{}, oops.Code("TOKEN_SIGN_FAILED").With("subject", payload.Subject).Wrap(err)
	}
	return pair, nil
}

func (j *JWTIssuer) sign(ctx context.Context, kind tokenKind, payload TokenPayload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err //nolint:wrapcheck // wrapped by GenerateTokenPair
	}
	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: payload.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.Subject,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(kind.ttl)),
			// A unique ID keeps two pairs minted within the same second distinct.
			ID: ulid.Make().String(),
		},
	})
	signed, err := token.SignedString(kind.secret)
	if err != nil {
		return "", oops.With("token", kind.name).Wrap(err)
	}
	return signed, nil
}

// VerifyAccessToken verifies an access token.
func (j *JWTIssuer) VerifyAccessToken(token string) (TokenPayload, error) {
	return j.verify(j.access, token)
}

// VerifyRefreshToken verifies a refresh token.
func (j *JWTIssuer) VerifyRefreshToken(token string) (TokenPayload, error) {
	return j.verify(j.refresh, token)
}

func (j *JWTIssuer) verify(kind tokenKind, token string) (TokenPayload, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c,
		func(*jwt.Token) (any, error) { return kind.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return TokenPayload{}, reject(kind.failure, "token", kind.name, "reason", err.Error())
	}
	return TokenPayload{Subject: c.Subject, Email: c.Email}, nil
}
