// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/accountd/accountd/internal/auth"
	"github.com/accountd/accountd/pkg/errutil"
)

func testTokenConfig() auth.TokenConfig {
	return auth.TokenConfig{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "accountd-test",
	}
}

func newTestIssuer(t *testing.T, mutate ...func(*auth.TokenConfig)) *auth.JWTIssuer {
	t.Helper()
	cfg := testTokenConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	issuer, err := auth.NewJWTIssuer(cfg)
	require.NoError(t, err)
	return issuer
}

func TestTokenConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*auth.TokenConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(*auth.TokenConfig) {}},
		{name: "missing access secret", mutate: func(c *auth.TokenConfig) { c.AccessSecret = "" }, wantErr: "access token secret is required"},
		{name: "missing refresh secret", mutate: func(c *auth.TokenConfig) { c.RefreshSecret = "" }, wantErr: "refresh token secret is required"},
		{name: "shared secret", mutate: func(c *auth.TokenConfig) { c.RefreshSecret = c.AccessSecret }, wantErr: "must differ"},
		{name: "zero access ttl", mutate: func(c *auth.TokenConfig) { c.AccessTTL = 0 }, wantErr: "must be positive"},
		{name: "access outlives refresh", mutate: func(c *auth.TokenConfig) { c.AccessTTL = 8 * 24 * time.Hour }, wantErr: "must be shorter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testTokenConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			errutil.AssertErrorCode(t, err, "TOKEN_CONFIG_INVALID")
		})
	}
}

func TestJWTIssuer_GenerateTokenPair(t *testing.T) {
	defer goleak.VerifyNone(t)

	issuer := newTestIssuer(t)
	payload := auth.TokenPayload{Subject: ulid.Make().String(), Email: "ada@example.com"}

	pair, err := issuer.GenerateTokenPair(context.Background(), payload)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	got, err := issuer.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	got, err = issuer.VerifyRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestJWTIssuer_ConsecutivePairsDiffer(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	issuer := newTestIssuer(t, func(c *auth.TokenConfig) { c.Now = func() time.Time { return fixed } })
	payload := auth.TokenPayload{Subject: ulid.Make().String(), Email: "ada@example.com"}

	first, err := issuer.GenerateTokenPair(context.Background(), payload)
	require.NoError(t, err)
	second, err := issuer.GenerateTokenPair(context.Background(), payload)
	require.NoError(t, err)

	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
}

func TestJWTIssuer_CanceledContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	issuer := newTestIssuer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pair, err := issuer.GenerateTokenPair(ctx, auth.TokenPayload{Subject: "s", Email: "e@example.com"})
	require.Error(t, err)
	assert.Equal(t, auth.TokenPair{}, pair)
	errutil.AssertErrorCode(t, err, "TOKEN_SIGN_FAILED")
}

func TestJWTIssuer_SecretsAreNotInterchangeable(t *testing.T) {
	issuer := newTestIssuer(t)
	pair, err := issuer.GenerateTokenPair(context.Background(),
		auth.TokenPayload{Subject: ulid.Make().String(), Email: "ada@example.com"})
	require.NoError(t, err)

	t.Run("refresh token fails access verification", func(t *testing.T) {
		_, err := issuer.VerifyAccessToken(pair.RefreshToken)
		assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
	})

	t.Run("access token fails refresh verification", func(t *testing.T) {
		_, err := issuer.VerifyRefreshToken(pair.AccessToken)
		assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
	})
}

func TestJWTIssuer_Expiry(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	issuer := newTestIssuer(t, func(c *auth.TokenConfig) { c.Now = func() time.Time { return clock() } })

	pair, err := issuer.GenerateTokenPair(context.Background(),
		auth.TokenPayload{Subject: ulid.Make().String(), Email: "ada@example.com"})
	require.NoError(t, err)

	clock = func() time.Time { return now.Add(16 * time.Minute) }

	_, err = issuer.VerifyAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken, "access token expires after its TTL")

	_, err = issuer.VerifyRefreshToken(pair.RefreshToken)
	assert.NoError(t, err, "refresh token outlives access token")

	clock = func() time.Time { return now.Add(8 * 24 * time.Hour) }
	_, err = issuer.VerifyRefreshToken(pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

func TestJWTIssuer_RejectsForeignTokens(t *testing.T) {
	cfg := testTokenConfig()
	issuer := newTestIssuer(t)

	sign := func(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
		t.Helper()
		tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return tok
	}
	valid := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub":   ulid.Make().String(),
			"email": "ada@example.com",
			"iss":   cfg.Issuer,
			"iat":   time.Now().Unix(),
			"exp":   time.Now().Add(time.Minute).Unix(),
		}
	}

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{name: "garbage", token: func(*testing.T) string { return "not-a-jwt" }},
		{name: "empty", token: func(*testing.T) string { return "" }},
		{name: "wrong issuer", token: func(t *testing.T) string {
			c := valid()
			c["iss"] = "someone-else"
			return sign(t, jwt.SigningMethodHS256, []byte(cfg.AccessSecret), c)
		}},
		{name: "missing exp", token: func(t *testing.T) string {
			c := valid()
			delete(c, "exp")
			return sign(t, jwt.SigningMethodHS256, []byte(cfg.AccessSecret), c)
		}},
		{name: "alg none", token: func(t *testing.T) string {
			return sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid())
		}},
		{name: "other hmac alg", token: func(t *testing.T) string {
			return sign(t, jwt.SigningMethodHS512, []byte(cfg.AccessSecret), valid())
		}},
		{name: "tampered payload", token: func(t *testing.T) string {
			tok := sign(t, jwt.SigningMethodHS256, []byte(cfg.AccessSecret), valid())
			parts := strings.Split(tok, ".")
			parts[1] = parts[1][:len(parts[1])-2] + "xx"
			return strings.Join(parts, ".")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.VerifyAccessToken(tt.token(t))
			require.Error(t, err)
			assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
			errutil.AssertFailure(t, err, auth.ErrInvalidAccessToken)
		})
	}
}

func TestTokenPayload_UserID(t *testing.T) {
	id := ulid.Make()

	got, err := auth.TokenPayload{Subject: id.String()}.UserID()
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = auth.TokenPayload{Subject: "nope"}.UserID()
	errutil.AssertErrorCode(t, err, "AUTH_INVALID_SUBJECT")
}
