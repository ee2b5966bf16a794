// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/accountd/accountd/internal/user"
	"github.com/accountd/accountd/pkg/errutil"
)

var tracer = otel.Tracer("accountd/auth")

// Password length bounds for registration.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 20
)

// Construction errors.
var (
	ErrNilUserStore      = errors.New("user store is required")
	ErrNilPasswordHasher = errors.New("password hasher is required")
	ErrNilTokenHasher    = errors.New("token hasher is required")
	ErrNilTokenIssuer    = errors.New("token issuer is required")
)

// UserStore is the slice of user persistence the session use cases need.
type UserStore interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CreateWithProfile(ctx context.Context, u *user.User, p *user.Profile) error
	GetByID(ctx context.Context, id ulid.ULID) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	UpdatePasswordHash(ctx context.Context, id ulid.ULID, hash string) error
	SetRefreshTokenHash(ctx context.Context, id ulid.ULID, hash *string) error
	SwapRefreshTokenHash(ctx context.Context, id ulid.ULID, expected, next string) error
}

// RegisterInput is the data needed to open an account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	BirthDate time.Time
	Bio       *string
}

// ValidatePassword checks the registration password length.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return oops.Code("AUTH_PASSWORD_INVALID").
			With("length", n).
			Wrap(errutil.InvalidField("password", "password must be between 6 and 20 characters"))
	}
	return nil
}

// Service implements the session lifecycle: register, login, refresh and logout.
type Service struct {
	users     UserStore
	passwords PasswordHasher
	tokens    TokenHasher
	issuer    TokenIssuer
	logger    *slog.Logger
	recorder  Recorder
}

// ServiceOption configures a Service during construction.
type ServiceOption func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder reports operation outcomes to r.
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewService creates a Service. All collaborators are required.
func NewService(users UserStore, passwords PasswordHasher, tokens TokenHasher, issuer TokenIssuer, opts ...ServiceOption) (*Service, error) {
	switch {
	case users == nil:
		return nil, ErrNilUserStore
	case passwords == nil:
		return nil, ErrNilPasswordHasher
	case tokens == nil:
		return nil, ErrNilTokenHasher
	case issuer == nil:
		return nil, ErrNilTokenIssuer
	}
	s := &Service{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		issuer:    issuer,
		logger:    slog.Default(),
		recorder:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// dummyPasswordHash is verified against when the email is unknown so that a
// missing account costs the same as a wrong password.
//
//nolint:gosec // G101: intentionally fake hash, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Register creates a user and profile and returns the account's first token pair.
// The user row is written with its refresh credential already set, so the
// returned refresh token is immediately usable.
func (s *Service) Register(ctx context.Context, in RegisterInput) (pair TokenPair, err error) {
	ctx, span := tracer.Start(ctx, "auth.register")
	defer func() { s.finish(span, OpRegister, err) }()

	if err := ValidatePassword(in.Password); err != nil {
		return TokenPair{}, err
	}
	if err := user.ValidateEmail(in.Email); err != nil {
		return TokenPair{}, err
	}

	exists, err := s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return TokenPair{}, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "check email").
			Wrap(err)
	}
	if exists {
		return TokenPair{}, reject(ErrEmailAlreadyInUse)
	}

	passwordHash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return TokenPair{}, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	u, err := user.NewUser(in.Email, passwordHash)
	if err != nil {
		return TokenPair{}, err
	}
	p, err := user.NewProfile(u.ID, in.FirstName, in.LastName, in.BirthDate, in.Bio)
	if err != nil {
		return TokenPair{}, err
	}
	span.SetAttributes(attribute.String("user_id", u.ID.String()))

	pair, stored, err := s.issue(ctx, u)
	if err != nil {
		return TokenPair{}, oops.Code("AUTH_REGISTER_FAILED").
			With("user_id", u.ID.String()).
			Wrap(err)
	}
	u.RefreshTokenHash = &stored

	if err := s.users.CreateWithProfile(ctx, u, p); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return TokenPair{}, reject(ErrEmailAlreadyInUse, "user_id", u.ID.String())
		}
		return TokenPair{}, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create user").
			With("user_id", u.ID.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", u.ID.String())
	return pair, nil
}

// Login authenticates by email and password and replaces any stored refresh
// credential with a fresh one. Unknown email and wrong password fail alike.
func (s *Service) Login(ctx context.Context, email, password string) (pair TokenPair, err error) {
	ctx, span := tracer.Start(ctx, "auth.login")
	defer func() { s.finish(span, OpLogin, err) }()

	u, lookupErr := s.users.GetByEmail(ctx, email)
	targetHash := dummyPasswordHash
	switch {
	case lookupErr == nil:
		targetHash = u.PasswordHash
	case !errors.Is(lookupErr, user.ErrNotFound):
		return TokenPair{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by email").
			Wrap(lookupErr)
	}

	// Always verify so both failure paths take the same time.
	valid, verifyErr := s.passwords.Verify(password, targetHash)
	if u == nil {
		return TokenPair{}, reject(ErrInvalidCredentials, "reason", "unknown email")
	}
	span.SetAttributes(attribute.String("user_id", u.ID.String()))
	if verifyErr != nil {
		return TokenPair{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("user_id", u.ID.String()).
			Wrap(verifyErr)
	}
	if !valid {
		return TokenPair{}, reject(ErrInvalidCredentials, "reason", "password mismatch", "user_id", u.ID.String())
	}

	if s.passwords.NeedsUpgrade(u.PasswordHash) {
		s.upgradePassword(ctx, u.ID, password)
	}

	pair, stored, err := s.issue(ctx, u)
	if err != nil {
		return TokenPair{}, oops.Code("AUTH_LOGIN_FAILED").
			With("user_id", u.ID.String()).
			Wrap(err)
	}
	if err := s.users.SetRefreshTokenHash(ctx, u.ID, &stored); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return TokenPair{}, reject(ErrInvalidCredentials, "reason", "user deleted", "user_id", u.ID.String())
		}
		return TokenPair{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "store refresh token").
			With("user_id", u.ID.String()).
			Wrap(err)
	}
	return pair, nil
}

// Refresh rotates the refresh credential of userID. presented must already
// have passed signature verification; it is matched against the stored hash
// and replaced in a single compare-and-set so it can be used only once.
func (s *Service) Refresh(ctx context.Context, userID ulid.ULID, presented string) (pair TokenPair, err error) {
	ctx, span := tracer.Start(ctx, "auth.refresh",
		trace.WithAttributes(attribute.String("user_id", userID.String())))
	defer func() { s.finish(span, OpRefresh, err) }()

	u, current, err := s.matchRefreshToken(ctx, userID, presented)
	if err != nil {
		return TokenPair{}, err
	}

	pair, next, err := s.issue(ctx, u)
	if err != nil {
		return TokenPair{}, oops.Code("AUTH_REFRESH_FAILED").
			With("user_id", userID.String()).
			Wrap(err)
	}
	if err := s.users.SwapRefreshTokenHash(ctx, userID, current, next); err != nil {
		if errors.Is(err, user.ErrRefreshTokenChanged) {
			return TokenPair{}, reject(ErrInvalidRefreshToken, "reason", "rotated concurrently", "user_id", userID.String())
		}
		return TokenPair{}, oops.Code("AUTH_REFRESH_FAILED").
			With("operation", "rotate refresh token").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return pair, nil
}

// Logout clears the stored refresh credential. Logging out twice, or logging
// out a user that no longer exists, succeeds.
func (s *Service) Logout(ctx context.Context, userID ulid.ULID) (err error) {
	ctx, span := tracer.Start(ctx, "auth.logout",
		trace.WithAttributes(attribute.String("user_id", userID.String())))
	defer func() { s.finish(span, OpLogout, err) }()

	err = s.users.SetRefreshTokenHash(ctx, userID, nil)
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "clear refresh token").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return nil
}

// matchRefreshToken loads userID and checks presented against its stored
// refresh hash. It returns the user and the stored hash on a match.
func (s *Service) matchRefreshToken(ctx context.Context, userID ulid.ULID, presented string) (*user.User, string, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, user.ErrNotFound) {
		return nil, "", reject(ErrInvalidRefreshToken, "reason", "unknown user", "user_id", userID.String())
	}
	if err != nil {
		return nil, "", oops.Code("AUTH_REFRESH_FAILED").
			With("operation", "get user").
			With("user_id", userID.String()).
			Wrap(err)
	}
	if !u.LoggedIn() {
		return nil, "", reject(ErrInvalidRefreshToken, "reason", "no stored credential", "user_id", userID.String())
	}

	current := *u.RefreshTokenHash
	ok, err := s.passwords.Verify(s.tokens.Hash(presented), current)
	if err != nil {
		return nil, "", oops.Code("AUTH_REFRESH_FAILED").
			With("operation", "verify refresh token").
			With("user_id", userID.String()).
			Wrap(err)
	}
	if !ok {
		return nil, "", reject(ErrInvalidRefreshToken, "reason", "credential mismatch", "user_id", userID.String())
	}
	return u, current, nil
}

// issue mints a pair for u and returns it with the value to store for its
// refresh token.
func (s *Service) issue(ctx context.Context, u *user.User) (TokenPair, string, error) {
	pair, err := s.issuer.GenerateTokenPair(ctx, TokenPayload{Subject: u.ID.String(), Email: u.Email})
	if err != nil {
		return TokenPair{}, "", oops.With("operation", "generate token pair").Wrap(err)
	}
	stored, err := s.passwords.Hash(s.tokens.Hash(pair.RefreshToken))
	if err != nil {
		return TokenPair{}, "", oops.With("operation", "hash refresh token").Wrap(err)
	}
	return pair, stored, nil
}

// upgradePassword re-hashes a password stored with outdated parameters.
// Login succeeds whether or not this works.
func (s *Service) upgradePassword(ctx context.Context, id ulid.ULID, password string) {
	hash, err := s.passwords.Hash(password)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, id, hash)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "password hash upgrade failed",
			append([]any{"user_id", id.String()}, errutil.Attrs(err)...)...)
	}
}

// finish records the outcome of an operation on its span, the recorder and,
// for unexpected errors, the log.
func (s *Service) finish(span trace.Span, operation string, err error) {
	defer span.End()
	switch {
	case err == nil:
		s.recorder.RecordAuthOperation(operation, OutcomeSuccess)
	case isFailure(err):
		span.SetAttributes(attribute.String("failure", errutil.CodeOf(err)))
		s.recorder.RecordAuthOperation(operation, OutcomeFailure)
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.recorder.RecordAuthOperation(operation, OutcomeError)
		errutil.LogError(s.logger, "auth "+operation+" failed", err)
	}
}

func isFailure(err error) bool {
	_, ok := errutil.AsFailure(err)
	return ok
}
