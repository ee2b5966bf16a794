// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("accountd/user")

// Service provides the profile-facing user operations.
type Service struct {
	users    Repository
	profiles ProfileRepository
	logger   *slog.Logger
}

// NewService creates a new Service.
func NewService(users Repository, profiles ProfileRepository) (*Service, error) {
	return NewServiceWithLogger(users, profiles, slog.Default())
}

// NewServiceWithLogger creates a new Service that logs to logger.
func NewServiceWithLogger(users Repository, profiles ProfileRepository, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Code("USER_SERVICE_INVALID").Errorf("users repository is required")
	}
	if profiles == nil {
		return nil, oops.Code("USER_SERVICE_INVALID").Errorf("profiles repository is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, profiles: profiles, logger: logger}, nil
}

// Get returns the profile of the user with id.
func (s *Service) Get(ctx context.Context, id ulid.ULID) (*Profile, error) {
	ctx, span := startSpan(ctx, "user.get", id)
	defer span.End()

	p, err := s.profiles.GetByUserID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, oops.Code(ErrUserNotFound.Code).With("user_id", id.String()).Wrap(ErrUserNotFound)
	}
	if err != nil {
		return nil, fail(span, oops.Code("USER_GET_FAILED").With("user_id", id.String()).Wrap(err))
	}
	return p, nil
}

// List returns one page of profiles.
func (s *Service) List(ctx context.Context, q ListQuery) (*Page, error) {
	ctx, span := tracer.Start(ctx, "user.list")
	defer span.End()

	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("page", q.Page),
		attribute.Int("limit", q.Limit),
		attribute.String("sort_by", string(q.SortBy)),
	)

	profiles, total, err := s.profiles.List(ctx, q)
	if err != nil {
		return nil, fail(span, oops.Code("USER_LIST_FAILED").With("page", q.Page).Wrap(err))
	}
	return newPage(profiles, total, q), nil
}

// UpdateProfile applies upd to the profile of userID. Only the owner may edit.
func (s *Service) UpdateProfile(ctx context.Context, actorID, userID ulid.ULID, upd ProfileUpdate) (*Profile, error) {
	ctx, span := startSpan(ctx, "user.update_profile", userID)
	defer span.End()

	if actorID != userID {
		return nil, oops.Code(ErrNotAllowedToEditProfile.Code).
			With("actor_id", actorID.String()).
			With("user_id", userID.String()).
			Wrap(ErrNotAllowedToEditProfile)
	}

	p, err := s.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, oops.Code(ErrProfileNotFound.Code).With("user_id", userID.String()).Wrap(ErrProfileNotFound)
	}
	if err != nil {
		return nil, fail(span, oops.Code("PROFILE_UPDATE_FAILED").With("operation", "get profile").Wrap(err))
	}

	if err := p.Apply(upd); err != nil {
		return nil, err
	}

	if err := s.profiles.Update(ctx, p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(ErrProfileNotFound.Code).With("user_id", userID.String()).Wrap(ErrProfileNotFound)
		}
		return nil, fail(span, oops.Code("PROFILE_UPDATE_FAILED").With("operation", "persist profile").Wrap(err))
	}

	s.logger.InfoContext(ctx, "profile updated", "user_id", userID.String())
	return p, nil
}

// Delete removes the account userID. Only the owner may delete it.
func (s *Service) Delete(ctx context.Context, actorID, userID ulid.ULID) error {
	ctx, span := startSpan(ctx, "user.delete", userID)
	defer span.End()

	if actorID != userID {
		return oops.Code(ErrNotAllowedToDelete.Code).
			With("actor_id", actorID.String()).
			With("user_id", userID.String()).
			Wrap(ErrNotAllowedToDelete)
	}

	err := s.users.Delete(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return oops.Code(ErrUserNotFound.Code).With("user_id", userID.String()).Wrap(ErrUserNotFound)
	}
	if err != nil {
		return fail(span, oops.Code("USER_DELETE_FAILED").With("user_id", userID.String()).Wrap(err))
	}

	s.logger.InfoContext(ctx, "user deleted", "user_id", userID.String())
	return nil
}

func startSpan(ctx context.Context, name string, id ulid.ULID) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.String("user_id", id.String())))
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
