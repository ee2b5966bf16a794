// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package store bootstraps PostgreSQL: the connection pool and schema migrations.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// ConnectOptions tunes how long Connect waits for the database.
type ConnectOptions struct {
	// Attempts is the number of pings retried after the first one.
	Attempts uint64
	// BaseDelay is the first backoff interval; it doubles per attempt.
	BaseDelay time.Duration
	// MaxDelay caps a single backoff interval.
	MaxDelay time.Duration
}

// DefaultConnectOptions waits roughly half a minute for a starting database.
var DefaultConnectOptions = ConnectOptions{
	Attempts:  8,
	BaseDelay: 250 * time.Millisecond,
	MaxDelay:  5 * time.Second,
}

// Connect opens a pool and blocks until the database answers a ping or the
// retry budget is spent.
func Connect(ctx context.Context, databaseURL string, opts ConnectOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	if err := pingWithRetry(ctx, pool.Ping, opts.backoff()); err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping database").
			With("host", cfg.ConnConfig.Host).
			Wrap(err)
	}
	return pool, nil
}

func (o ConnectOptions) backoff() retry.Backoff {
	b := retry.NewExponential(o.BaseDelay)
	if o.MaxDelay > 0 {
		b = retry.WithCappedDuration(o.MaxDelay, b)
	}
	return retry.WithMaxRetries(o.Attempts, b)
}

func pingWithRetry(ctx context.Context, ping func(context.Context) error, b retry.Backoff) error {
	attempt := 0
	//nolint:wrapcheck // callers wrap with connection context
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := ping(ctx); err != nil {
			slog.WarnContext(ctx, "database not reachable", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}
