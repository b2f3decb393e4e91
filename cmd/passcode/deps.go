// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"io"

	red "github.com/redis/go-redis/v9"

	authpg "github.com/holomush/passcode/internal/auth/postgres"
	authredis "github.com/holomush/passcode/internal/auth/redis"
	"github.com/holomush/passcode/internal/observability"
	"github.com/holomush/passcode/internal/store"
)

// Deps contains injectable dependencies for the CLI.
// All fields with nil values will use their default implementations.
type Deps struct {
	// PostgresConnector opens a database pool.
	// Default: store.Connect
	PostgresConnector func(ctx context.Context, url string) (Postgres, error)

	// RedisConnector opens a Redis client.
	// Default: redis.Connect
	RedisConnector func(ctx context.Context, addr string) (red.UniversalClient, error)

	// MigratorFactory creates a schema migrator.
	// Default: store.NewMigrator
	MigratorFactory func(url string) (Migrator, error)

	// ObservabilityServerFactory creates the metrics and health server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// Entropy feeds the secret generator.
	// Default: crypto/rand
	Entropy io.Reader
}

// Postgres wraps the methods used from *pgxpool.Pool.
type Postgres interface {
	authpg.DB
	Ping(ctx context.Context) error
	Close()
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Status() (store.MigrationStatus, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

func (d Deps) withDefaults() Deps {
	if d.PostgresConnector == nil {
		d.PostgresConnector = func(ctx context.Context, url string) (Postgres, error) {
			pool, err := store.Connect(ctx, url, store.ConnectOptions{})
			if err != nil {
				return nil, err
			}
			return pool, nil
		}
	}
	if d.RedisConnector == nil {
		d.RedisConnector = func(ctx context.Context, addr string) (red.UniversalClient, error) {
			client, err := authredis.Connect(ctx, addr, store.ConnectOptions{})
			if err != nil {
				return nil, err
			}
			return client, nil
		}
	}
	if d.MigratorFactory == nil {
		d.MigratorFactory = func(url string) (Migrator, error) {
			m, err := store.NewMigrator(url)
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	if d.ObservabilityServerFactory == nil {
		d.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, ready)
		}
	}
	return d
}
