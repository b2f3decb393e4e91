// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package redis

import (
	"context"
	"strings"

	red "github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/holomush/passcode/internal/store"
)

// Connect creates a client for addr and waits for it to answer PING with the
// same backoff used for PostgreSQL. addr may be host:port or a redis:// URL.
// Ping failures carry the DB_CONNECT_FAILED code from store.WaitForPing.
func Connect(ctx context.Context, addr string, opts store.ConnectOptions) (*red.Client, error) {
	if addr == "" {
		return nil, oops.Code("REDIS_ADDR_REQUIRED").Errorf("redis address is required")
	}

	options, err := clientOptions(addr)
	if err != nil {
		return nil, err
	}
	client := red.NewClient(options)

	if err := store.WaitForPing(ctx, pinger{client}, opts); err != nil {
		_ = client.Close() //nolint:errcheck // ping error takes precedence
		return nil, oops.With("addr", options.Addr).Wrap(err)
	}
	return client, nil
}

func clientOptions(addr string) (*red.Options, error) {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opts, err := red.ParseURL(addr)
		if err != nil {
			return nil, oops.Code("REDIS_ADDR_INVALID").Wrap(err)
		}
		return opts, nil
	}
	return &red.Options{Addr: addr}, nil
}

type pinger struct {
	client *red.Client
}

func (p pinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err() //nolint:wrapcheck // wrapped by store.WaitForPing
}
