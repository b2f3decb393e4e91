// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/passcode/internal/auth"
	"github.com/holomush/passcode/pkg/errutil"
)

const (
	readinessTimeout = 2 * time.Second
	shutdownTimeout  = 5 * time.Second
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the expired token sweeper with metrics and health endpoints",
		Long: `Run until interrupted, sweeping expired reset tokens every
--sweep-interval and serving /metrics and /healthz probes on --metrics-addr.`,
		Args: cobra.NoArgs,
		RunE: a.runServe,
	}
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		current  atomic.Pointer[services]
		recorder auth.Recorder
		obsErrCh <-chan error
	)
	if cfg.Metrics.Addr != "" {
		obs := a.deps.ObservabilityServerFactory(cfg.Metrics.Addr, func() bool {
			svc := current.Load()
			if svc == nil {
				return false
			}
			pingCtx, cancel := context.WithTimeout(context.Background(), readinessTimeout)
			defer cancel()
			return svc.backend.ping(pingCtx) == nil
		})
		recorder = obs.Metrics()
		if obsErrCh, err = obs.Start(); err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").With("addr", cfg.Metrics.Addr).Wrap(err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := obs.Stop(stopCtx); err != nil {
				errutil.LogError(a.logger, "failed to stop observability server", err)
			}
		}()
	}

	svc, err := a.buildServices(ctx, cfg, recorder)
	if err != nil {
		return err
	}
	defer svc.Close()
	current.Store(svc)

	a.logger.InfoContext(ctx, "passcode serving",
		"reset_store", cfg.Reset.Store,
		"sweep_interval", cfg.Reset.SweepInterval,
		"metrics_addr", cfg.Metrics.Addr)

	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		runSweeper(ctx, svc.tokens, cfg.Reset.SweepInterval, a.logger)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
	case err, ok := <-obsErrCh:
		if ok && err != nil {
			stop()
			<-sweepDone
			return oops.Code("OBSERVABILITY_FAILED").Wrap(err)
		}
		stop()
	}
	<-sweepDone
	return nil
}

// Sweeper is the part of auth.ResetTokenManager runSweeper needs.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// runSweeper sweeps once immediately and then every interval until ctx ends.
// Failures are logged and retried on the next tick.
func runSweeper(ctx context.Context, s Sweeper, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.SweepExpired(ctx); err != nil && ctx.Err() == nil {
			errutil.Log(ctx, logger, slog.LevelError, "reset token sweep failed", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
