// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"

	red "github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/passcode/internal/auth"
	"github.com/holomush/passcode/internal/auth/memory"
	authpg "github.com/holomush/passcode/internal/auth/postgres"
	authredis "github.com/holomush/passcode/internal/auth/redis"
	"github.com/holomush/passcode/internal/config"
	"github.com/holomush/passcode/internal/logging"
	"github.com/holomush/passcode/internal/secret"
)

// app carries state shared by every subcommand of one invocation.
type app struct {
	deps       Deps
	configFile string
	cfg        *config.Config
	logger     *slog.Logger
}

// NewRootCmd creates the root command for the passcode CLI.
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithDeps(Deps{})
}

// NewRootCmdWithDeps creates the root command with injected dependencies.
func NewRootCmdWithDeps(deps Deps) *cobra.Command {
	a := &app{deps: deps.withDefaults()}

	cmd := &cobra.Command{
		Use:   "passcode",
		Short: "passcode - credential hashing and reset token tooling",
		Long: `passcode hashes and verifies passwords and PINs, infers credential
kinds from stored hashes, and manages password reset tokens.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file path (default $XDG_CONFIG_HOME/passcode/config.yaml)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newSecretCmd(a))
	cmd.AddCommand(newHashCmd(a))
	cmd.AddCommand(newVerifyCmd(a))
	cmd.AddCommand(newKindCmd(a))
	cmd.AddCommand(newResetCmd(a))
	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newServeCmd(a))

	return cmd
}

// loadConfig resolves configuration once per invocation and sets up logging.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.Load(a.configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	a.cfg = cfg
	a.logger = logging.Setup(logging.Options{
		Service: "passcode",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   level,
	}, cmd.ErrOrStderr())
	return cfg, nil
}

func (a *app) generator() *secret.Generator {
	if a.deps.Entropy != nil {
		return secret.NewGeneratorFromSource(a.deps.Entropy)
	}
	return secret.NewGenerator()
}

// backend is an opened reset token store plus the user store when the
// backend has one.
type backend struct {
	tokens auth.ResetTokenRepository
	users  auth.UserRepository
	ping   func(ctx context.Context) error
	close  func()
}

func (a *app) openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Reset.Store {
	case config.StorePostgres:
		pool, err := a.deps.PostgresConnector(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		return &backend{
			tokens: authpg.NewResetTokenRepository(pool),
			users:  authpg.NewUserRepository(pool),
			ping:   pool.Ping,
			close:  pool.Close,
		}, nil
	case config.StoreRedis:
		client, err := a.deps.RedisConnector(ctx, cfg.Redis.Addr)
		if err != nil {
			return nil, err
		}
		return &backend{
			tokens: authredis.NewResetTokenRepository(client, cfg.Redis.Prefix),
			ping:   func(ctx context.Context) error { return pingRedis(ctx, client) },
			close:  func() { _ = client.Close() },
		}, nil
	case config.StoreMemory:
		return &backend{
			tokens: memory.NewResetTokenStore(),
			ping:   func(context.Context) error { return nil },
			close:  func() {},
		}, nil
	default:
		return nil, oops.Code("CONFIG_INVALID").With("store", cfg.Reset.Store).Errorf("unknown reset store %q", cfg.Reset.Store)
	}
}

func pingRedis(ctx context.Context, client red.UniversalClient) error {
	return client.Ping(ctx).Err() //nolint:wrapcheck // health probe only
}

// services is the wired credential stack for one invocation.
type services struct {
	backend     *backend
	passcode    *auth.Passcode
	tokens      *auth.ResetTokenManager
	credentials *auth.CredentialService
}

func (a *app) buildServices(ctx context.Context, cfg *config.Config, recorder auth.Recorder) (*services, error) {
	pc, err := auth.NewDefaultPasscode(cfg.Policy, auth.WithRecorder(recorder))
	if err != nil {
		return nil, err
	}

	b, err := a.openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gen := a.generator()
	tokens, err := auth.NewResetTokenManager(b.tokens, gen,
		auth.WithTTL(cfg.Reset.TTL),
		auth.WithResetRecorder(recorder),
		auth.WithResetLogger(a.logger),
	)
	if err != nil {
		b.close()
		return nil, err
	}

	svc := &services{backend: b, passcode: pc, tokens: tokens}
	if b.users != nil {
		svc.credentials, err = auth.NewCredentialServiceWithLogger(b.users, tokens, pc, gen, cfg.Policy, a.logger)
		if err != nil {
			b.close()
			return nil, err
		}
	}
	return svc, nil
}

func (s *services) Close() {
	s.backend.close()
}
