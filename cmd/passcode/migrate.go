// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
		Long:  `Apply, roll back or inspect the users and reset_tokens schema at --database-url.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: a.withMigrator(func(cmd *cobra.Command, m Migrator, _ []string) error {
				if err := m.Up(); err != nil {
					return err
				}
				return printStatus(cmd, m)
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration, dropping all credential data",
			Args:  cobra.NoArgs,
			RunE: a.withMigrator(func(cmd *cobra.Command, m Migrator, _ []string) error {
				if err := m.Down(); err != nil {
					return err
				}
				return printStatus(cmd, m)
			}),
		},
		&cobra.Command{
			Use:   "steps <n>",
			Short: "Apply n migrations, or roll back when n is negative",
			Args:  cobra.ExactArgs(1),
			RunE: a.withMigrator(func(cmd *cobra.Command, m Migrator, args []string) error {
				n, err := parseVersion(args[0])
				if err != nil {
					return err
				}
				if err := m.Steps(n); err != nil {
					return err
				}
				return printStatus(cmd, m)
			}),
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Mark a version as applied without running it",
			Args:  cobra.ExactArgs(1),
			RunE: a.withMigrator(func(cmd *cobra.Command, m Migrator, args []string) error {
				v, err := parseVersion(args[0])
				if err != nil {
					return err
				}
				if err := m.Force(v); err != nil {
					return err
				}
				return printStatus(cmd, m)
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the current schema version",
			Args:  cobra.NoArgs,
			RunE: a.withMigrator(func(cmd *cobra.Command, m Migrator, _ []string) error {
				return printStatus(cmd, m)
			}),
		},
	)
	return cmd
}

func parseVersion(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("not an integer: %q", s)
	}
	return v, nil
}

func printStatus(cmd *cobra.Command, m Migrator) error {
	status, err := m.Status()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	name := status.Name
	if name == "" {
		name = "none"
	}
	fmt.Fprintf(out, "version: %d (%s)\n", status.Version, name)
	if status.Dirty {
		fmt.Fprintln(out, "dirty: true (fix the schema, then run migrate force)")
	}
	fmt.Fprintf(out, "applied: %d, pending: %d\n", len(status.Applied), len(status.Pending))
	return nil
}

func (a *app) withMigrator(run func(cmd *cobra.Command, m Migrator, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := a.loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Database.URL == "" {
			return oops.Code("CONFIG_INVALID").
				With("field", "database.url").
				Errorf("database url is required (--database-url or DATABASE_URL)")
		}
		m, err := a.deps.MigratorFactory(cfg.Database.URL)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := m.Close(); closeErr != nil {
				a.logger.Warn("failed to close migrator", "error", closeErr)
			}
		}()
		return run(cmd, m, args)
	}
}
