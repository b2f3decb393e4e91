// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

func newResetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Manage password reset tokens",
		Long: `Issue, validate, invalidate and sweep reset tokens in the configured
store (--reset-store). request and apply also need the user table and only
work with the postgres store.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "issue <user-id>",
			Short: "Issue a reset token for a user and print it",
			Args:  cobra.ExactArgs(1),
			RunE: a.withServices(func(ctx context.Context, cmd *cobra.Command, svc *services, args []string) error {
				token, err := svc.tokens.Issue(ctx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "token: %s\n", token)
				fmt.Fprintf(out, "expires: %s\n", time.Now().Add(svc.tokens.TTL()).UTC().Format(time.RFC3339))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "validate <token>",
			Short: "Print the user a reset token belongs to",
			Args:  cobra.ExactArgs(1),
			RunE: a.withServices(func(ctx context.Context, cmd *cobra.Command, svc *services, args []string) error {
				userID, err := svc.tokens.Validate(ctx, args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), userID)
				return err //nolint:wrapcheck // stdout write
			}),
		},
		&cobra.Command{
			Use:   "invalidate <user-id>",
			Short: "Delete every outstanding reset token for a user",
			Args:  cobra.ExactArgs(1),
			RunE: a.withServices(func(ctx context.Context, cmd *cobra.Command, svc *services, args []string) error {
				existed, err := svc.tokens.InvalidateAll(ctx, args[0])
				if err != nil {
					return err
				}
				msg := "no tokens found"
				if existed {
					msg = "tokens invalidated"
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), msg)
				return err //nolint:wrapcheck // stdout write
			}),
		},
		&cobra.Command{
			Use:   "sweep",
			Short: "Delete expired reset tokens",
			Args:  cobra.NoArgs,
			RunE: a.withServices(func(ctx context.Context, cmd *cobra.Command, svc *services, _ []string) error {
				n, err := svc.tokens.SweepExpired(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "swept %d\n", n)
				return err //nolint:wrapcheck // stdout write
			}),
		},
		&cobra.Command{
			Use:   "request <email>",
			Short: "Issue a reset token for the user with an email address",
			Long: `Issue a reset token for the user owning email. Unknown addresses print
nothing and succeed.`,
			Args: cobra.ExactArgs(1),
			RunE: a.withServices(func(ctx context.Context, cmd *cobra.Command, svc *services, args []string) error {
				if svc.credentials == nil {
					return errNeedsUserStore()
				}
				token, err := svc.credentials.RequestReset(ctx, args[0])
				if err != nil || token == "" {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "token: %s\n", token)
				return err //nolint:wrapcheck // stdout write
			}),
		},
		&cobra.Command{
			Use:   "apply <token> [secret|-]",
			Short: "Replace a user's credential using a reset token",
			Args:  cobra.RangeArgs(1, 2),
			RunE: a.withServices(func(ctx context.Context, cmd *cobra.Command, svc *services, args []string) error {
				if svc.credentials == nil {
					return errNeedsUserStore()
				}
				secretValue, err := readSecret(cmd, args[1:])
				if err != nil {
					return err
				}
				if err := svc.credentials.ResetCredential(ctx, args[0], secretValue); err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "credential replaced")
				return err //nolint:wrapcheck // stdout write
			}),
		},
	)
	return cmd
}

func errNeedsUserStore() error {
	return oops.Code("CONFIG_INVALID").
		With("field", "reset.store").
		Errorf("this command needs the postgres store")
}

// withServices loads config, wires the credential stack for the command and
// closes it afterwards.
func (a *app) withServices(run func(ctx context.Context, cmd *cobra.Command, svc *services, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := a.loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		svc, err := a.buildServices(ctx, cfg, nil)
		if err != nil {
			return err
		}
		defer svc.Close()
		return run(ctx, cmd, svc, args)
	}
}
