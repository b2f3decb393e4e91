// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/passcode/internal/auth"
)

// readSecret returns args[0], or the first line of stdin when args[0] is "-"
// or absent.
func readSecret(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		return args[0], nil
	}
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", oops.Code("SECRET_READ_FAILED").Wrap(err)
		}
		return "", oops.Code("SECRET_READ_FAILED").Errorf("no secret on stdin")
	}
	return strings.TrimRight(scanner.Text(), "\r"), nil
}

func newHashCmd(a *app) *cobra.Command {
	var salt string
	cmd := &cobra.Command{
		Use:   "hash [secret|-]",
		Short: "Hash a password or PIN",
		Long: `Hash a secret with the hasher its shape selects. A fresh salt is
generated unless --salt is given. Reads the secret from stdin when it is "-"
or omitted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			pc, err := auth.NewDefaultPasscode(cfg.Policy)
			if err != nil {
				return err
			}
			secretValue, err := readSecret(cmd, args)
			if err != nil {
				return err
			}
			if salt == "" {
				if salt, err = a.generator().Salt(); err != nil {
					return err
				}
			}

			hash, kind, err := pc.ComputeHash(salt, secretValue)
			if err != nil {
				return err
			}
			if kind == auth.KindUnset {
				return oops.Code("CREDENTIAL_REJECTED").Errorf("secret is neither a valid password nor a valid pin")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "kind: %s\n", kind)
			fmt.Fprintf(out, "salt: %s\n", salt)
			fmt.Fprintf(out, "hash: %s\n", hash)
			return nil
		},
	}
	cmd.Flags().StringVar(&salt, "salt", "", "hex salt (generated when empty)")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	var stored auth.StoredCredential
	cmd := &cobra.Command{
		Use:   "verify [secret|-]",
		Short: "Check a secret against a stored salt and hash",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			pc, err := auth.NewDefaultPasscode(cfg.Policy)
			if err != nil {
				return err
			}
			secretValue, err := readSecret(cmd, args)
			if err != nil {
				return err
			}

			ok, err := pc.Matches(stored, secretValue)
			if err != nil {
				return err
			}
			if !ok {
				return oops.Code("CREDENTIAL_MISMATCH").Errorf("secret does not match")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "match")
			return err //nolint:wrapcheck // stdout write
		},
	}
	cmd.Flags().StringVar(&stored.Salt, "salt", "", "stored hex salt")
	cmd.Flags().StringVar(&stored.Hash, "hash", "", "stored hex hash")
	_ = cmd.MarkFlagRequired("salt")
	_ = cmd.MarkFlagRequired("hash")
	return cmd
}

func newKindCmd(a *app) *cobra.Command {
	var candidate auth.Candidate
	cmd := &cobra.Command{
		Use:   "kind [secret|-]",
		Short: "Classify a secret, or infer the kind of a stored hash",
		Long: `With --password-hash or --pin-hash, infer the credential kind from the
stored hash length. Otherwise classify the given secret.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			pc, err := auth.NewDefaultPasscode(cfg.Policy)
			if err != nil {
				return err
			}

			var kind auth.Kind
			if candidate.PasswordHash != "" || candidate.PinHash != "" {
				kind = pc.Resolver().InferKind(candidate)
			} else {
				secretValue, err := readSecret(cmd, args)
				if err != nil {
					return err
				}
				kind = pc.Classify(secretValue)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), kind)
			return err //nolint:wrapcheck // stdout write
		},
	}
	cmd.Flags().StringVar(&candidate.PasswordHash, "password-hash", "", "stored password hash field")
	cmd.Flags().StringVar(&candidate.PinHash, "pin-hash", "", "stored pin hash field")
	return cmd
}
