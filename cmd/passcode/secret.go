// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSecretCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Generate random salts, refresh keys and reset tokens",
	}

	gens := []struct {
		use   string
		short string
		gen   func() (string, error)
	}{
		{"salt", "Print a 16-byte hex salt", func() (string, error) { return a.generator().Salt() }},
		{"refresh-key", "Print a 32-byte hex refresh key", func() (string, error) { return a.generator().RefreshKey() }},
		{"reset-token", "Print a 32-byte hex reset token", func() (string, error) { return a.generator().ResetToken() }},
	}
	for _, g := range gens {
		cmd.AddCommand(&cobra.Command{
			Use:   g.use,
			Short: g.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				value, err := g.gen()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
				return err //nolint:wrapcheck // stdout write
			},
		})
	}
	return cmd
}
