// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"net/url"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/holomush/passcode/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration as YAML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := a.loadConfig(cmd)
				if err != nil {
					return err
				}
				shown := *cfg
				shown.Database.URL = redactURL(shown.Database.URL)
				data, err := yaml.Marshal(shown)
				if err != nil {
					return oops.Code("CONFIG_RENDER_FAILED").Wrap(err)
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err //nolint:wrapcheck // stdout write
			},
		},
		&cobra.Command{
			Use:   "schema",
			Short: "Print the JSON Schema for config files",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				data, err := config.GenerateSchema()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err //nolint:wrapcheck // stdout write
			},
		},
		&cobra.Command{
			Use:   "validate [path]",
			Short: "Validate a config file against the schema and policy rules",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				path := a.configFile
				if len(args) == 1 {
					path = args[0]
				}
				if path == "" {
					var err error
					if path, err = config.DefaultPath(); err != nil {
						return err
					}
				}
				data, err := os.ReadFile(path) //nolint:gosec // operator supplied path
				if err != nil {
					return oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
				}
				if err := config.ValidateSchema(data); err != nil {
					return err
				}
				if _, err := config.Load(path, nil); err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
				return err //nolint:wrapcheck // stdout write
			},
		},
	)
	return cmd
}

// redactURL hides the password of a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[unparseable]"
	}
	return u.Redacted()
}
