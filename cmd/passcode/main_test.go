// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSalt         = "0123456789abcdef0123456789abcdef"
	testPassword     = "Str0ngP@ss!"
	testPasswordHash = "33216f8f61094190b7c94bc43265824ba02e493de0842b28c5cd87c973ffee8055ea6d3562100430eccc704a0a1af18bad6343964e768ef2fbb320badd49e301"
	testPin          = "7f3a"
	testPinHash      = "d5eb72db53bc12f8e5588b8da35c72899b5606532102a6dfb534b3518ac88df5"
)

// runCLI executes the root command in an isolated config environment and
// returns stdout.
func runCLI(t *testing.T, deps Deps, stdin string, args ...string) (string, error) {
	t.Helper()
	return runCLIContext(context.Background(), t, deps, stdin, args...)
}

func runCLIContext(ctx context.Context, t *testing.T, deps Deps, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("DATABASE_URL", "")

	cmd := NewRootCmdWithDeps(deps)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	out, err := runCLI(t, Deps{}, "", "--help")
	require.NoError(t, err)

	for _, sub := range []string{"secret", "hash", "verify", "kind", "reset", "migrate", "config", "serve"} {
		assert.Contains(t, out, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantFlag string
	}{
		{
			name:     "config flag with space",
			args:     []string{"--config", "/path/to/config.yaml", "--help"},
			wantFlag: "/path/to/config.yaml",
		},
		{
			name:     "config flag with equals",
			args:     []string{"--config=/etc/passcode.yaml", "--help"},
			wantFlag: "/etc/passcode.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRootCmd()
			cmd.SetOut(new(bytes.Buffer))
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			flag := cmd.PersistentFlags().Lookup("config")
			require.NotNil(t, flag)
			assert.Equal(t, tt.wantFlag, flag.Value.String())
		})
	}
}

func TestRootCommand_PolicyFlagsAreGlobal(t *testing.T) {
	cmd := NewRootCmd()
	for _, name := range []string{"pin-length", "reset-store", "database-url", "log-level"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing --%s", name)
	}
}
