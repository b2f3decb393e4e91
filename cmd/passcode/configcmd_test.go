// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/passcode/pkg/errutil"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConfigShow(t *testing.T) {
	out, err := runCLI(t, Deps{}, "", "--database-url=postgres://app:hunter2@db:5432/passcode", "config", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "pin_length: 4")
	assert.Contains(t, out, "store: memory")
	assert.Contains(t, out, "ttl: 1h0m0s")
	assert.Contains(t, out, "postgres://app:xxxxx@db:5432/passcode")
	assert.NotContains(t, out, "hunter2")
}

func TestConfigShow_FromFile(t *testing.T) {
	path := writeConfig(t, "policy:\n  pin_length: 6\nreset:\n  ttl: 30m\n")

	out, err := runCLI(t, Deps{}, "", "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "pin_length: 6")
	assert.Contains(t, out, "ttl: 30m0s")
}

func TestRedactURL(t *testing.T) {
	assert.Empty(t, redactURL(""))
	assert.Equal(t, "postgres://db/passcode", redactURL("postgres://db/passcode"))
	assert.Equal(t, "[unparseable]", redactURL("postgres://db:port\x7f/x"))
}

func TestConfigSchema(t *testing.T) {
	out, err := runCLI(t, Deps{}, "", "config", "schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Contains(t, schema, "$id")
	assert.Contains(t, schema["properties"], "policy")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantCode string
	}{
		{name: "valid", content: "policy:\n  pin_length: 6\n"},
		{name: "empty", content: ""},
		{name: "schema violation", content: "reset:\n  store: sqlite\n", wantCode: "CONFIG_SCHEMA_VIOLATION"},
		{name: "invalid yaml", content: "policy: [\n", wantCode: "CONFIG_INVALID_YAML"},
		{name: "semantic violation", content: "reset:\n  store: postgres\n", wantCode: "CONFIG_INVALID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			out, err := runCLI(t, Deps{}, "", "config", "validate", path)
			if tt.wantCode != "" {
				errutil.AssertErrorCode(t, err, tt.wantCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, path+": ok\n", out)
		})
	}
}

func TestConfigValidate_MissingFile(t *testing.T) {
	_, err := runCLI(t, Deps{}, "", "config", "validate", filepath.Join(t.TempDir(), "absent.yaml"))
	errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")

	_, err = runCLI(t, Deps{}, "", "config", "validate")
	errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
}
