// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads passcode configuration from an optional YAML file and
// command-line flags. Flags that were set explicitly override the file; the
// file overrides flag defaults.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/passcode/internal/auth"
	"github.com/holomush/passcode/internal/logging"
	"github.com/holomush/passcode/internal/xdg"
)

// Reset token store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// FileName is the default config file name inside the XDG config directory.
const FileName = "config.yaml"

// Config is the full passcode configuration.
type Config struct {
	Policy   auth.Policy    `koanf:"policy" yaml:"policy" json:"policy"`
	Reset    ResetConfig    `koanf:"reset" yaml:"reset" json:"reset"`
	Database DatabaseConfig `koanf:"database" yaml:"database" json:"database"`
	Redis    RedisConfig    `koanf:"redis" yaml:"redis" json:"redis"`
	Log      LogConfig      `koanf:"log" yaml:"log" json:"log"`
	Metrics  MetricsConfig  `koanf:"metrics" yaml:"metrics" json:"metrics"`
}

// ResetConfig controls reset token lifetime and storage.
type ResetConfig struct {
	TTL           time.Duration `koanf:"ttl" yaml:"ttl" json:"ttl" jsonschema:"type=string,description=Go duration such as 1h"`
	Store         string        `koanf:"store" yaml:"store" json:"store" jsonschema:"enum=memory,enum=postgres,enum=redis"`
	SweepInterval time.Duration `koanf:"sweep_interval" yaml:"sweep_interval" json:"sweep_interval" jsonschema:"type=string"`
}

// DatabaseConfig holds the PostgreSQL connection string.
type DatabaseConfig struct {
	URL string `koanf:"url" yaml:"url" json:"url"`
}

// RedisConfig holds the Redis address and key prefix.
type RedisConfig struct {
	Addr   string `koanf:"addr" yaml:"addr" json:"addr"`
	Prefix string `koanf:"prefix" yaml:"prefix" json:"prefix"`
}

// LogConfig selects log output.
type LogConfig struct {
	Format string `koanf:"format" yaml:"format" json:"format" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" yaml:"level" json:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// MetricsConfig holds the metrics listener address.
type MetricsConfig struct {
	Addr string `koanf:"addr" yaml:"addr" json:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Policy: auth.DefaultPolicy(),
		Reset: ResetConfig{
			TTL:           auth.ResetTokenExpiry,
			Store:         StoreMemory,
			SweepInterval: 10 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:   "127.0.0.1:6379",
			Prefix: "passcode",
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9100",
		},
	}
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"email-max-length":      "policy.email_max_length",
	"password-max-length":   "policy.password_max_length",
	"pin-length":            "policy.pin_length",
	"strong-min-length":     "policy.strong_password.min_length",
	"strong-min-lowercase":  "policy.strong_password.min_lowercase",
	"strong-min-uppercase":  "policy.strong_password.min_uppercase",
	"strong-min-numbers":    "policy.strong_password.min_numbers",
	"strong-min-symbols":    "policy.strong_password.min_symbols",
	"failed-login-attempts": "policy.failed_login_attempts",
	"reset-ttl":             "reset.ttl",
	"reset-store":           "reset.store",
	"sweep-interval":        "reset.sweep_interval",
	"database-url":          "database.url",
	"redis-addr":            "redis.addr",
	"redis-prefix":          "redis.prefix",
	"log-format":            "log.format",
	"log-level":             "log.level",
	"metrics-addr":          "metrics.addr",
}

// RegisterFlags adds every config flag to fs, defaulting to Default().
// DATABASE_URL seeds the database-url default.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.Int("email-max-length", d.Policy.EmailMaxLength, "maximum email length in characters")
	fs.Int("password-max-length", d.Policy.PasswordMaxLength, "maximum password length in characters")
	fs.Int("pin-length", d.Policy.PinLength, "exact PIN length in characters")
	fs.Int("strong-min-length", d.Policy.StrongPassword.MinLength, "minimum strong password length")
	fs.Int("strong-min-lowercase", d.Policy.StrongPassword.MinLowercase, "minimum lowercase letters")
	fs.Int("strong-min-uppercase", d.Policy.StrongPassword.MinUppercase, "minimum uppercase letters")
	fs.Int("strong-min-numbers", d.Policy.StrongPassword.MinNumbers, "minimum digits")
	fs.Int("strong-min-symbols", d.Policy.StrongPassword.MinSymbols, "minimum symbols")
	fs.Int("failed-login-attempts", d.Policy.FailedLoginAttempts, "failed verifications before lockout")
	fs.Duration("reset-ttl", d.Reset.TTL, "reset token lifetime")
	fs.String("reset-store", d.Reset.Store, "reset token store (memory, postgres, redis)")
	fs.Duration("sweep-interval", d.Reset.SweepInterval, "interval between expired token sweeps")
	fs.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	fs.String("redis-addr", d.Redis.Addr, "Redis address or redis:// URL")
	fs.String("redis-prefix", d.Redis.Prefix, "Redis key prefix")
	fs.String("log-format", d.Log.Format, "log format (json, text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("metrics-addr", d.Metrics.Addr, "metrics listener address (empty disables)")
}

// DefaultPath returns the config file location under the XDG config dir.
func DefaultPath() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err //nolint:wrapcheck // already coded
	}
	return filepath.Join(dir, FileName), nil
}

// Load builds a Config from path and fs. An empty path tries DefaultPath and
// skips it when missing; an explicit path must exist. fs may be nil.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is operator supplied
	switch {
	case err == nil:
		if err := ValidateSchema(data); err != nil {
			return nil, oops.With("path", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "unmarshal").Wrap(err)
	}
	cfg.Reset.Store = strings.ToLower(strings.TrimSpace(cfg.Reset.Store))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	if c.Policy.PinLength > c.Policy.PasswordMaxLength {
		return oops.Code("CONFIG_INVALID").
			With("field", "policy.pin_length").
			Errorf("pin length %d exceeds password max length %d", c.Policy.PinLength, c.Policy.PasswordMaxLength)
	}
	if c.Reset.TTL <= 0 {
		return oops.Code("CONFIG_INVALID").With("field", "reset.ttl").Errorf("reset ttl must be positive")
	}
	if c.Reset.SweepInterval <= 0 {
		return oops.Code("CONFIG_INVALID").With("field", "reset.sweep_interval").Errorf("sweep interval must be positive")
	}
	switch c.Reset.Store {
	case StoreMemory:
	case StorePostgres:
		if c.Database.URL == "" {
			return oops.Code("CONFIG_INVALID").
				With("field", "database.url").
				Errorf("database url is required for the postgres store")
		}
	case StoreRedis:
		if c.Redis.Addr == "" {
			return oops.Code("CONFIG_INVALID").
				With("field", "redis.addr").
				Errorf("redis address is required for the redis store")
		}
	default:
		return oops.Code("CONFIG_INVALID").
			With("field", "reset.store").
			Errorf("unknown reset store %q", c.Reset.Store)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return oops.Code("CONFIG_INVALID").With("field", "log.format").Errorf("unknown log format %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return oops.Code("CONFIG_INVALID").With("field", "log.level").Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}
