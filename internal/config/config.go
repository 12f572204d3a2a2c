// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package config loads accountd configuration from a YAML file, environment
// variables, and command-line flags, in ascending order of precedence.
package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/accountd/accountd/internal/xdg"
)

// envPrefix namespaces accountd environment variables. A double underscore
// separates nesting levels: ACCOUNTD_DATABASE__URL maps to database.url.
const envPrefix = "ACCOUNTD_"

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL         string `koanf:"url"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	Secret    string        `koanf:"secret"`
	AccessTTL time.Duration `koanf:"access_ttl"`
	VerifyTTL time.Duration `koanf:"verify_ttl"`
	ResetTTL  time.Duration `koanf:"reset_ttl"`
}

// SMTPConfig holds mail relay settings. An empty Addr selects the logging
// gateway instead of a real relay.
type SMTPConfig struct {
	Addr     string `koanf:"addr"`
	From     string `koanf:"from"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// HTTPConfig holds API listener settings.
type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

// MetricsConfig holds the observability listener settings.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// FrontendConfig holds settings for links embedded in outgoing emails.
type FrontendConfig struct {
	BaseURL string `koanf:"base_url"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Format string `koanf:"format"` // "json" or "text"
}

// Config is the root accountd configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	SMTP     SMTPConfig     `koanf:"smtp"`
	HTTP     HTTPConfig     `koanf:"http"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Frontend FrontendConfig `koanf:"frontend"`
	Log      LogConfig      `koanf:"log"`
}

// Default returns the built-in defaults. Secrets and the database URL have
// no default; Validate rejects a config that never set them.
func Default() Config {
	return Config{
		Database: DatabaseConfig{AutoMigrate: true},
		HTTP:     HTTPConfig{Addr: ":8080"},
		Metrics:  MetricsConfig{Enabled: true, Addr: ":9090"},
		Frontend: FrontendConfig{BaseURL: "http://localhost:3000"},
		Log:      LogConfig{Format: "json"},
	}
}

// Load builds the configuration. Precedence, lowest to highest: defaults,
// YAML file, ACCOUNTD_* environment variables, command-line flags. path may
// be empty, in which case the XDG config file is used if present; an
// explicitly given path must exist.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		path = xdg.ConfigFile()
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	cfg := Default()
	if err := unmarshal(k, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey maps ACCOUNTD_DATABASE__URL to database.url.
func envKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}

func unmarshal(k *koanf.Koanf, cfg *Config) error {
	err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
			Result:           cfg,
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return oops.Code("CONFIG_PARSE_FAILED").Wrap(err)
	}
	return nil
}

// Validate checks that required settings are present and well-formed.
func (c Config) Validate() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url is required")
	}
	if c.Auth.Secret == "" {
		return oops.Code("CONFIG_INVALID").Errorf("auth.secret is required")
	}
	if c.HTTP.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("http.addr is required")
	}
	if c.Frontend.BaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("frontend.base_url is required")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").
			With("format", c.Log.Format).
			Errorf("log.format must be json or text")
	}
	if c.SMTP.Addr != "" && c.SMTP.From == "" {
		return oops.Code("CONFIG_INVALID").Errorf("smtp.from is required when smtp.addr is set")
	}
	return nil
}
