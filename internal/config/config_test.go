// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accountd/accountd/pkg/errutil"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults apply without a config file", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())

		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.HTTP.Addr)
		assert.Equal(t, ":9090", cfg.Metrics.Addr)
		assert.True(t, cfg.Metrics.Enabled)
		assert.True(t, cfg.Database.AutoMigrate)
		assert.Equal(t, "json", cfg.Log.Format)
		assert.Equal(t, "http://localhost:3000", cfg.Frontend.BaseURL)
	})

	t.Run("explicit missing file is an error", func(t *testing.T) {
		_, err := Load("/nonexistent/config.yaml", nil)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := writeConfig(t, `
database:
  url: postgres://localhost/accounts
  auto_migrate: false
auth:
  secret: filesecret
  access_ttl: 12h
  reset_ttl: 30m
http:
  addr: ":9999"
log:
  format: text
`)

		cfg, err := Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "postgres://localhost/accounts", cfg.Database.URL)
		assert.False(t, cfg.Database.AutoMigrate)
		assert.Equal(t, "filesecret", cfg.Auth.Secret)
		assert.Equal(t, 12*time.Hour, cfg.Auth.AccessTTL)
		assert.Equal(t, 30*time.Minute, cfg.Auth.ResetTTL)
		assert.Zero(t, cfg.Auth.VerifyTTL, "unset TTLs stay zero for the token service defaults")
		assert.Equal(t, ":9999", cfg.HTTP.Addr)
		assert.Equal(t, "text", cfg.Log.Format)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := writeConfig(t, `
auth:
  secret: filesecret
`)
		t.Setenv("ACCOUNTD_AUTH__SECRET", "envsecret")
		t.Setenv("ACCOUNTD_DATABASE__URL", "postgres://env/accounts")

		cfg, err := Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "envsecret", cfg.Auth.Secret)
		assert.Equal(t, "postgres://env/accounts", cfg.Database.URL)
	})

	t.Run("flags override environment", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		t.Setenv("ACCOUNTD_HTTP__ADDR", ":7000")

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("http.addr", "", "")
		require.NoError(t, flags.Parse([]string{"--http.addr", ":7777"}))

		cfg, err := Load("", flags)
		require.NoError(t, err)
		assert.Equal(t, ":7777", cfg.HTTP.Addr)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "{not yaml: [")
		_, err := Load(path, nil)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.Database.URL = "postgres://localhost/accounts"
		cfg.Auth.Secret = "secret"
		return cfg
	}

	t.Run("valid config passes", func(t *testing.T) {
		require.NoError(t, valid().Validate())
	})

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing database url", func(c *Config) { c.Database.URL = "" }},
		{"missing secret", func(c *Config) { c.Auth.Secret = "" }},
		{"missing http addr", func(c *Config) { c.HTTP.Addr = "" }},
		{"missing frontend base url", func(c *Config) { c.Frontend.BaseURL = "" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"smtp addr without sender", func(c *Config) { c.SMTP.Addr = "mail:587" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
		})
	}
}
