// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package main

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/accountd/accountd/internal/config"
	"github.com/accountd/accountd/internal/xdg"
)

// NewConfigCmd creates the config subcommand.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage accountd configuration",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default settings",
		Long: `Write a starter config file with default settings to the XDG config
directory, or to --path if given. Fails if the file already exists.`,
		RunE: runConfigInit,
	}
	initCmd.Flags().String("path", "", "destination path (default: XDG config file)")

	cmd.AddCommand(initCmd)
	return cmd
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("path")
	if err != nil {
		return oops.Wrap(err)
	}
	if path == "" {
		path = xdg.ConfigFile()
	}

	if _, err := os.Stat(path); err == nil {
		return oops.Code("CONFIG_EXISTS").
			With("path", path).
			Errorf("config file already exists")
	}

	if err := xdg.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	out, err := yaml.Marshal(defaultConfigDoc())
	if err != nil {
		return oops.Code("CONFIG_WRITE_FAILED").Wrap(err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return oops.Code("CONFIG_WRITE_FAILED").With("path", path).Wrap(err)
	}

	cmd.Printf("Wrote %s\n", path)
	return nil
}

// defaultConfigDoc builds the YAML document for config init. Keys mirror the
// koanf paths; secrets are left empty for the operator to fill in.
func defaultConfigDoc() map[string]any {
	def := config.Default()
	return map[string]any{
		"database": map[string]any{
			"url":          "",
			"auto_migrate": def.Database.AutoMigrate,
		},
		"auth": map[string]any{
			"secret":     "",
			"access_ttl": "24h",
			"verify_ttl": "48h",
			"reset_ttl":  "1h",
		},
		"smtp": map[string]any{
			"addr":     "",
			"from":     "",
			"username": "",
			"password": "",
		},
		"http": map[string]any{
			"addr": def.HTTP.Addr,
		},
		"metrics": map[string]any{
			"enabled": def.Metrics.Enabled,
			"addr":    def.Metrics.Addr,
		},
		"frontend": map[string]any{
			"base_url": def.Frontend.BaseURL,
		},
		"log": map[string]any{
			"format": def.Log.Format,
		},
	}
}
