// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package main

import (
	"io"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configView is the printed form of Config, keyed like the config file.
type configView struct {
	HTTPAddr         string `yaml:"http-addr"`
	MetricsAddr      string `yaml:"metrics-addr"`
	DatabaseURL      string `yaml:"database-url"`
	JWTAccessSecret  string `yaml:"jwt-access-secret"`
	JWTRefreshSecret string `yaml:"jwt-refresh-secret"`
	AccessTTL        string `yaml:"jwt-access-expires-in"`
	RefreshTTL       string `yaml:"jwt-refresh-expires-in"`
	JWTIssuer        string `yaml:"jwt-issuer"`
	LogFormat        string `yaml:"log-format"`
	LogLevel         string `yaml:"log-level"`
	AutoMigrate      bool   `yaml:"auto-migrate"`
}

// NewConfigCmd creates the config subcommand.
func NewConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration accountd would run with after merging flag
defaults, the config file, the environment and command-line flags.
Secrets are redacted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags(), nil)
			if err != nil {
				return err
			}
			return writeConfig(cmd.OutOrStdout(), cfg)
		},
	}
}

func writeConfig(w io.Writer, cfg *Config) error {
	r := cfg.Redacted()
	view := configView{
		HTTPAddr:         r.HTTPAddr,
		MetricsAddr:      r.MetricsAddr,
		DatabaseURL:      r.DatabaseURL,
		JWTAccessSecret:  r.JWTAccessSecret,
		JWTRefreshSecret: r.JWTRefreshSecret,
		AccessTTL:        r.AccessTTL.String(),
		RefreshTTL:       r.RefreshTTL.String(),
		JWTIssuer:        r.JWTIssuer,
		LogFormat:        r.LogFormat,
		LogLevel:         r.LogLevel,
		AutoMigrate:      r.AutoMigrate,
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(view); err != nil {
		return oops.Code("CONFIG_PRINT_FAILED").Wrap(err)
	}
	if err := enc.Close(); err != nil {
		return oops.Code("CONFIG_PRINT_FAILED").Wrap(err)
	}
	return nil
}
