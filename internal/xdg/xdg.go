// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package xdg locates accountd files under the XDG Base Directory layout.
package xdg

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const (
	appName        = "accountd"
	configFileName = "config.yaml"
)

// LookupEnv matches os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// ConfigDir returns the accountd config directory.
// Checks XDG_CONFIG_HOME first, falls back to $HOME/.config.
func ConfigDir(lookup LookupEnv) (string, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if base, ok := lookup("XDG_CONFIG_HOME"); ok && base != "" {
		return filepath.Join(base, appName), nil
	}
	home, ok := lookup("HOME")
	if !ok || home == "" {
		return "", oops.Code("XDG_HOME_UNSET").Errorf("neither XDG_CONFIG_HOME nor HOME is set")
	}
	return filepath.Join(home, ".config", appName), nil
}

// DefaultConfigFile returns the config file used when --config is not
// given, or "" when there is none on disk.
func DefaultConfigFile(lookup LookupEnv) string {
	dir, err := ConfigDir(lookup)
	if err != nil {
		return ""
	}
	path := filepath.Join(dir, configFileName)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ""
	}
	return path
}
