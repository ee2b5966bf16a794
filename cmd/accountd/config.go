// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package main

import (
	"math"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/accountd/accountd/internal/auth"
	"github.com/accountd/accountd/internal/logging"
	"github.com/accountd/accountd/internal/xdg"
)

// Configuration keys. Each key is also a flag, and its environment variable
// is the key upper-cased with dashes turned into underscores.
const (
	keyConfig             = "config"
	keyHTTPAddr           = "http-addr"
	keyMetricsAddr        = "metrics-addr"
	keyDatabaseURL        = "database-url"
	keyJWTAccessSecret    = "jwt-access-secret"
	keyJWTRefreshSecret   = "jwt-refresh-secret"
	keyJWTAccessExpires   = "jwt-access-expires-in"
	keyJWTRefreshExpires  = "jwt-refresh-expires-in"
	keyJWTIssuer          = "jwt-issuer"
	keyLogFormat          = "log-format"
	keyLogLevel           = "log-level"
	keyAutoMigrate        = "auto-migrate"
	redactedSecret        = "[redacted]"
	codeConfigInvalid     = "CONFIG_INVALID"
	defaultHTTPAddr       = ":3000"
	defaultMetricsAddr    = "127.0.0.1:9100"
	defaultAccessExpires  = "15m"
	defaultRefreshExpires = "7d"
	defaultLogFormat      = logging.FormatJSON
	defaultLogLevel       = "info"
)

// configKeys lists the keys read from the environment.
var configKeys = []string{
	keyHTTPAddr,
	keyMetricsAddr,
	keyDatabaseURL,
	keyJWTAccessSecret,
	keyJWTRefreshSecret,
	keyJWTAccessExpires,
	keyJWTRefreshExpires,
	keyJWTIssuer,
	keyLogFormat,
	keyLogLevel,
	keyAutoMigrate,
}

// Config is the effective accountd configuration.
type Config struct {
	HTTPAddr         string
	MetricsAddr      string
	DatabaseURL      string
	JWTAccessSecret  string
	JWTRefreshSecret string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	JWTIssuer        string
	LogFormat        string
	LogLevel         string
	AutoMigrate      bool
}

// registerConfigFlags declares every configuration key as a flag. The flag
// defaults are the lowest configuration layer.
func registerConfigFlags(fs *pflag.FlagSet) {
	fs.String(keyConfig, "", "YAML config file path")
	fs.String(keyHTTPAddr, defaultHTTPAddr, "API listen address")
	fs.String(keyMetricsAddr, defaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.String(keyDatabaseURL, "", "PostgreSQL connection URL")
	fs.String(keyJWTAccessSecret, "", "HMAC secret for access tokens")
	fs.String(keyJWTRefreshSecret, "", "HMAC secret for refresh tokens")
	fs.String(keyJWTAccessExpires, defaultAccessExpires, "access token lifetime (Go duration or <n>d)")
	fs.String(keyJWTRefreshExpires, defaultRefreshExpires, "refresh token lifetime (Go duration or <n>d)")
	fs.String(keyJWTIssuer, auth.DefaultIssuer, "token issuer claim")
	fs.String(keyLogFormat, defaultLogFormat, "log format (json or text)")
	fs.String(keyLogLevel, defaultLogLevel, "log level (debug, info, warn, error)")
	fs.Bool(keyAutoMigrate, false, "apply pending migrations before serving")
}

// loadConfig resolves the configuration. Later layers win:
// flag defaults, the YAML file named by --config (or the one found in the
// XDG config directory), the environment, and finally flags set on the
// command line. A nil environ reads the process environment.
func loadConfig(fs *pflag.FlagSet, environ func() []string) (*Config, error) {
	if environ == nil {
		environ = os.Environ
	}
	k := koanf.New(".")

	path, err := fs.GetString(keyConfig)
	if err != nil {
		return nil, oops.Code(codeConfigInvalid).With("key", keyConfig).Wrap(err)
	}
	if path == "" {
		path = xdg.DefaultConfigFile(lookupIn(environ))
	}
	if path != "" {
		if err := k.Load(file.Provider(path), koanfyaml.Parser()); err != nil {
			return nil, oops.Code(codeConfigInvalid).With("path", path).Wrap(err)
		}
	}

	envProvider := env.Provider(".", env.Opt{
		TransformFunc: envToKey,
		EnvironFunc:   environ,
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, oops.Code(codeConfigInvalid).With("operation", "load environment").Wrap(err)
	}

	// Unchanged flags only fill keys no other layer set.
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, oops.Code(codeConfigInvalid).With("operation", "load flags").Wrap(err)
	}

	accessTTL, err := parseDuration(k.String(keyJWTAccessExpires))
	if err != nil {
		return nil, oops.With("key", keyJWTAccessExpires).Wrap(err)
	}
	refreshTTL, err := parseDuration(k.String(keyJWTRefreshExpires))
	if err != nil {
		return nil, oops.With("key", keyJWTRefreshExpires).Wrap(err)
	}
	autoMigrate, err := boolSetting(k, keyAutoMigrate)
	if err != nil {
		return nil, err
	}

	return &Config{
		HTTPAddr:         k.String(keyHTTPAddr),
		MetricsAddr:      k.String(keyMetricsAddr),
		DatabaseURL:      k.String(keyDatabaseURL),
		JWTAccessSecret:  k.String(keyJWTAccessSecret),
		JWTRefreshSecret: k.String(keyJWTRefreshSecret),
		AccessTTL:        accessTTL,
		RefreshTTL:       refreshTTL,
		JWTIssuer:        k.String(keyJWTIssuer),
		LogFormat:        k.String(keyLogFormat),
		LogLevel:         k.String(keyLogLevel),
		AutoMigrate:      autoMigrate,
	}, nil
}

// envToKey maps DATABASE_URL to database-url. Variables that name no
// configuration key are dropped.
func envToKey(name, value string) (string, any) {
	key := strings.ToLower(strings.ReplaceAll(name, "_", "-"))
	if !slices.Contains(configKeys, key) {
		return "", nil
	}
	return key, value
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// lookupIn adapts an environ list for XDG discovery.
func lookupIn(environ func() []string) xdg.LookupEnv {
	return func(name string) (string, bool) {
		for _, kv := range environ() {
			if k, v, ok := strings.Cut(kv, "="); ok && k == name {
				return v, true
			}
		}
		return "", false
	}
}

// boolSetting reads a flag-typed bool, or a string from the file or the
// environment.
func boolSetting(k *koanf.Koanf, key string) (bool, error) {
	switch v := k.Get(key).(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, oops.Code(codeConfigInvalid).With("key", key).With("value", v).Wrap(err)
		}
		return b, nil
	default:
		return false, oops.Code(codeConfigInvalid).With("key", key).Errorf("%s must be a boolean", key)
	}
}

const (
	day     = 24 * time.Hour
	maxDays = math.MaxInt64 / int64(day)
)

// parseDuration accepts Go durations and a whole number of days ("7d").
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.ParseInt(days, 10, 64)
		if err != nil {
			return 0, oops.Code(codeConfigInvalid).With("value", s).Wrap(err)
		}
		if n > maxDays || n < -maxDays {
			return 0, oops.Code(codeConfigInvalid).With("value", s).Errorf("%s is out of range", s)
		}
		return time.Duration(n) * day, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, oops.Code(codeConfigInvalid).With("value", s).Wrap(err)
	}
	return d, nil
}

// Validate checks everything serve needs before it opens a connection.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return oops.Code(codeConfigInvalid).With("key", keyHTTPAddr).Errorf("%s is required", keyHTTPAddr)
	}
	if err := c.RequireDatabase(); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return oops.With("key", keyLogFormat).Wrap(err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return oops.With("key", keyLogLevel).Wrap(err)
	}
	if err := c.TokenConfig().Validate(); err != nil {
		return oops.With("operation", "validate token settings").Wrap(err)
	}
	return nil
}

// RequireDatabase checks the one setting migrate needs.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return oops.Code(codeConfigInvalid).
			With("key", keyDatabaseURL).
			Errorf("%s is required (flag --%s or env %s)", keyDatabaseURL, keyDatabaseURL, envName(keyDatabaseURL))
	}
	return nil
}

// TokenConfig returns the issuer settings.
func (c *Config) TokenConfig() auth.TokenConfig {
	return auth.TokenConfig{
		AccessSecret:  c.JWTAccessSecret,
		RefreshSecret: c.JWTRefreshSecret,
		AccessTTL:     c.AccessTTL,
		RefreshTTL:    c.RefreshTTL,
		Issuer:        c.JWTIssuer,
	}
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	out := *c
	for _, secret := range []*string{&out.JWTAccessSecret, &out.JWTRefreshSecret} {
		if *secret != "" {
			*secret = redactedSecret
		}
	}
	if out.DatabaseURL != "" {
		out.DatabaseURL = redactURL(out.DatabaseURL)
	}
	return out
}

// redactURL hides the password of a connection URL.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return redactedSecret
	}
	return u.Redacted()
}
