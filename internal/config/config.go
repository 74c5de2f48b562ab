/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package config loads the shc configuration file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SHC_"

// Config is the complete application configuration.
type Config struct {
	Server      Server      `yaml:"server"`
	KeySet      KeySet      `yaml:"keyset"`
	Terminology Terminology `yaml:"terminology"`
	Trust       Trust       `yaml:"trust"`
	Cache       Cache       `yaml:"cache"`
	Log         Log         `yaml:"log"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr string `yaml:"addr"`
}

// KeySet configures issuer key set fetches.
type KeySet struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Terminology configures the terminology server. An empty Server disables remote lookups.
type Terminology struct {
	Server   string        `yaml:"server"`
	Timeout  time.Duration `yaml:"timeout"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
}

// Trust configures issuer directory sources loaded in addition to the bundled snapshot.
type Trust struct {
	DirectoryFile string `yaml:"directory_file"`
	DirectoryURL  string `yaml:"directory_url"`
	SkipBundled   bool   `yaml:"skip_bundled"`
}

// Cache configures the verification result cache.
type Cache struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

// Log configures logging.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server:      Server{Addr: ":8080"},
		KeySet:      KeySet{Timeout: 5 * time.Second},
		Terminology: Terminology{Timeout: 10 * time.Second},
		Cache:       Cache{Size: 256, TTL: 10 * time.Minute},
		Log:         Log{Level: "info", Format: "text"},
	}
}

// Load reads the configuration file at path over the defaults, then applies environment
// overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 - path comes from the operator
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}

		if err = yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// ApplyEnv overrides settings from SHC_* variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))

				return
			}

			*dst = d
		}
	}

	str("SERVER_ADDR", &c.Server.Addr)
	dur("KEYSET_TIMEOUT", &c.KeySet.Timeout)
	str("TERMINOLOGY_SERVER", &c.Terminology.Server)
	dur("TERMINOLOGY_TIMEOUT", &c.Terminology.Timeout)
	str("TERMINOLOGY_USERNAME", &c.Terminology.Username)
	str("TERMINOLOGY_PASSWORD", &c.Terminology.Password)
	str("TRUST_DIRECTORY_FILE", &c.Trust.DirectoryFile)
	str("TRUST_DIRECTORY_URL", &c.Trust.DirectoryURL)
	dur("CACHE_TTL", &c.Cache.TTL)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup(EnvPrefix + "TRUST_SKIP_BUNDLED"); ok {
		skip, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTRUST_SKIP_BUNDLED: %w", EnvPrefix, err))
		} else {
			c.Trust.SkipBundled = skip
		}
	}

	if v, ok := lookup(EnvPrefix + "CACHE_SIZE"); ok {
		size, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sCACHE_SIZE: %w", EnvPrefix, err))
		} else {
			c.Cache.Size = size
		}
	}

	return errors.Join(errs...)
}

// Validate checks the configuration for values no component accepts.
func (c *Config) Validate() error {
	var errs []error

	if c.KeySet.Timeout <= 0 {
		errs = append(errs, errors.New("keyset.timeout must be positive"))
	}

	if c.Terminology.Timeout <= 0 {
		errs = append(errs, errors.New("terminology.timeout must be positive"))
	}

	if c.Cache.Size <= 0 {
		errs = append(errs, errors.New("cache.size must be positive"))
	}

	if c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive"))
	}

	if _, err := c.Log.level(); err != nil {
		errs = append(errs, err)
	}

	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}

	return errors.Join(errs...)
}

func (l Log) level() (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return level, fmt.Errorf("log.level: %w", err)
	}

	return level, nil
}

// NewLogger builds the logger described by the configuration, writing to w.
func (l Log) NewLogger(w io.Writer) *slog.Logger {
	level, err := l.level()
	if err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}
