// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package config loads server settings from an optional YAML file and
// VITEST_MCP_ environment variables, in that order of precedence (env wins).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Fitzpa/vitest-mcp/env"
	"github.com/Fitzpa/vitest-mcp/security"
)

// Environment variable names, without the VITEST_MCP_ prefix.
const (
	EnvProjectRoot = "PROJECT_ROOT"
	EnvDebug       = "DEBUG"
	EnvLogFormat   = "LOG_FORMAT"
	EnvMetricsPort = "METRICS_PORT"
	EnvTestTimeout = "TEST_TIMEOUT"
)

// Runners lists the package runners vitest may be launched through.
var Runners = []string{"npx", "pnpm", "yarn", "bun"}

// configExtensions are the accepted config file extensions.
var configExtensions = []string{".yaml", ".yml"}

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the server settings.
type Config struct {
	// ProjectRoot is the initial project directory; set_project_root may replace it.
	ProjectRoot string `yaml:"projectRoot"`
	// PackageRunner forces npx, pnpm, yarn or bun; empty auto-detects from lockfiles.
	PackageRunner string `yaml:"packageRunner"`
	// TestTimeout bounds a single vitest invocation.
	TestTimeout time.Duration `yaml:"testTimeout"`
	// MaxOutputBytes caps the captured stdout and stderr of vitest.
	MaxOutputBytes int `yaml:"maxOutputBytes"`
	// RateLimit is the sustained tool calls per second; RateBurst the bucket size.
	RateLimit float64 `yaml:"rateLimit"`
	RateBurst int     `yaml:"rateBurst"`
	// BreakerFailures consecutive runner failures open the breaker for BreakerTimeout.
	BreakerFailures uint32        `yaml:"breakerFailures"`
	BreakerTimeout  time.Duration `yaml:"breakerTimeout"`
	Debug           bool          `yaml:"debug"`
	StructuredLogs  bool          `yaml:"structuredLogs"`
	// MetricsPort serves Prometheus metrics on localhost when non-zero.
	MetricsPort int `yaml:"metricsPort"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		TestTimeout:     5 * time.Minute,
		MaxOutputBytes:  10 << 20,
		RateLimit:       5,
		RateBurst:       10,
		BreakerFailures: 3,
		BreakerTimeout:  30 * time.Second,
	}
}

// Load builds a Config from defaults, the YAML file at path (if path is not
// empty) and the VITEST_MCP_ entries of environ, then validates it.
func Load(path string, environ []string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(environ); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	if err := security.ValidatePathSecurity(path); err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	if err := security.ValidateFileExtension(path, configExtensions); err != nil {
		return fmt.Errorf("config file: %w", err)
	}

	// #nosec G304 -- path validated above
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return c.Decode(bytes.NewReader(data))
}

// Decode overlays YAML settings from r onto c. Unknown keys are rejected.
func (c *Config) Decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// ApplyEnv overlays VITEST_MCP_ variables from environ onto c.
func (c *Config) ApplyEnv(environ []string) error {
	vars := env.TrimPrefixKeys(env.SliceToMap(environ), env.ServerPrefix)

	if v, ok := vars[EnvProjectRoot]; ok && v != "" {
		c.ProjectRoot = v
	}
	if v, ok := vars[EnvDebug]; ok && v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", env.ServerPrefix, EnvDebug, err)
		}
		c.Debug = debug
	}
	if v, ok := vars[EnvLogFormat]; ok && v != "" {
		switch strings.ToLower(v) {
		case "json":
			c.StructuredLogs = true
		case "text":
			c.StructuredLogs = false
		default:
			return fmt.Errorf("%s%s: unknown format %q (want text or json)", env.ServerPrefix, EnvLogFormat, v)
		}
	}
	if v, ok := vars[EnvMetricsPort]; ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", env.ServerPrefix, EnvMetricsPort, err)
		}
		c.MetricsPort = port
	}
	if v, ok := vars[EnvTestTimeout]; ok && v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", env.ServerPrefix, EnvTestTimeout, err)
		}
		c.TestTimeout = timeout
	}
	return nil
}

// Validate checks ranges, the runner allowlist and the project root.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.ProjectRoot != "" {
		if err := security.ValidatePathSecurity(c.ProjectRoot); err != nil {
			errs = append(errs, fmt.Errorf("%w: projectRoot: %w", ErrInvalidConfig, err))
		}
	}
	if c.PackageRunner != "" && !isRunner(c.PackageRunner) {
		invalid("packageRunner %q is not one of %s", c.PackageRunner, strings.Join(Runners, ", "))
	}
	if c.TestTimeout <= 0 {
		invalid("testTimeout must be positive")
	}
	if c.MaxOutputBytes <= 0 {
		invalid("maxOutputBytes must be positive")
	}
	if c.RateLimit <= 0 {
		invalid("rateLimit must be positive")
	}
	if c.RateBurst < 1 {
		invalid("rateBurst must be at least 1")
	}
	if c.BreakerFailures == 0 {
		invalid("breakerFailures must be at least 1")
	}
	if c.BreakerTimeout <= 0 {
		invalid("breakerTimeout must be positive")
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		invalid("metricsPort %d out of range", c.MetricsPort)
	}

	return errors.Join(errs...)
}

func isRunner(name string) bool {
	for _, r := range Runners {
		if name == r {
			return true
		}
	}
	return false
}
