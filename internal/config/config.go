// Package config loads the catalog CLI configuration stored at
// ~/.catalog/config.yaml, with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigDir is the directory under the user's home for CLI state.
const DefaultConfigDir = ".catalog"

// DefaultConfigFile is the config file name within the config directory.
const DefaultConfigFile = "config.yaml"

const (
	// DefaultBaseURL points at a twin started with default flags.
	DefaultBaseURL = "http://localhost:3000/"
	// DefaultTimeout bounds every request to the products service.
	DefaultTimeout = 10 * time.Second
)

// Environment variables that override the file.
const (
	EnvBaseURL = "CATALOG_BASE_URL"
	EnvTimeout = "CATALOG_TIMEOUT"
)

// Config represents the contents of ~/.catalog/config.yaml.
type Config struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	Verbose bool          `yaml:"verbose"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{BaseURL: DefaultBaseURL, Timeout: DefaultTimeout}
}

// Path returns the full path to the default config file.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}
	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile), nil
}

// Load reads ~/.catalog/config.yaml and applies environment overrides.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path and applies environment overrides.
// A missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Read returns the file's contents over the defaults, without environment
// overrides. A missing file yields the defaults.
func Read(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Keys lists the settings accepted by Set, in file order.
var Keys = []string{"base_url", "timeout", "verbose"}

// Set assigns one setting from its string form and validates the result.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "base_url":
		c.BaseURL = value
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", value, err)
		}
		c.Timeout = d
	case "verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid verbose %q: %w", value, err)
		}
		c.Verbose = b
	default:
		return fmt.Errorf("unknown setting %q (want one of %s)", key, strings.Join(Keys, ", "))
	}
	return c.Validate()
}

// Get returns one setting in the form Set accepts.
func (c *Config) Get(key string) (string, bool) {
	switch key {
	case "base_url":
		return c.BaseURL, true
	case "timeout":
		return c.Timeout.String(), true
	case "verbose":
		return strconv.FormatBool(c.Verbose), true
	default:
		return "", false
	}
}

// LoadDotEnv loads KEY=VALUE pairs from each file into the process
// environment. Missing files are skipped and variables already set win.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		c.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvTimeout, v, err)
		}
		c.Timeout = d
	}
	return nil
}

// Validate checks that the base URL is absolute http(s) and the timeout is
// not negative. A zero timeout means DefaultTimeout.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url %q: %w", c.BaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	return nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
