// Package config loads runtime settings from hanrei.toml, an optional .env
// file and HANREI_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/coolbeans/hanrei/pkg/source"
)

// DefaultPath is the configuration file read when none is named.
const DefaultPath = "hanrei.toml"

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type CitationConfig struct {
	// Legacy applies the old per-law and total citation caps.
	Legacy bool `toml:"legacy"`
}

type Config struct {
	Index     string         `toml:"index"`
	Database  string         `toml:"database"`
	Rules     string         `toml:"rules"`
	Source    source.Config  `toml:"source"`
	Log       LogConfig      `toml:"log"`
	Server    ServerConfig   `toml:"server"`
	Citations CitationConfig `toml:"citations"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Index:  "index.json",
		Source: source.Config{Type: "local", Directory: "texts"},
		Log:    LogConfig{Level: "info", Format: "console"},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads path over the defaults. A missing file at DefaultPath is not
// an error; a missing file named explicitly is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && path == DefaultPath {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the named .env files into the process
// environment. Missing files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings from HANREI_* variables looked up with
// getenv. Empty values leave the setting alone.
func (c *Config) ApplyEnv(getenv func(string) string) {
	overrides := []struct {
		key  string
		dest *string
	}{
		{"HANREI_INDEX", &c.Index},
		{"HANREI_DB", &c.Database},
		{"HANREI_RULES", &c.Rules},
		{"HANREI_SOURCE", &c.Source.Type},
		{"HANREI_TEXTS", &c.Source.Directory},
		{"HANREI_S3_BUCKET", &c.Source.Bucket},
		{"HANREI_S3_PREFIX", &c.Source.Prefix},
		{"HANREI_S3_REGION", &c.Source.Region},
		{"HANREI_LOG_LEVEL", &c.Log.Level},
		{"HANREI_LOG_FORMAT", &c.Log.Format},
		{"HANREI_ADDR", &c.Server.Addr},
	}
	for _, o := range overrides {
		if value := getenv(o.key); value != "" {
			*o.dest = value
		}
	}
	if value := getenv("HANREI_LEGACY_CITATIONS"); value == "1" || value == "true" {
		c.Citations.Legacy = true
	}
}

// Validate checks the settings that have a closed set of values.
func (c *Config) Validate() error {
	switch c.Source.Type {
	case "", "local", "s3":
	default:
		return fmt.Errorf("source.type: unknown source %q", c.Source.Type)
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	if c.Index == "" {
		return fmt.Errorf("index: path is required")
	}
	return nil
}

// Resolve loads .env, the config file and the environment, then validates
// the result.
func Resolve(path string) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
