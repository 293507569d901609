// Package config loads client and server configuration.
//
// Client settings are layered: built-in defaults, then an optional TOML file,
// then environment variables, then command-line flags (applied by the caller).
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"
)

// Storage backend identifiers.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// DefaultRequestTimeout bounds every authenticated backend request.
const DefaultRequestTimeout = 10 * time.Second

// Config is the client configuration.
type Config struct {
	APIURL          string        `toml:"api_url" env:"COVERED_API_URL"`
	IdentityURL     string        `toml:"identity_url" env:"COVERED_IDENTITY_URL"`
	IdentityAnonKey string        `toml:"identity_anon_key" env:"COVERED_IDENTITY_ANON_KEY"`
	RequestTimeout  time.Duration `toml:"request_timeout" env:"COVERED_REQUEST_TIMEOUT"`
	LogLevel        string        `toml:"log_level" env:"COVERED_LOG_LEVEL"`
	Storage         StorageConfig `toml:"storage" envPrefix:"COVERED_STORAGE_"`
}

// StorageConfig selects the durable on-device storage.
// Type is "file" (default), "sqlite" or "memory"; DataDir is ignored for memory.
type StorageConfig struct {
	Type          string `toml:"type" env:"TYPE"`
	DataDir       string `toml:"data_dir" env:"DATA_DIR"`
	EncryptionKey string `toml:"encryption_key,omitempty" env:"ENCRYPTION_KEY"`
}

// Dir returns the per-user configuration directory, honouring XDG_CONFIG_HOME.
func Dir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "covered")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "covered")
}

// DefaultPath is where the CLI looks for its TOML file.
func DefaultPath() string { return filepath.Join(Dir(), "config.toml") }

// Default returns the built-in client configuration.
func Default() *Config {
	return &Config{
		APIURL:         "http://localhost:3000",
		IdentityURL:    "http://localhost:3000",
		RequestTimeout: DefaultRequestTimeout,
		LogLevel:       "warn",
		Storage: StorageConfig{
			Type:    StorageFile,
			DataDir: Dir(),
		},
	}
}

// Load builds the client configuration from defaults, the TOML file at path
// (skipped when it does not exist) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		switch {
		case err == nil:
			defer f.Close()
			m := &Manager{}
			fileCfg, err := m.Read(f)
			if err != nil {
				return nil, fmt.Errorf("reading config from %s: %w", path, err)
			}
			cfg.merge(fileCfg)
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if os.Getenv("COVERED_API_URL") == "" {
		if v := os.Getenv("EXPO_PUBLIC_API_URL"); v != "" {
			cfg.APIURL = v
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// merge overlays non-zero values of o onto c.
func (c *Config) merge(o *Config) {
	if o.APIURL != "" {
		c.APIURL = o.APIURL
	}
	if o.IdentityURL != "" {
		c.IdentityURL = o.IdentityURL
	}
	if o.IdentityAnonKey != "" {
		c.IdentityAnonKey = o.IdentityAnonKey
	}
	if o.RequestTimeout > 0 {
		c.RequestTimeout = o.RequestTimeout
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.Storage.Type != "" {
		c.Storage.Type = o.Storage.Type
	}
	if o.Storage.DataDir != "" {
		c.Storage.DataDir = o.Storage.DataDir
	}
	if o.Storage.EncryptionKey != "" {
		c.Storage.EncryptionKey = o.Storage.EncryptionKey
	}
}

// Validate checks the assembled configuration.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{"api_url": c.APIURL, "identity_url": c.IdentityURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config: %s %q is not an absolute URL", name, raw)
		}
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("config: request_timeout must be > 0")
	}
	switch c.Storage.Type {
	case StorageFile, StorageSQLite:
		if c.Storage.DataDir == "" {
			return fmt.Errorf("config: storage.data_dir is required for %s storage", c.Storage.Type)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("config: unknown storage type %q", c.Storage.Type)
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Init writes cfg to path; it refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}
