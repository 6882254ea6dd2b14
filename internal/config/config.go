// Package config loads tablemap connection settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tablemap/internal/codec"
	"github.com/roach88/tablemap/internal/store"
)

// PasswordEnv overrides an empty password so it need not be kept in the file.
const PasswordEnv = "TABLEMAP_PASSWORD"

// Config is the contents of a tablemap.yaml file.
type Config struct {
	// Dialect selects the backend: "mysql" or "sqlite".
	Dialect string `yaml:"dialect"`

	// Host, Database, User, Password and Port address a MySQL server.
	Host     string `yaml:"host"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password,omitempty"`
	Port     int    `yaml:"port"`

	// Path is the SQLite database file.
	// Relative paths are resolved against the config file's directory.
	Path string `yaml:"path,omitempty"`

	// Schemas is the directory of CUE record definitions.
	// Relative paths are resolved against the config file's directory.
	Schemas string `yaml:"schemas,omitempty"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Dialect: codec.MySQL.Name(),
		Host:    "localhost",
		Port:    store.DefaultPort,
	}
}

// Load reads the YAML file at path over Default. The result is not validated:
// callers apply their overrides first and then call Validate.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.resolve(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes YAML over Default and applies the environment.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv fills an empty password from TABLEMAP_PASSWORD.
func (c *Config) ApplyEnv() {
	if c.Password == "" {
		c.Password = os.Getenv(PasswordEnv)
	}
}

// Validate checks the dialect, port and backend-specific required settings.
func (c Config) Validate() error {
	d, err := codec.Lookup(c.Dialect)
	if err != nil {
		return err
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range 1..65535", c.Port)
	}
	switch d {
	case codec.SQLite:
		if c.Path == "" {
			return fmt.Errorf("sqlite dialect requires path")
		}
	case codec.MySQL:
		if c.Host == "" {
			return fmt.Errorf("mysql dialect requires host")
		}
	}
	return nil
}

// Store returns the session settings.
func (c Config) Store() store.Config {
	return store.Config{
		Dialect:  c.Dialect,
		Host:     c.Host,
		Database: c.Database,
		User:     c.User,
		Password: c.Password,
		Port:     c.Port,
		Path:     c.Path,
	}
}

func (c *Config) resolve(base string) {
	if c.Path != "" && !filepath.IsAbs(c.Path) {
		c.Path = filepath.Join(base, c.Path)
	}
	if c.Schemas != "" && !filepath.IsAbs(c.Schemas) {
		c.Schemas = filepath.Join(base, c.Schemas)
	}
}
