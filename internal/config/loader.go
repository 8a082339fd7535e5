package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileEnvVar names the variable holding the YAML config path.
const FileEnvVar = "CONFIG_FILE"

// Loader builds a Config from the layered sources.
type Loader struct {
	// FilePath is an optional YAML file. A missing file is an error only
	// when the path was set explicitly.
	FilePath string
	// Environ replaces the process environment when non-nil.
	Environ map[string]string
}

// Load reads .env if present, then loads from CONFIG_FILE and the process
// environment.
func Load() (*Config, error) {
	// .env is optional and never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Loader{FilePath: os.Getenv(FileEnvVar)}.Load()
}

// Load applies defaults, the YAML file and the environment, then validates.
func (l Loader) Load() (*Config, error) {
	cfg := Default()

	if l.FilePath != "" {
		if err := loadFile(l.FilePath, cfg); err != nil {
			return nil, err
		}
	}

	opts := env.Options{}
	if l.Environ != nil {
		opts.Environment = l.Environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
