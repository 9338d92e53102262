// Package config loads, validates and writes the photodedupe configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"photodedupe/cluster"
	"photodedupe/imageprocessor"
	"photodedupe/similarity"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid config")

// Validate checks every field and reports all problems at once
func (c *Config) Validate() error {
	var errs []error

	if c.Version != 0 && c.Version != CurrentV {
		errs = append(errs, fmt.Errorf("unsupported config version %d (expected %d)", c.Version, CurrentV))
	}
	if _, err := similarity.NewComparator(c.Detect.Threshold); err != nil {
		errs = append(errs, fmt.Errorf("detect.threshold: %w", err))
	}
	if _, err := imageprocessor.ParseAlgorithm(c.Detect.Algorithm); err != nil {
		errs = append(errs, fmt.Errorf("detect.algorithm: %w", err))
	}
	if _, err := imageprocessor.ParseFilter(c.Detect.Filter); err != nil {
		errs = append(errs, fmt.Errorf("detect.filter: %w", err))
	}
	if _, err := cluster.ParseStrategy(c.Detect.Strategy); err != nil {
		errs = append(errs, fmt.Errorf("detect.strategy: %w", err))
	}
	if c.Detect.Workers < 0 {
		errs = append(errs, fmt.Errorf("detect.workers must not be negative, got %d", c.Detect.Workers))
	}
	if name := c.Commit.FolderName; name == "" || strings.ContainsRune(name, filepath.Separator) || name == "." || name == ".." {
		errs = append(errs, fmt.Errorf("commit.folder_name must be a plain folder name, got %q", name))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// Encode renders cfg as TOML
func Encode(cfg *Config) ([]byte, error) {
	if cfg == nil {
		return nil, errors.New("cannot encode nil config")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseConfigTOML parses raw TOML bytes into a Config without applying defaults
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}
	return cfg, nil
}

// WriteDefault writes the default configuration to path.
// An existing file is only replaced when overwrite is set.
func WriteDefault(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s already exists", path)
		}
	}

	data, err := Encode(NewDefaultConfig())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// DefaultDir returns the directory searched for config.toml
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "photodedupe"), nil
}

// DefaultPath returns the default location of config.toml
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}
