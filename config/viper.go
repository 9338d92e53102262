package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PHOTODEDUPE_DETECT_THRESHOLD
const EnvPrefix = "PHOTODEDUPE"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads configFile when given or
// config.toml from the user config directory otherwise, and binds
// environment variables with the PHOTODEDUPE_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	setViperDefaults(v)

	v.SetConfigType("toml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		if dir, err := DefaultDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// Missing default file is fine; an explicit file must exist.
		if configFile != "" || !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Detection
	v.SetDefault("detect.threshold", d.Detect.Threshold)
	v.SetDefault("detect.algorithm", d.Detect.Algorithm)
	v.SetDefault("detect.filter", d.Detect.Filter)
	v.SetDefault("detect.strategy", d.Detect.Strategy)
	v.SetDefault("detect.auto_orient", d.Detect.AutoOrient)
	v.SetDefault("detect.extensions", d.Detect.Extensions)
	v.SetDefault("detect.workers", d.Detect.Workers)

	// Cache
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.path", d.Cache.Path)

	// Commit
	v.SetDefault("commit.folder_name", d.Commit.FolderName)
}

// Load unmarshals the merged viper settings into a validated Config
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
