package config

// CurrentV is the config file layout version written by this build
const CurrentV = 1

// Config represents the persistent photodedupe configuration stored as config.toml.
type Config struct {
	Version int          `toml:"version" mapstructure:"version"`
	Detect  DetectConfig `toml:"detect" mapstructure:"detect"`
	Cache   CacheConfig  `toml:"cache" mapstructure:"cache"`
	Commit  CommitConfig `toml:"commit" mapstructure:"commit"`
}

// DetectConfig holds fingerprinting and grouping settings.
type DetectConfig struct {
	// Threshold is the largest bit distance still treated as a duplicate.
	Threshold  int      `toml:"threshold" mapstructure:"threshold"`
	Algorithm  string   `toml:"algorithm" mapstructure:"algorithm"`
	Filter     string   `toml:"filter" mapstructure:"filter"`
	Strategy   string   `toml:"strategy" mapstructure:"strategy"`
	AutoOrient bool     `toml:"auto_orient" mapstructure:"auto_orient"`
	Extensions []string `toml:"extensions" mapstructure:"extensions"`

	// Workers bounds parallel decoding; 0 picks a value from the CPU count.
	Workers int `toml:"workers" mapstructure:"workers"`
}

// CacheConfig holds fingerprint cache settings.
type CacheConfig struct {
	Enabled bool `toml:"enabled" mapstructure:"enabled"`

	// Path of the sqlite file; empty selects the user cache directory.
	Path string `toml:"path,omitempty" mapstructure:"path"`
}

// CommitConfig holds settings for moving discards.
type CommitConfig struct {
	FolderName string `toml:"folder_name" mapstructure:"folder_name"`
}
