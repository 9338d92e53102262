package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key so the same logical flag keeps
// one name, shorthand and description on every command that carries it.
type Flag struct {
	// Name is the long flag name (e.g. "threshold").
	Name string

	// Shorthand is the one-letter short flag (e.g. "t"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "detect.threshold").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling the Add*Flag helpers and
// BindRegisteredFlags to avoid drift from one command to another.
const (
	FlagThreshold  = "threshold"
	FlagAlgorithm  = "algorithm"
	FlagFilter     = "filter"
	FlagStrategy   = "strategy"
	FlagAutoOrient = "auto-orient"
	FlagWorkers    = "workers"
	FlagExtensions = "ext"
	FlagCache      = "cache"
	FlagCachePath  = "cache-path"
	FlagFolderName = "folder-name"
)

// DetectFlags are the flags shared by every command that runs a scan
var DetectFlags = []string{
	FlagThreshold,
	FlagAlgorithm,
	FlagFilter,
	FlagStrategy,
	FlagAutoOrient,
	FlagWorkers,
	FlagExtensions,
	FlagCache,
	FlagCachePath,
}

// Flags is the registry of every configurable flag
var Flags = FlagSet{
	FlagThreshold: {
		Name:        "threshold",
		Shorthand:   "t",
		ViperKey:    "detect.threshold",
		Description: "Largest fingerprint bit distance treated as a duplicate",
	},
	FlagAlgorithm: {
		Name:        "algorithm",
		ViperKey:    "detect.algorithm",
		Description: "Fingerprint algorithm (dhash, dhash-row)",
	},
	FlagFilter: {
		Name:        "filter",
		ViperKey:    "detect.filter",
		Description: "Resample filter used while fingerprinting",
	},
	FlagStrategy: {
		Name:        "strategy",
		ViperKey:    "detect.strategy",
		Description: "Grouping strategy (leader, transitive)",
	},
	FlagAutoOrient: {
		Name:        "auto-orient",
		ViperKey:    "detect.auto_orient",
		Description: "Apply EXIF orientation before fingerprinting",
	},
	FlagWorkers: {
		Name:        "workers",
		Shorthand:   "w",
		ViperKey:    "detect.workers",
		Description: "Parallel decoders (0 picks from the CPU count)",
	},
	FlagExtensions: {
		Name:        "ext",
		Shorthand:   "e",
		ViperKey:    "detect.extensions",
		Description: "File extensions to scan",
	},
	FlagCache: {
		Name:        "cache",
		ViperKey:    "cache.enabled",
		Description: "Reuse fingerprints from the sqlite cache",
	},
	FlagCachePath: {
		Name:        "cache-path",
		ViperKey:    "cache.path",
		Description: "Path of the sqlite fingerprint cache",
	},
	FlagFolderName: {
		Name:        "folder-name",
		ViperKey:    "commit.folder_name",
		Description: "Folder created inside the scanned directory for discards",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddIntFlag registers an int flag on cmd from the given FlagSet.
func AddIntFlag(cmd *cobra.Command, fs FlagSet, key string, target *int) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetInt(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().IntVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().IntVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, key string, target *bool) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddStringSliceFlag registers a comma separated list flag on cmd from the given FlagSet.
func AddStringSliceFlag(cmd *cobra.Command, fs FlagSet, key string, target *[]string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetStringSlice(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringSliceVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringSliceVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaults returns a viper instance holding only the values from NewDefaultConfig.
func defaults() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}
