package config

import (
	"photodedupe/cluster"
	"photodedupe/discard"
	"photodedupe/imageprocessor"
	"photodedupe/scanner"
	"photodedupe/similarity"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Detect: DetectConfig{
			Threshold:  similarity.DefaultThreshold,
			Algorithm:  string(imageprocessor.AlgorithmDHash),
			Filter:     imageprocessor.DefaultFilter,
			Strategy:   string(cluster.StrategyLeader),
			AutoOrient: true,
			Extensions: append([]string(nil), scanner.DefaultExtensions...),
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Commit: CommitConfig{
			FolderName: discard.DefaultFolderName,
		},
	}
}
