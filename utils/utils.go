package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	appDir        = "photodedupe"
	cacheFileName = "fingerprints.db"
)

// GetDefaultCachePath returns the default path for the fingerprint cache file
func GetDefaultCachePath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, appDir, cacheFileName)
	}

	// Fall back to the directory containing the executable
	exePath, err := os.Executable()
	if err != nil {
		return cacheFileName
	}
	return filepath.Join(filepath.Dir(exePath), cacheFileName)
}

// ResolveDir makes dir absolute and checks it is an existing directory
func ResolveDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("folder path does not exist: %s", abs)
		}
		return "", fmt.Errorf("cannot access folder path: %s (%w)", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", abs)
	}
	return abs, nil
}
