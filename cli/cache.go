package cli

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"photodedupe/config"
	"photodedupe/database"
)

const cacheLongDesc string = `Inspect or maintain the sqlite fingerprint cache.

Fingerprints are cached by path, size, modification time and algorithm so
repeated scans of the same folder skip decoding unchanged files.

  photodedupe cache stats    Show entry counts
  photodedupe cache prune    Drop entries for missing or changed files
  photodedupe cache clear    Drop every entry`

const cacheShortDesc string = "Maintain the fingerprint cache"

func (a *app) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: cacheShortDesc,
		Long:  cacheLongDesc,
	}

	cmd.AddCommand(a.newCacheSubCmd("stats", "Show fingerprint cache statistics", a.runCacheStats))
	cmd.AddCommand(a.newCacheSubCmd("prune", "Drop cache entries for missing or changed files", a.runCachePrune))
	cmd.AddCommand(a.newCacheSubCmd("clear", "Drop every cache entry", a.runCacheClear))

	return cmd
}

type cacheAction func(cmd *cobra.Command, cache *database.FingerprintCache) error

func (a *app) newCacheSubCmd(use, short string, action cacheAction) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig(cmd, []string{config.FlagCachePath})
			if err != nil {
				return err
			}

			cache, err := openCache(cmd.Context(), cachePath(cfg), a.log())
			if err != nil {
				return err
			}
			defer cache.Close()

			return action(cmd, cache)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagCachePath, &path)
	return cmd
}

func (a *app) runCacheStats(cmd *cobra.Command, cache *database.FingerprintCache) error {
	stats, err := cache.GetStats(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-14s %d\n", "entries", stats.Entries)
	fmt.Fprintf(out, "%-14s %d\n", "unique hashes", stats.UniqueHashes)
	for _, algorithm := range slices.Sorted(maps.Keys(stats.ByAlgorithm)) {
		fmt.Fprintf(out, "  %-12s %d\n", algorithm, stats.ByAlgorithm[algorithm])
	}
	return nil
}

func (a *app) runCachePrune(cmd *cobra.Command, cache *database.FingerprintCache) error {
	n, err := cache.Prune(cmd.Context(), afero.NewOsFs())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  %s pruned %d entries\n", successMark, n)
	return nil
}

func (a *app) runCacheClear(cmd *cobra.Command, cache *database.FingerprintCache) error {
	n, err := cache.Clear(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  %s cleared %d entries\n", successMark, n)
	return nil
}
