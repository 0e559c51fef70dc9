package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/resgen/internal/fingerprint"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the fingerprint cache",
	Long: `The fingerprint cache remembers which source images the image service
has already received, and their dimensions, so unchanged artwork is not
uploaded again.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cache entry",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove cache entries older than --max-age",
	Args:  cobra.NoArgs,
	RunE:  runCachePrune,
}

// pruneResult is rendered by clear and prune.
type pruneResult struct {
	Dir     string `json:"dir" yaml:"dir"`
	Removed int    `json:"removed" yaml:"removed"`
}

func init() {
	cacheCmd.PersistentFlags().String("cache-dir", fingerprint.DefaultDir(), "fingerprint cache directory")
	cachePruneCmd.Flags().Duration("max-age", 30*24*time.Hour, "remove entries not written within this duration")

	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd, cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

func openCache(cmd *cobra.Command) (*CommandContext, *fingerprint.Cache, error) {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create command context: %w", err)
	}
	return cc, fingerprint.NewCache(cc.Settings.Cache.Dir), nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	cc, cache, err := openCache(cmd)
	if err != nil {
		return err
	}

	stats, err := cache.Stats()
	if err != nil {
		return err
	}

	text := fmt.Sprintf("Cache:   %s\nEntries: %d\nSize:    %d bytes", stats.Dir, stats.Entries, stats.TotalBytes)
	if stats.Entries > 0 {
		text += fmt.Sprintf("\nOldest:  %s\nNewest:  %s",
			stats.Oldest.Format(time.RFC3339), stats.Newest.Format(time.RFC3339))
	}
	return cc.Render(text, stats)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cc, cache, err := openCache(cmd)
	if err != nil {
		return err
	}

	removed, err := cache.Clear()
	if err != nil {
		return err
	}
	cc.Logger.Info("cleared fingerprint cache", "dir", cache.Dir, "removed", removed)
	return cc.Render(fmt.Sprintf("Removed %d entries from %s", removed, cache.Dir), pruneResult{cache.Dir, removed})
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	cc, cache, err := openCache(cmd)
	if err != nil {
		return err
	}

	maxAge, err := cmd.Flags().GetDuration("max-age")
	if err != nil {
		return err
	}
	if maxAge < 0 {
		return fmt.Errorf("--max-age must not be negative")
	}

	removed, err := cache.Prune(maxAge)
	if err != nil {
		return err
	}
	cc.Logger.Info("pruned fingerprint cache", "dir", cache.Dir, "removed", removed, "max_age", maxAge)
	return cc.Render(fmt.Sprintf("Removed %d entries older than %s from %s", removed, maxAge, cache.Dir), pruneResult{cache.Dir, removed})
}
