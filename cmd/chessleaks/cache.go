package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/leonfresh/chessleaks/internal/config"
	"github.com/leonfresh/chessleaks/internal/gamecache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or purge the monthly archive cache",
	Long: `Display statistics about the archive cache used for chess.com monthly
downloads, or remove it entirely with --purge.

Examples:
  # Show cache contents
  chessleaks cache --cache-dir ~/.cache/chessleaks

  # Delete all cached archives
  chessleaks cache --cache-dir ~/.cache/chessleaks --purge`,
	RunE: runCache,
}

var (
	cacheDirFlag string
	cachePurge   bool
)

func init() {
	cacheCmd.Flags().StringVar(&cacheDirFlag, "cache-dir", "", "directory holding cached archives")
	cacheCmd.Flags().BoolVar(&cachePurge, "purge", false, "delete all cached archives")
	rootCmd.AddCommand(cacheCmd)
}

func runCache(cmd *cobra.Command, args []string) error {
	dir := cacheDirFlag
	if dir == "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		dir = cfg.CacheDir
	}
	if dir == "" {
		return fmt.Errorf("no cache directory configured; pass --cache-dir or set cache_dir")
	}

	archivesDir := filepath.Join(dir, "archives")
	if _, err := os.Stat(archivesDir); os.IsNotExist(err) {
		fmt.Println("No archive cache found.")
		return nil
	}

	count, size, err := measureCache(archivesDir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}

	if cachePurge {
		if err := os.RemoveAll(archivesDir); err != nil {
			return fmt.Errorf("purging cache: %w", err)
		}
		if err := os.Remove(filepath.Join(dir, "manifest.json")); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing manifest: %w", err)
		}
		fmt.Printf("Purged %d archives (%s)\n", count, formatBytes(size))
		return nil
	}

	fmt.Printf("Cache directory: %s\n", dir)
	fmt.Printf("Archives:        %d\n", count)
	fmt.Printf("Total size:      %s\n", formatBytes(size))
	if m, err := gamecache.ReadManifest(dir); err == nil {
		fmt.Printf("Compression:     %s\n", m.Compression)
		fmt.Printf("Last updated:    %s\n", m.UpdatedAt.Format(time.RFC3339))
	}

	return nil
}

// measureCache counts archive files and sums their size on disk.
func measureCache(dir string) (int, int64, error) {
	var count int
	var size int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		count++
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return count, size, err
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
