package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gitmorph/pkg/cache"
)

// cacheCommand manages the layout and render cache.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout and render cache",
	}
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheStatsCommand())
	return cmd
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached layout and rendering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := c.cacheDir()
			if err != nil {
				return err
			}
			st, err := scanCache(dir)
			if err != nil {
				return err
			}
			if st.entries == 0 {
				printSuccess(cmd.OutOrStdout(), "Cache is empty")
				return nil
			}
			if err := os.RemoveAll(dir); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess(cmd.OutOrStdout(), "Cleared %d cached entries (%s)", st.entries, humanize.Bytes(uint64(st.bytes)))
			printFile(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := c.cacheDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how many entries the cache holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := c.cacheDir()
			if err != nil {
				return err
			}
			st, err := scanCache(dir)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s\n", styleDim.Render("entries:"), styleValue.Render(humanize.Comma(int64(st.entries))))
			fmt.Fprintf(w, "%s %s\n", styleDim.Render("size:   "), styleValue.Render(humanize.Bytes(uint64(st.bytes))))
			if !st.newest.IsZero() {
				fmt.Fprintf(w, "%s %s\n", styleDim.Render("updated:"), styleValue.Render(humanize.Time(st.newest)))
			}
			return nil
		},
	}
}

// cacheDir returns the configured cache directory or the per-user default.
func (c *CLI) cacheDir() (string, error) {
	if c.Config.CacheDir != "" {
		return c.Config.CacheDir, nil
	}
	return cache.DefaultDir()
}

type cacheStats struct {
	entries int
	bytes   int64
	newest  time.Time
}

// scanCache totals the entry files under dir. A missing dir is empty.
func scanCache(dir string) (cacheStats, error) {
	var st cacheStats
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		st.entries++
		st.bytes += info.Size()
		if info.ModTime().After(st.newest) {
			st.newest = info.ModTime()
		}
		return nil
	})
	if err != nil {
		return st, fmt.Errorf("scan cache %s: %w", dir, err)
	}
	return st, nil
}
