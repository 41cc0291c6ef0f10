package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dorcha-inc/pal/internal/launcher"
	"github.com/dorcha-inc/pal/internal/tui"
)

// newCacheCmd creates the cache command
func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage pal's display cache",
		Long: `Manage pal's display cache. Palettes with cache = true are shown from the
cache while a background pal refreshes it for the next run.`,
	}

	cmd.AddCommand(newCacheStatusCmd(a))
	cmd.AddCommand(newCacheClearCmd(a))

	return cmd
}

// newCacheStatusCmd creates the cache status command
func newCacheStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List cache entries with their size and age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.cache.Status()
			if err != nil {
				return fmt.Errorf("failed to read cache: %w", err)
			}
			if len(entries) == 0 {
				tui.Info("Cache is empty: %s\n", a.cache.Dir())
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			if _, err := fmt.Fprintln(w, "PALETTE\tFRONTEND\tSIZE\tAGE"); err != nil {
				return fmt.Errorf("failed to write header: %w", err)
			}
			for _, e := range entries {
				age := e.Age.Truncate(time.Second).String()
				if !e.Complete {
					age += " (incomplete)"
				}
				if _, err := fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", e.Palette, e.Frontend, e.Size, age); err != nil {
					return fmt.Errorf("failed to write row: %w", err)
				}
			}
			return w.Flush()
		},
	}
}

// newCacheClearCmd creates the cache clear command
func newCacheClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear [palette...]",
		Short: "Remove cache entries",
		Long: `Remove the cache entries of the given palettes, or every entry when no palette
is named. The cache is rebuilt on the next run of each palette.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.cache.Clear(args...)
			if err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			tui.Success("Removed %d cache files", n)
			return nil
		},
	}
}

// newCacheRegenCmd creates the hidden command a detached pal runs to
// refresh one cache entry
func newCacheRegenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:    launcher.CacheRegenCommand + " PALETTE FRONTEND",
		Short:  "Regenerate one display cache entry",
		Hidden: true,
		Args:   cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.launcher.RegenerateCache(cmd.Context(), a.inv, args[0], args[1]); err != nil {
				zap.L().Warn("Cache regeneration failed",
					zap.String("palette", args[0]),
					zap.String("frontend", args[1]),
					zap.Error(err))
				return err
			}
			return nil
		},
	}
}
