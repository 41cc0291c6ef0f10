package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dorcha-inc/pal/internal/remote"
	"github.com/dorcha-inc/pal/internal/tui"
)

// newPluginsCmd creates the plugins command
func newPluginsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List fetched remote plugin repositories",
		Long: `List the remote plugin repositories fetched so far, one per ref, with the
commit each clone is at. Repositories are stored under the pal data directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := a.fetcher.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list remote plugins: %w", err)
			}
			if len(infos) == 0 {
				tui.Info("No remote plugins fetched.\n")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, info := range infos {
				commit := info.Commit
				if info.Err != nil {
					commit = "unknown"
				}
				pinned := ""
				if info.Repo.Pinned() {
					pinned = "pinned"
				}
				if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", info.Repo, commit, pinned); err != nil {
					return fmt.Errorf("failed to write row: %w", err)
				}
			}
			return w.Flush()
		},
	}
}

// newUpdateCmd creates the update command
func newUpdateCmd(a *app) *cobra.Command {
	var parallelism int

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Fast-forward all remote plugin repositories",
		Long: `Pull every fetched remote plugin repository. Refs that are semantic version
tags are pinned and left alone. A repository that fails to update does not
stop the others.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tui.Progress("Updating remote plugins...")
			results, err := a.fetcher.Update(cmd.Context(), parallelism)
			if err != nil {
				tui.ProgressFailure("")
				return fmt.Errorf("failed to update remote plugins: %w", err)
			}
			failed := countFailed(results)
			if failed > 0 {
				tui.ProgressFailure(fmt.Sprintf("%d of %d repositories failed to update", failed, len(results)))
			} else {
				tui.ProgressSuccess(fmt.Sprintf("Checked %d repositories", len(results)))
			}

			for _, r := range results {
				switch r.Status {
				case remote.UpdateStatusUpdated:
					tui.Success("%s %s", r.Repo, tui.Dim(firstLine(r.Message)))
				case remote.UpdateStatusPinned:
					tui.Info("- %s %s\n", r.Repo, tui.Dim(r.Message))
				case remote.UpdateStatusFailed:
					tui.Failure("%s %s", r.Repo, r.Message)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d repositories failed to update", failed)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&parallelism, "jobs", "j", remote.DefaultUpdateParallelism, "Number of repositories to pull at once")

	return cmd
}

func countFailed(results []remote.UpdateResult) int {
	n := 0
	for _, r := range results {
		if r.Status == remote.UpdateStatusFailed {
			n++
		}
	}
	return n
}

// firstLine returns the first line of git's output, e.g. "Already up to date."
func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
