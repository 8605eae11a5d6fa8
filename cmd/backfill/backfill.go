// Package backfill implements the backfill command: reconstruct a
// repository's historical count series from its issue event history.
package backfill

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alan/repo-tracker/internal/backfill"
	"github.com/alan/repo-tracker/internal/config"
	"github.com/alan/repo-tracker/internal/githubapi"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Command encapsulates the backfill command's flags.
type Command struct {
	Metrics  string
	CacheDir string
	Renames  string
	Post     string
}

// NewBackfillCmd creates and returns the backfill command.
func NewBackfillCmd() *cobra.Command {
	bc := &Command{}

	command := &cobra.Command{
		Use:   "backfill <owner> <repo>",
		Short: "Reconstruct historical count series from issue event history",
		Long: `Backfill replays every issue's lifecycle events (labeled, unlabeled,
closed, reopened) to reconstruct daily open-issue, per-label, open-pull-request
and stargazer series, retroactively.

Fetched issues are cached on disk, so a run aborted by API quota exhaustion
resumes where it left off. Results are posted to a tracker server with --post,
or written as numbered JSON batch files otherwise.

Set GITHUB_TOKEN to raise the API quota.`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return bc.Run(cobraCmd, args[0], args[1])
		},
	}

	command.Flags().StringVarP(&bc.Metrics, "metrics", "m", "", "Metrics to backfill (comma-separated: issues, labels, pulls, stars; default all)")
	command.Flags().StringVar(&bc.CacheDir, "cache-dir", "", "Issue cache directory (default issue-cache-<owner>-<repo>)")
	command.Flags().StringVar(&bc.Renames, "renames", "", "JSON file mapping old label names to current ones")
	command.Flags().StringVar(&bc.Post, "post", "", "Tracker server to post results to (e.g. http://localhost:8080)")

	return command
}

// Run executes one backfill pass.
func (bc *Command) Run(cobraCmd *cobra.Command, owner, repo string) error {
	ctx := cobraCmd.Context()

	metrics, err := backfill.ParseMetrics(bc.Metrics)
	if err != nil {
		return err
	}

	renames, err := config.LoadRenames(bc.Renames)
	if err != nil {
		return err
	}

	cacheDir := bc.CacheDir
	if cacheDir == "" {
		cacheDir = fmt.Sprintf("issue-cache-%s-%s", owner, repo)
	}
	cache, err := backfill.NewCache(cacheDir)
	if err != nil {
		return err
	}

	client := githubapi.NewClient(ctx, os.Getenv("GITHUB_TOKEN"), owner, repo)
	orch := backfill.NewOrchestrator(client, cache, renames)

	batches, err := orch.Run(ctx, metrics)
	if err != nil {
		var quotaErr *githubapi.QuotaError
		if errors.As(err, &quotaErr) {
			reportQuota(quotaErr)
		}
		return err
	}

	if bc.Post != "" {
		poster := backfill.NewPoster(bc.Post)
		if err := poster.Post(ctx, owner, repo, batches); err != nil {
			return err
		}
		color.Green("Posted %d backfill batches to %s", len(batches), bc.Post)
		return nil
	}

	paths, err := backfill.WriteFiles(cacheDir, batches)
	if err != nil {
		return err
	}

	color.Green("Wrote %d backfill batches", len(paths))
	fmt.Printf(`
To apply them, post each file in order:

    for file in %s; do
        curl --data @$file -H "Content-Type: application/json" http://localhost:8080/%s/%s/backfill
    done

`, filepath.Join(cacheDir, "backfill*.json"), owner, repo)
	return nil
}

// reportQuota explains a quota-exhaustion abort. The issue cache keeps the
// progress made so far, so the same command resumes after the reset.
func reportQuota(err *githubapi.QuotaError) {
	color.Yellow("Oh no, you've run out of GitHub API quota!")
	color.Yellow("Your quota resets in %s; rerun then and the backfill will resume where it left off.",
		time.Until(err.Reset).Round(time.Second))
}
