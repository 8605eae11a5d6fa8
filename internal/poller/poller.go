// Package poller takes live observations of a repository's current counts
// and records them in the store. One call is one snapshot; scheduling is the
// operator's problem (cron, systemd timer, whatever runs `repo-tracker
// update`).
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alan/repo-tracker/internal/githubapi"
	"github.com/alan/repo-tracker/internal/store"
)

// StatsSource supplies the current counts for one repository.
type StatsSource interface {
	FetchStats(ctx context.Context) (*githubapi.RepoStats, error)
}

// Observe fetches the repository's current counts and stores them as one
// observation.
func Observe(ctx context.Context, source StatsSource, st *store.Store, owner, repo string) error {
	stats, err := source.FetchStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch stats for %s/%s: %w", owner, repo, err)
	}

	obs := store.Observation{
		Stargazers:  stats.Stargazers,
		OpenIssues:  stats.OpenIssues,
		OpenPulls:   stats.OpenPulls,
		LabelCounts: stats.LabelCounts,
	}
	if err := st.InsertObservation(ctx, owner, repo, time.Now().UTC(), obs); err != nil {
		return err
	}

	slog.Info("Recorded observation", "owner", owner, "repo", repo,
		"stargazers", stats.Stargazers, "open_issues", stats.OpenIssues, "open_pulls", stats.OpenPulls)
	return nil
}
