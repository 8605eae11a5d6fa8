// Package backfill reconstructs a repository's historical count series by
// replaying every issue's event history, and packages the results as ordered
// delete-then-replace batches for the persistence layer.
package backfill

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/alan/repo-tracker/internal/replay"
	"github.com/alan/repo-tracker/internal/series"
	"github.com/alan/repo-tracker/internal/timeline"
)

// Source is the slice of the tracker API a backfill run needs.
type Source interface {
	// ListIssues returns every issue and pull request, without events.
	ListIssues(ctx context.Context) ([]replay.RawIssue, error)
	// ListIssueEvents returns one issue's lifecycle event timeline.
	ListIssueEvents(ctx context.Context, number int) ([]replay.RawEvent, error)
	// ListStarTimes returns the timestamp of every star.
	ListStarTimes(ctx context.Context) ([]time.Time, error)
}

// Orchestrator runs one backfill pass: fetch (through the cache), extract,
// build, batch. It is strictly sequential; the API rate limit makes fan-out
// counterproductive without throttling, which is out of scope here.
type Orchestrator struct {
	source  Source
	cache   *Cache
	renames map[string]string
	now     func() time.Time
}

// NewOrchestrator creates an orchestrator. renames may be nil.
func NewOrchestrator(source Source, cache *Cache, renames map[string]string) *Orchestrator {
	return &Orchestrator{
		source:  source,
		cache:   cache,
		renames: renames,
		now:     time.Now,
	}
}

// Run reconstructs the requested metrics and returns the ordered batch
// sequence to apply. Each data payload is preceded by a delete marker for
// its scope, so applying the sequence replaces prior rows instead of merging
// with them; a rerun therefore converges instead of duplicating history.
func (o *Orchestrator) Run(ctx context.Context, metrics Metrics) ([]series.Batch, error) {
	var batches []series.Batch
	asOf := o.now()

	if metrics.Issues || metrics.Labels || metrics.Pulls {
		issues, err := o.loadIssues(ctx)
		if err != nil {
			return nil, err
		}

		if metrics.Issues || metrics.Labels {
			result := o.replayIssues(issues, false, metrics.Labels, asOf)
			if metrics.Issues {
				batches = append(batches,
					series.DeleteBatch(series.KeyOpenIssues),
					series.Batch{OpenIssues: result.All})
			}
			if metrics.Labels {
				batches = append(batches, series.DeleteBatch(series.KeyByLabel))
				batches = append(batches, labelBatches(result.ByLabel)...)
			}
		}

		if metrics.Pulls {
			result := o.replayIssues(issues, true, false, asOf)
			batches = append(batches,
				series.DeleteBatch(series.KeyOpenPulls),
				series.Batch{OpenPulls: result.All})
		}
	}

	if metrics.Stars {
		daily, err := o.starSeries(ctx, asOf)
		if err != nil {
			return nil, err
		}
		batches = append(batches,
			series.DeleteBatch(series.KeyStargazers),
			series.Batch{Stargazers: daily})
	}

	return batches, nil
}

// loadIssues lists all issues, then fills in event timelines from the cache,
// fetching and caching any issue not yet on disk.
func (o *Orchestrator) loadIssues(ctx context.Context) ([]replay.RawIssue, error) {
	listed, err := o.source.ListIssues(ctx)
	if err != nil {
		return nil, err
	}

	issues := make([]replay.RawIssue, 0, len(listed))
	for _, issue := range listed {
		cached, ok, err := o.cache.Load(issue.Number)
		if err != nil {
			return nil, err
		}
		if ok {
			issues = append(issues, *cached)
			continue
		}

		slog.Info("Fetching issue events", "issue", issue.Number)
		events, err := o.source.ListIssueEvents(ctx, issue.Number)
		if err != nil {
			return nil, err
		}
		issue.Events = events
		if err := o.cache.Store(issue); err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}

	slog.Info("Loaded issues", "count", len(issues))
	return issues, nil
}

// replayIssues extracts deltas from either the issues or the pull requests
// and builds their daily series. Whether open PRs should also count toward
// the open-issue total has never been settled; they are kept out of it, as
// they always have been.
func (o *Orchestrator) replayIssues(issues []replay.RawIssue, pulls, trackLabels bool, asOf time.Time) timeline.Result {
	opts := replay.Options{TrackLabels: trackLabels, Renames: o.renames}

	var deltas []series.Delta
	for _, issue := range issues {
		if issue.PullRequest != pulls {
			continue
		}
		deltas = append(deltas, replay.Extract(issue, opts)...)
	}

	return timeline.Build(deltas, asOf)
}

// starSeries builds the cumulative stargazer series. Every star is a +1
// delta on its effective date; there is no label dimension and stars are
// never removed from the series.
func (o *Orchestrator) starSeries(ctx context.Context, asOf time.Time) (series.Daily, error) {
	times, err := o.source.ListStarTimes(ctx)
	if err != nil {
		return nil, err
	}

	deltas := make([]series.Delta, 0, len(times))
	for _, t := range times {
		deltas = append(deltas, series.Delta{Time: t, Scope: series.Stars(), Delta: +1})
	}

	result := timeline.Build(deltas, asOf)
	return result.All, nil
}

// labelBatches splits the per-label series into one batch per label, keeping
// each payload small and independently postable. Labels are sorted so reruns
// produce the same sequence.
func labelBatches(byLabel map[string]series.Daily) []series.Batch {
	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	batches := make([]series.Batch, 0, len(labels))
	for _, label := range labels {
		batches = append(batches, series.Batch{
			ByLabel: map[string]series.Daily{label: byLabel[label]},
		})
	}
	return batches
}

// WriteFiles writes the batch sequence as numbered JSON files in dir,
// returning the paths in apply order.
func WriteFiles(dir string, batches []series.Batch) ([]string, error) {
	paths := make([]string, 0, len(batches))
	for i, batch := range batches {
		path := fmt.Sprintf("%s/backfill%04d.json", dir, i)
		if err := writeBatchFile(path, batch); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
