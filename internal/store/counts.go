package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/alan/repo-tracker/internal/series"
)

// observationFormat renders a polled observation's timestamp for the chart
// front end. Backfilled points use plain dates; live points keep their time
// of day.
const observationFormat = "2006-01-02 15:04:05Z"

// Observation is one polled snapshot of a repository's current counts.
type Observation struct {
	Stargazers  int
	OpenIssues  int
	OpenPulls   int
	LabelCounts map[string]int
}

// InsertObservation records one polled snapshot, including its per-label
// counts, all at the same timestamp.
func (s *Store) InsertObservation(ctx context.Context, owner, repo string, at time.Time, obs Observation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		s.rebind(`INSERT INTO counts (owner, repo, observed_at, stargazers, open_issues, open_pulls)
			VALUES (?, ?, ?, ?, ?, ?)`),
		owner, repo, at.UTC(), obs.Stargazers, obs.OpenIssues, obs.OpenPulls)
	if err != nil {
		return fmt.Errorf("failed to insert counts for %s/%s: %w", owner, repo, err)
	}

	for label, count := range obs.LabelCounts {
		_, err = tx.ExecContext(ctx,
			s.rebind(`INSERT INTO counts_by_label (owner, repo, observed_at, label, open_issues)
				VALUES (?, ?, ?, ?, ?)`),
			owner, repo, at.UTC(), label, count)
		if err != nil {
			return fmt.Errorf("failed to insert label counts for %s/%s: %w", owner, repo, err)
		}
	}

	return tx.Commit()
}

// StatsSeries is everything the chart front end needs for one repository:
// backfilled history followed by polled observations, per scope.
type StatsSeries struct {
	Stargazers series.Daily
	OpenIssues series.Daily
	OpenPulls  series.Daily
	ByLabel    map[string]series.Daily
}

// SeriesFor assembles the full series for a repository. Backfilled rows come
// first (they cover history up to the backfill run), then polled
// observations in time order.
func (s *Store) SeriesFor(ctx context.Context, owner, repo string) (*StatsSeries, error) {
	out := &StatsSeries{ByLabel: make(map[string]series.Daily)}

	for _, scope := range []struct {
		key  string
		dest *series.Daily
	}{
		{series.KeyStargazers, &out.Stargazers},
		{series.KeyOpenIssues, &out.OpenIssues},
		{series.KeyOpenPulls, &out.OpenPulls},
	} {
		pts, err := s.backfilledScope(ctx, owner, repo, scope.key)
		if err != nil {
			return nil, err
		}
		*scope.dest = pts
	}

	if err := s.backfilledLabels(ctx, owner, repo, out.ByLabel); err != nil {
		return nil, err
	}

	if err := s.appendObservations(ctx, owner, repo, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) backfilledScope(ctx context.Context, owner, repo, key string) (series.Daily, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT day, count FROM backfill_series
			WHERE owner = ? AND repo = ? AND scope = ? ORDER BY day`),
		owner, repo, key)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s series for %s/%s: %w", key, owner, repo, err)
	}
	defer rows.Close() //nolint:errcheck

	var daily series.Daily
	for rows.Next() {
		var p series.Point
		if err := rows.Scan(&p.Date, &p.Count); err != nil {
			return nil, fmt.Errorf("failed to scan series row: %w", err)
		}
		daily = append(daily, p)
	}
	return daily, rows.Err()
}

func (s *Store) backfilledLabels(ctx context.Context, owner, repo string, byLabel map[string]series.Daily) error {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT label, day, count FROM backfill_series
			WHERE owner = ? AND repo = ? AND scope = ? ORDER BY label, day`),
		owner, repo, series.KeyByLabel)
	if err != nil {
		return fmt.Errorf("failed to query label series for %s/%s: %w", owner, repo, err)
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var label string
		var p series.Point
		if err := rows.Scan(&label, &p.Date, &p.Count); err != nil {
			return fmt.Errorf("failed to scan label series row: %w", err)
		}
		byLabel[label] = append(byLabel[label], p)
	}
	return rows.Err()
}

func (s *Store) appendObservations(ctx context.Context, owner, repo string, out *StatsSeries) error {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT observed_at, stargazers, open_issues, open_pulls FROM counts
			WHERE owner = ? AND repo = ? ORDER BY observed_at`),
		owner, repo)
	if err != nil {
		return fmt.Errorf("failed to query counts for %s/%s: %w", owner, repo, err)
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var at time.Time
		var stars, issues, pulls int
		if err := rows.Scan(&at, &stars, &issues, &pulls); err != nil {
			return fmt.Errorf("failed to scan counts row: %w", err)
		}
		date := at.UTC().Format(observationFormat)
		out.Stargazers = append(out.Stargazers, series.Point{Date: date, Count: stars})
		out.OpenIssues = append(out.OpenIssues, series.Point{Date: date, Count: issues})
		out.OpenPulls = append(out.OpenPulls, series.Point{Date: date, Count: pulls})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	labelRows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT observed_at, label, open_issues FROM counts_by_label
			WHERE owner = ? AND repo = ? ORDER BY observed_at`),
		owner, repo)
	if err != nil {
		return fmt.Errorf("failed to query label counts for %s/%s: %w", owner, repo, err)
	}
	defer labelRows.Close() //nolint:errcheck

	for labelRows.Next() {
		var at time.Time
		var label string
		var count int
		if err := labelRows.Scan(&at, &label, &count); err != nil {
			return fmt.Errorf("failed to scan label counts row: %w", err)
		}
		out.ByLabel[label] = append(out.ByLabel[label], series.Point{
			Date:  at.UTC().Format(observationFormat),
			Count: count,
		})
	}
	return labelRows.Err()
}

// LabelCount pairs a label with its most recent open-issue count.
type LabelCount struct {
	Label string
	Count int
}

// CurrentLabelCounts returns the latest per-label counts, highest first.
// Polled observations win over backfilled history when both exist.
func (s *Store) CurrentLabelCounts(ctx context.Context, owner, repo string) ([]LabelCount, error) {
	counts, err := s.latestObservedLabelCounts(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	if len(counts) == 0 {
		if counts, err = s.latestBackfilledLabelCounts(ctx, owner, repo); err != nil {
			return nil, err
		}
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Label < counts[j].Label
	})
	return counts, nil
}

func (s *Store) latestObservedLabelCounts(ctx context.Context, owner, repo string) ([]LabelCount, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT label, open_issues FROM counts_by_label
			WHERE owner = ? AND repo = ?
			AND observed_at = (SELECT MAX(observed_at) FROM counts_by_label WHERE owner = ? AND repo = ?)`),
		owner, repo, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest label counts: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var counts []LabelCount
	for rows.Next() {
		var lc LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan label count row: %w", err)
		}
		counts = append(counts, lc)
	}
	return counts, rows.Err()
}

func (s *Store) latestBackfilledLabelCounts(ctx context.Context, owner, repo string) ([]LabelCount, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT b.label, b.count FROM backfill_series b
			WHERE b.owner = ? AND b.repo = ? AND b.scope = ?
			AND b.day = (SELECT MAX(day) FROM backfill_series
				WHERE owner = b.owner AND repo = b.repo AND scope = b.scope AND label = b.label)`),
		owner, repo, series.KeyByLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to query backfilled label counts: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var counts []LabelCount
	for rows.Next() {
		var lc LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan label count row: %w", err)
		}
		counts = append(counts, lc)
	}
	return counts, rows.Err()
}
