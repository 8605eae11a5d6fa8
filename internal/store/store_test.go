package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alan/repo-tracker/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestAddRepo_Idempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.AddRepo(ctx, "danvk", "dygraphs"))
	require.NoError(t, st.AddRepo(ctx, "danvk", "dygraphs"))
	require.NoError(t, st.AddRepo(ctx, "hammerlab", "pileup.js"))

	repos, err := st.ListRepos(ctx)
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "danvk", repos[0].Owner)
	assert.Equal(t, "dygraphs", repos[0].Name)
}

func TestInsertObservation_AndSeries(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2020, 5, 1, 9, 30, 0, 0, time.UTC)
	obs := Observation{
		Stargazers: 100,
		OpenIssues: 12,
		OpenPulls:  3,
		LabelCounts: map[string]int{
			"bug":         7,
			"enhancement": 5,
		},
	}
	require.NoError(t, st.InsertObservation(ctx, "danvk", "dygraphs", at, obs))

	stats, err := st.SeriesFor(ctx, "danvk", "dygraphs")
	require.NoError(t, err)

	require.Len(t, stats.Stargazers, 1)
	assert.Equal(t, series.Point{Date: "2020-05-01 09:30:00Z", Count: 100}, stats.Stargazers[0])
	assert.Equal(t, 12, stats.OpenIssues[0].Count)
	assert.Equal(t, 3, stats.OpenPulls[0].Count)
	assert.Equal(t, 7, stats.ByLabel["bug"][0].Count)
	assert.Equal(t, 5, stats.ByLabel["enhancement"][0].Count)
}

func TestApplyBackfill_DeleteThenReplace(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	payload := series.Batch{OpenIssues: series.Daily{
		{Date: "2020-01-01", Count: 1},
		{Date: "2020-01-02", Count: 2},
	}}

	// Apply the same delete-then-replace sequence twice; a rerun must
	// converge rather than duplicate rows.
	for range 2 {
		require.NoError(t, st.ApplyBackfill(ctx, "danvk", "dygraphs", series.DeleteBatch(series.KeyOpenIssues)))
		require.NoError(t, st.ApplyBackfill(ctx, "danvk", "dygraphs", payload))
	}

	stats, err := st.SeriesFor(ctx, "danvk", "dygraphs")
	require.NoError(t, err)
	assert.Equal(t, series.Daily{
		{Date: "2020-01-01", Count: 1},
		{Date: "2020-01-02", Count: 2},
	}, stats.OpenIssues)
}

func TestApplyBackfill_ByLabel(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.ApplyBackfill(ctx, "danvk", "dygraphs", series.DeleteBatch(series.KeyByLabel)))
	require.NoError(t, st.ApplyBackfill(ctx, "danvk", "dygraphs", series.Batch{
		ByLabel: map[string]series.Daily{"bug": {{Date: "2020-01-01", Count: 4}}},
	}))
	require.NoError(t, st.ApplyBackfill(ctx, "danvk", "dygraphs", series.Batch{
		ByLabel: map[string]series.Daily{"ui": {{Date: "2020-01-01", Count: 2}}},
	}))

	stats, err := st.SeriesFor(ctx, "danvk", "dygraphs")
	require.NoError(t, err)
	assert.Len(t, stats.ByLabel, 2)
	assert.Equal(t, 4, stats.ByLabel["bug"][0].Count)

	// A by_label delete clears every label's rows.
	require.NoError(t, st.ApplyBackfill(ctx, "danvk", "dygraphs", series.DeleteBatch(series.KeyByLabel)))
	stats, err = st.SeriesFor(ctx, "danvk", "dygraphs")
	require.NoError(t, err)
	assert.Empty(t, stats.ByLabel)
}

func TestApplyBackfill_UnknownScope(t *testing.T) {
	st := newTestStore(t)

	err := st.ApplyBackfill(context.Background(), "danvk", "dygraphs", series.DeleteBatch("bogus"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backfill scope")
}

func TestSeriesFor_BackfillBeforeObservations(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.ApplyBackfill(ctx, "danvk", "dygraphs", series.Batch{
		OpenIssues: series.Daily{{Date: "2020-01-01", Count: 1}},
	}))
	require.NoError(t, st.InsertObservation(ctx, "danvk", "dygraphs",
		time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC), Observation{OpenIssues: 5}))

	stats, err := st.SeriesFor(ctx, "danvk", "dygraphs")
	require.NoError(t, err)
	require.Len(t, stats.OpenIssues, 2)
	assert.Equal(t, "2020-01-01", stats.OpenIssues[0].Date)
	assert.Equal(t, "2020-02-01 00:00:00Z", stats.OpenIssues[1].Date)
}

func TestCurrentLabelCounts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	older := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, st.InsertObservation(ctx, "danvk", "dygraphs", older, Observation{
		LabelCounts: map[string]int{"bug": 1},
	}))
	require.NoError(t, st.InsertObservation(ctx, "danvk", "dygraphs", newer, Observation{
		LabelCounts: map[string]int{"bug": 9, "ui": 3},
	}))

	counts, err := st.CurrentLabelCounts(ctx, "danvk", "dygraphs")
	require.NoError(t, err)
	assert.Equal(t, []LabelCount{{Label: "bug", Count: 9}, {Label: "ui", Count: 3}}, counts)
}

func TestCurrentLabelCounts_FallsBackToBackfill(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.ApplyBackfill(ctx, "danvk", "dygraphs", series.Batch{
		ByLabel: map[string]series.Daily{
			"bug": {{Date: "2020-01-01", Count: 1}, {Date: "2020-01-02", Count: 6}},
		},
	}))

	counts, err := st.CurrentLabelCounts(ctx, "danvk", "dygraphs")
	require.NoError(t, err)
	assert.Equal(t, []LabelCount{{Label: "bug", Count: 6}}, counts)
}

func TestSeriesFor_UnknownRepoIsEmpty(t *testing.T) {
	st := newTestStore(t)

	stats, err := st.SeriesFor(context.Background(), "nobody", "nothing")
	require.NoError(t, err)
	assert.Empty(t, stats.Stargazers)
	assert.Empty(t, stats.OpenIssues)
	assert.Empty(t, stats.OpenPulls)
	assert.Empty(t, stats.ByLabel)
}
