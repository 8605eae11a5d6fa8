package backfill

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alan/repo-tracker/internal/replay"
	"github.com/alan/repo-tracker/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	issues     []replay.RawIssue
	events     map[int][]replay.RawEvent
	stars      []time.Time
	eventCalls int
}

func (f *fakeSource) ListIssues(_ context.Context) ([]replay.RawIssue, error) {
	return f.issues, nil
}

func (f *fakeSource) ListIssueEvents(_ context.Context, number int) ([]replay.RawEvent, error) {
	f.eventCalls++
	return f.events[number], nil
}

func (f *fakeSource) ListStarTimes(_ context.Context) ([]time.Time, error) {
	return f.stars, nil
}

func day(d int) time.Time {
	return time.Date(2020, 1, d, 12, 0, 0, 0, time.UTC)
}

func newFakeSource() *fakeSource {
	closed := day(3)
	return &fakeSource{
		issues: []replay.RawIssue{
			{Number: 1, State: "open", CreatedAt: day(1), Labels: []string{"bug"}},
			{Number: 2, State: "closed", CreatedAt: day(2), ClosedAt: &closed},
			{Number: 3, State: "open", CreatedAt: day(2), PullRequest: true},
		},
		events: map[int][]replay.RawEvent{
			1: {{Type: replay.EventLabeled, CreatedAt: day(1), Label: "bug"}},
			2: {{Type: replay.EventClosed, CreatedAt: day(3)}},
			3: nil,
		},
		stars: []time.Time{day(1), day(1), day(4)},
	}
}

func newTestOrchestrator(t *testing.T, source Source) *Orchestrator {
	t.Helper()
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)

	orch := NewOrchestrator(source, cache, nil)
	orch.now = func() time.Time { return day(10) }
	return orch
}

func TestRun_BatchSequence(t *testing.T) {
	orch := newTestOrchestrator(t, newFakeSource())

	batches, err := orch.Run(context.Background(), AllMetrics())
	require.NoError(t, err)

	// delete+payload for issues, delete+one-per-label for labels,
	// delete+payload for pulls and stars.
	require.Len(t, batches, 8)
	assert.Equal(t, series.DeleteBatch(series.KeyOpenIssues), batches[0])
	assert.NotEmpty(t, batches[1].OpenIssues)
	assert.Equal(t, series.DeleteBatch(series.KeyByLabel), batches[2])
	assert.Contains(t, batches[3].ByLabel, "bug")
	assert.Equal(t, series.DeleteBatch(series.KeyOpenPulls), batches[4])
	assert.NotEmpty(t, batches[5].OpenPulls)
	assert.Equal(t, series.DeleteBatch(series.KeyStargazers), batches[6])
	assert.NotEmpty(t, batches[7].Stargazers)
}

func TestRun_IssuesExcludePullRequests(t *testing.T) {
	orch := newTestOrchestrator(t, newFakeSource())

	batches, err := orch.Run(context.Background(), Metrics{Issues: true})
	require.NoError(t, err)

	require.Len(t, batches, 2)
	daily := batches[1].OpenIssues
	require.NotEmpty(t, daily)

	// Issue 1 opens on the 1st, issue 2 on the 2nd and closes on the 3rd;
	// the PR never counts. Steady state is one open issue.
	last := daily[len(daily)-1]
	assert.Equal(t, 1, last.Count)
	assert.Equal(t, "2020-01-10", last.Date)
}

func TestRun_PullsOnlyCountPullRequests(t *testing.T) {
	orch := newTestOrchestrator(t, newFakeSource())

	batches, err := orch.Run(context.Background(), Metrics{Pulls: true})
	require.NoError(t, err)

	require.Len(t, batches, 2)
	daily := batches[1].OpenPulls
	require.NotEmpty(t, daily)
	assert.Equal(t, 1, daily[len(daily)-1].Count)
	assert.Empty(t, batches[1].ByLabel)
}

func TestRun_StarsAccumulate(t *testing.T) {
	orch := newTestOrchestrator(t, newFakeSource())

	batches, err := orch.Run(context.Background(), Metrics{Stars: true})
	require.NoError(t, err)

	require.Len(t, batches, 2)
	daily := batches[1].Stargazers
	require.NotEmpty(t, daily)
	assert.Equal(t, "2020-01-01", daily[0].Date)
	assert.Equal(t, 0, daily[0].Count)
	assert.Equal(t, 2, daily[1].Count) // both day-1 stars land on the 2nd
	assert.Equal(t, 3, daily[len(daily)-1].Count)
}

func TestRun_CacheAvoidsRefetch(t *testing.T) {
	source := newFakeSource()
	orch := newTestOrchestrator(t, source)

	first, err := orch.Run(context.Background(), AllMetrics())
	require.NoError(t, err)
	assert.Equal(t, 3, source.eventCalls)

	second, err := orch.Run(context.Background(), AllMetrics())
	require.NoError(t, err)
	assert.Equal(t, 3, source.eventCalls, "second run should load every issue from cache")

	// Identical input, identical batch sequence: applying both runs'
	// delete-then-replace sequences converges on the same state.
	assert.Equal(t, first, second)
}

func TestRun_MalformedCacheEntryFails(t *testing.T) {
	source := newFakeSource()
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(cache.Dir(), "1.json"), []byte("{not json"), 0o600))

	orch := NewOrchestrator(source, cache, nil)
	orch.now = func() time.Time { return day(10) }

	_, err = orch.Run(context.Background(), Metrics{Issues: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed cache entry")
}

func TestCache_RoundTrip(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)

	closed := day(3)
	issue := replay.RawIssue{
		Number: 42, State: "closed", CreatedAt: day(1), ClosedAt: &closed,
		Labels: []string{"bug"},
		Events: []replay.RawEvent{{Type: replay.EventClosed, CreatedAt: day(3)}},
	}

	_, ok, err := cache.Load(42)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Store(issue))

	loaded, ok, err := cache.Load(42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, issue, *loaded)
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	batches := []series.Batch{
		series.DeleteBatch(series.KeyOpenIssues),
		{OpenIssues: series.Daily{{Date: "2020-01-01", Count: 1}}},
	}

	paths, err := WriteFiles(dir, batches)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"delete": "open_issues"}`, string(data))
}
