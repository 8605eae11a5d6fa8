package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alan/repo-tracker/internal/series"
	"github.com/alan/repo-tracker/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, update UpdateFunc) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	srv := httptest.NewServer(New(st, update).Handler())
	t.Cleanup(srv.Close)
	return srv, st
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body)) //nolint:gosec // Test server URL
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHandleAdd(t *testing.T) {
	srv, st := newTestServer(t, nil)

	resp := post(t, srv.URL+"/danvk/dygraphs/add", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	repos, err := st.ListRepos(context.Background())
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "dygraphs", repos[0].Name)
}

func TestHandleBackfill_ThenSeries(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	base := srv.URL + "/danvk/dygraphs"

	// The write sequence for one run: delete marker, then payload.
	for _, body := range []string{
		`{"delete": "open_issues"}`,
		`{"open_issues": [["2020-01-01", 1], ["2020-01-02", 2]]}`,
		`{"delete": "by_label"}`,
		`{"by_label": {"bug": [["2020-01-01", 1]]}}`,
	} {
		resp := post(t, base+"/backfill", body)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "payload %s", body)
	}

	resp, err := http.Get(base + "/json") //nolint:gosec // Test server URL
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	var decoded struct {
		Owner      string                  `json:"owner"`
		Repo       string                  `json:"repo"`
		OpenIssues series.Daily            `json:"open_issues"`
		OpenPulls  series.Daily            `json:"open_pulls"`
		ByLabel    map[string]series.Daily `json:"by_label"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "danvk", decoded.Owner)
	assert.Equal(t, "dygraphs", decoded.Repo)
	assert.Equal(t, series.Daily{
		{Date: "2020-01-01", Count: 1},
		{Date: "2020-01-02", Count: 2},
	}, decoded.OpenIssues)
	assert.Equal(t, series.Daily{}, decoded.OpenPulls)
	assert.Equal(t, 1, decoded.ByLabel["bug"][0].Count)
}

func TestHandleBackfill_InvalidPayload(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp := post(t, srv.URL+"/danvk/dygraphs/backfill", "{not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleUpdate(t *testing.T) {
	called := false
	srv, _ := newTestServer(t, func(_ context.Context) error {
		called = true
		return nil
	})

	resp := post(t, srv.URL+"/update", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, called)
}

func TestHandleUpdate_NotConfigured(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp := post(t, srv.URL+"/update", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSeriesEndpoint_WrongMethod(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp := post(t, srv.URL+"/danvk/dygraphs/json", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
