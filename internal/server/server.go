// Package server exposes the tracker's HTTP surface: the JSON series
// endpoint the chart front end reads, the backfill ingestion endpoint, and
// small endpoints for tracking repos and triggering a poll.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alan/repo-tracker/internal/series"
	"github.com/alan/repo-tracker/internal/store"
)

// UpdateFunc runs one poll pass over every tracked repository. It is
// injected so the server does not construct API clients itself; a nil
// UpdateFunc disables the /update endpoint.
type UpdateFunc func(ctx context.Context) error

// Server handles the tracker's HTTP routes.
type Server struct {
	store  *store.Store
	update UpdateFunc
}

// New creates a server over the given store.
func New(st *store.Store, update UpdateFunc) *Server {
	return &Server{store: st, update: update}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{owner}/{repo}/json", s.handleSeries)
	mux.HandleFunc("POST /{owner}/{repo}/backfill", s.handleBackfill)
	mux.HandleFunc("POST /{owner}/{repo}/add", s.handleAdd)
	mux.HandleFunc("POST /update", s.handleUpdate)
	return mux
}

// seriesResponse is the JSON shape the chart front end consumes.
type seriesResponse struct {
	Owner      string                  `json:"owner"`
	Repo       string                  `json:"repo"`
	Stargazers series.Daily            `json:"stargazers"`
	OpenIssues series.Daily            `json:"open_issues"`
	OpenPulls  series.Daily            `json:"open_pulls"`
	ByLabel    map[string]series.Daily `json:"by_label"`
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	owner, repo := r.PathValue("owner"), r.PathValue("repo")

	stats, err := s.store.SeriesFor(r.Context(), owner, repo)
	if err != nil {
		s.fail(w, "failed to load series", err)
		return
	}

	s.writeJSON(w, seriesResponse{
		Owner:      owner,
		Repo:       repo,
		Stargazers: emptyNotNull(stats.Stargazers),
		OpenIssues: emptyNotNull(stats.OpenIssues),
		OpenPulls:  emptyNotNull(stats.OpenPulls),
		ByLabel:    stats.ByLabel,
	})
}

func (s *Server) handleBackfill(w http.ResponseWriter, r *http.Request) {
	owner, repo := r.PathValue("owner"), r.PathValue("repo")

	var batch series.Batch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		http.Error(w, fmt.Sprintf("invalid backfill payload: %v", err), http.StatusBadRequest)
		return
	}

	if err := s.store.ApplyBackfill(r.Context(), owner, repo, batch); err != nil {
		s.fail(w, "failed to apply backfill batch", err)
		return
	}

	slog.Info("Applied backfill batch", "owner", owner, "repo", repo, "delete", batch.Delete)
	s.ok(w)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	owner, repo := r.PathValue("owner"), r.PathValue("repo")

	if err := s.store.AddRepo(r.Context(), owner, repo); err != nil {
		s.fail(w, "failed to add repo", err)
		return
	}

	slog.Info("Tracking repo", "owner", owner, "repo", repo)
	s.ok(w)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if s.update == nil {
		http.Error(w, "updates are not configured on this server", http.StatusServiceUnavailable)
		return
	}

	if err := s.update(r.Context()); err != nil {
		s.fail(w, "update failed", err)
		return
	}
	s.ok(w)
}

func (s *Server) ok(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK\n"))
}

func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, msg, http.StatusInternalServerError)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// emptyNotNull keeps empty series rendering as [] rather than null.
func emptyNotNull(d series.Daily) series.Daily {
	if d == nil {
		return series.Daily{}
	}
	return d
}
