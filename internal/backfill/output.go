package backfill

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/alan/repo-tracker/internal/series"
)

// writeBatchFile writes one batch as a JSON file.
func writeBatchFile(path string, batch series.Batch) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write batch file %s: %w", path, err)
	}
	return nil
}

// Poster posts backfill batches to a tracker server, in order. Batches are
// individually idempotent (each scope is deleted before being replaced), so
// a failed run can simply be retried from the start.
type Poster struct {
	host   string
	client *http.Client
}

// NewPoster creates a poster targeting the given host, e.g.
// "http://localhost:8080".
func NewPoster(host string) *Poster {
	return &Poster{host: host, client: http.DefaultClient}
}

// Post sends every batch to the server's backfill endpoint in sequence,
// stopping at the first failure.
func (p *Poster) Post(ctx context.Context, owner, repo string, batches []series.Batch) error {
	url := fmt.Sprintf("%s/%s/%s/backfill", p.host, owner, repo)

	for i, batch := range batches {
		if err := p.postOne(ctx, url, batch); err != nil {
			return fmt.Errorf("failed to post batch %d of %d: %w", i+1, len(batches), err)
		}
	}
	return nil
}

func (p *Poster) postOne(ctx context.Context, url string, batch series.Batch) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("server returned %s: %s", resp.Status, body)
	}
	return nil
}
