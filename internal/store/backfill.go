package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alan/repo-tracker/internal/series"
)

// ApplyBackfill applies one backfill batch: either a delete marker clearing
// a scope's backfilled rows, or a data payload inserting replacement rows.
// Each batch runs in its own transaction. Batches from one run must be
// applied in the order produced, so the delete always lands before the rows
// that replace it; applying a full sequence twice converges on the same
// state.
func (s *Store) ApplyBackfill(ctx context.Context, owner, repo string, batch series.Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if batch.Delete != "" {
		if err := s.deleteScope(ctx, tx, owner, repo, batch.Delete); err != nil {
			return err
		}
		return tx.Commit()
	}

	for _, payload := range []struct {
		key   string
		daily series.Daily
	}{
		{series.KeyOpenIssues, batch.OpenIssues},
		{series.KeyOpenPulls, batch.OpenPulls},
		{series.KeyStargazers, batch.Stargazers},
	} {
		if err := s.insertScope(ctx, tx, owner, repo, payload.key, "", payload.daily); err != nil {
			return err
		}
	}
	for label, daily := range batch.ByLabel {
		if err := s.insertScope(ctx, tx, owner, repo, series.KeyByLabel, label, daily); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) deleteScope(ctx context.Context, tx *sql.Tx, owner, repo, key string) error {
	switch key {
	case series.KeyOpenIssues, series.KeyOpenPulls, series.KeyStargazers, series.KeyByLabel:
	default:
		return fmt.Errorf("unknown backfill scope %q", key)
	}

	_, err := tx.ExecContext(ctx,
		s.rebind(`DELETE FROM backfill_series WHERE owner = ? AND repo = ? AND scope = ?`),
		owner, repo, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s series for %s/%s: %w", key, owner, repo, err)
	}
	return nil
}

func (s *Store) insertScope(ctx context.Context, tx *sql.Tx, owner, repo, key, label string, daily series.Daily) error {
	for _, p := range daily {
		_, err := tx.ExecContext(ctx,
			s.rebind(`INSERT INTO backfill_series (owner, repo, scope, label, day, count)
				VALUES (?, ?, ?, ?, ?, ?)`),
			owner, repo, key, label, p.Date, p.Count)
		if err != nil {
			return fmt.Errorf("failed to insert %s series row for %s/%s: %w", key, owner, repo, err)
		}
	}
	return nil
}
