package store

import (
	"context"
	"fmt"
	"time"
)

// Repo is one tracked repository.
type Repo struct {
	Owner   string
	Name    string
	AddedAt time.Time
}

// AddRepo starts tracking a repository. Adding a repository that is already
// tracked is not an error.
func (s *Store) AddRepo(ctx context.Context, owner, name string) error {
	exists, err := s.repoExists(ctx, owner, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO repos (owner, name, added_at) VALUES (?, ?, ?)`),
		owner, name, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to add repo %s/%s: %w", owner, name, err)
	}
	return nil
}

func (s *Store) repoExists(ctx context.Context, owner, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT COUNT(*) FROM repos WHERE owner = ? AND name = ?`),
		owner, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to look up repo %s/%s: %w", owner, name, err)
	}
	return n > 0, nil
}

// ListRepos returns every tracked repository, oldest first.
func (s *Store) ListRepos(ctx context.Context) ([]Repo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT owner, name, added_at FROM repos ORDER BY added_at, owner, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list repos: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var repos []Repo
	for rows.Next() {
		var r Repo
		if err := rows.Scan(&r.Owner, &r.Name, &r.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan repo row: %w", err)
		}
		repos = append(repos, r)
	}
	return repos, rows.Err()
}
