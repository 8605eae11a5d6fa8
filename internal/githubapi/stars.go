package githubapi

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/go-github/v57/github"
)

// ListStarTimes fetches the timestamp of every star the repository has
// received, in the order GitHub reports them.
func (c *Client) ListStarTimes(ctx context.Context) ([]time.Time, error) {
	stargazers, err := paginatedList(func(page int) ([]*github.Stargazer, *github.Response, error) {
		opts := &github.ListOptions{
			PerPage: 100,
			Page:    page,
		}
		slog.Debug("GitHub API: Listing stargazers", "owner", c.owner, "repo", c.repo, "page", page)
		return c.client.Activity.ListStargazers(ctx, c.owner, c.repo, opts)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list stargazers: %w", err)
	}

	times := make([]time.Time, 0, len(stargazers))
	for _, sg := range stargazers {
		times = append(times, sg.GetStarredAt().Time)
	}
	return times, nil
}
