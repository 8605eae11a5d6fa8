package githubapi

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v57/github"
)

// RepoStats is one observation of a repository's current counts.
type RepoStats struct {
	Stargazers  int
	OpenIssues  int // GitHub's open_issues_count, which includes open PRs
	OpenPulls   int
	LabelCounts map[string]int // open issues (not PRs) per label
}

// FetchStats fetches the repository's current star, open-issue and
// open-pull-request counts plus per-label open-issue counts.
func (c *Client) FetchStats(ctx context.Context) (*RepoStats, error) {
	slog.Debug("GitHub API: Getting repository", "owner", c.owner, "repo", c.repo)
	repo, _, err := c.client.Repositories.Get(ctx, c.owner, c.repo)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repository: %w", wrapQuota(err))
	}

	pulls, err := paginatedList(func(page int) ([]*github.PullRequest, *github.Response, error) {
		opts := &github.PullRequestListOptions{
			State: "open",
			ListOptions: github.ListOptions{
				PerPage: 100,
				Page:    page,
			},
		}
		slog.Debug("GitHub API: Listing open pull requests", "owner", c.owner, "repo", c.repo, "page", page)
		return c.client.PullRequests.List(ctx, c.owner, c.repo, opts)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list open pull requests: %w", err)
	}

	labelCounts, err := c.openLabelCounts(ctx)
	if err != nil {
		return nil, err
	}

	return &RepoStats{
		Stargazers:  repo.GetStargazersCount(),
		OpenIssues:  repo.GetOpenIssuesCount(),
		OpenPulls:   len(pulls),
		LabelCounts: labelCounts,
	}, nil
}

// openLabelCounts counts open non-PR issues per label in one listing pass.
func (c *Client) openLabelCounts(ctx context.Context) (map[string]int, error) {
	issues, err := paginatedList(func(page int) ([]*github.Issue, *github.Response, error) {
		opts := &github.IssueListByRepoOptions{
			State: "open",
			ListOptions: github.ListOptions{
				PerPage: 100,
				Page:    page,
			},
		}
		slog.Debug("GitHub API: Listing open issues", "owner", c.owner, "repo", c.repo, "page", page)
		return c.client.Issues.ListByRepo(ctx, c.owner, c.repo, opts)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list open issues: %w", err)
	}

	counts := make(map[string]int)
	for _, issue := range issues {
		if issue.IsPullRequest() {
			continue
		}
		for _, label := range issue.Labels {
			counts[label.GetName()]++
		}
	}
	return counts, nil
}
