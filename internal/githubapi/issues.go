package githubapi

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alan/repo-tracker/internal/replay"
	"github.com/google/go-github/v57/github"
)

// ListIssues fetches every issue and pull request in the repository, open
// and closed, without event timelines. Pull requests are included because
// the issue view is the only representation that carries lifecycle events;
// callers split them by the PullRequest flag.
func (c *Client) ListIssues(ctx context.Context) ([]replay.RawIssue, error) {
	issues, err := paginatedList(func(page int) ([]*github.Issue, *github.Response, error) {
		opts := &github.IssueListByRepoOptions{
			State: "all",
			ListOptions: github.ListOptions{
				PerPage: 100,
				Page:    page,
			},
		}
		slog.Debug("GitHub API: Listing issues", "owner", c.owner, "repo", c.repo, "page", page)
		return c.client.Issues.ListByRepo(ctx, c.owner, c.repo, opts)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}

	raw := make([]replay.RawIssue, 0, len(issues))
	for _, issue := range issues {
		raw = append(raw, convertIssue(issue))
	}
	return raw, nil
}

// ListIssueEvents fetches the lifecycle event timeline for one issue.
func (c *Client) ListIssueEvents(ctx context.Context, number int) ([]replay.RawEvent, error) {
	events, err := paginatedList(func(page int) ([]*github.IssueEvent, *github.Response, error) {
		opts := &github.ListOptions{
			PerPage: 100,
			Page:    page,
		}
		slog.Debug("GitHub API: Listing issue events", "owner", c.owner, "repo", c.repo, "issue", number, "page", page)
		return c.client.Issues.ListIssueEvents(ctx, c.owner, c.repo, number, opts)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events for issue #%d: %w", number, err)
	}

	raw := make([]replay.RawEvent, 0, len(events))
	for _, ev := range events {
		raw = append(raw, replay.RawEvent{
			Type:      replay.EventType(ev.GetEvent()),
			CreatedAt: ev.GetCreatedAt().Time,
			Label:     ev.GetLabel().GetName(),
		})
	}
	return raw, nil
}

// convertIssue maps a go-github issue to the raw input record the replay
// layer consumes. Events are fetched separately.
func convertIssue(issue *github.Issue) replay.RawIssue {
	labels := make([]string, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		labels = append(labels, label.GetName())
	}

	raw := replay.RawIssue{
		Number:      issue.GetNumber(),
		State:       issue.GetState(),
		CreatedAt:   issue.GetCreatedAt().Time,
		Labels:      labels,
		PullRequest: issue.IsPullRequest(),
	}
	if issue.ClosedAt != nil {
		t := issue.GetClosedAt().Time
		raw.ClosedAt = &t
	}
	return raw
}
