// Package githubapi wraps the GitHub API client for one repository: listing
// issues with their event timelines, pull requests, stargazers and current
// repo stats, with rate-limit exhaustion surfaced as a QuotaError.
package githubapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// Client wraps the GitHub API client for a single owner/repo.
type Client struct {
	client *github.Client
	owner  string
	repo   string
}

// NewClient creates a GitHub client for the given repository. An empty token
// yields an unauthenticated client, which works but has a much smaller API
// quota.
func NewClient(ctx context.Context, token, owner, repo string) *Client {
	var tc *github.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		tc = github.NewClient(oauth2.NewClient(ctx, ts))
	} else {
		tc = github.NewClient(nil)
	}

	return &Client{client: tc, owner: owner, repo: repo}
}

// QuotaError reports that the GitHub API quota is exhausted. The current run
// cannot continue, but progress already written to the issue cache survives,
// so a rerun after Reset picks up where this one stopped.
type QuotaError struct {
	Reset time.Time
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("GitHub API quota exhausted, resets in %s (at %s)",
		time.Until(e.Reset).Round(time.Second), e.Reset.Format(time.RFC3339))
}

// wrapQuota converts go-github rate-limit errors into a QuotaError and
// passes everything else through untouched.
func wrapQuota(err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &QuotaError{Reset: rateErr.Rate.Reset.Time}
	}
	return err
}

// paginatedList handles GitHub API pagination generically, fetching all
// pages of results.
func paginatedList[T any](fetch func(page int) ([]T, *github.Response, error)) ([]T, error) {
	var all []T
	page := 1

	for {
		items, resp, err := fetch(page)
		if err != nil {
			return nil, wrapQuota(err)
		}
		all = append(all, items...)

		if resp.NextPage == 0 {
			return all, nil
		}
		page = resp.NextPage
	}
}
