package github

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"repocompare/logger"
	"repocompare/models"
)

// CommitListOptions narrows the commit listing. Zero times and an empty
// ref are omitted from the query.
type CommitListOptions struct {
	Since time.Time
	Until time.Time
	Ref   string
}

// PullRequestListOptions narrows the pull request listing. An empty State
// requests "all" so the dataset stays complete for historical analysis.
type PullRequestListOptions struct {
	State     string
	Sort      string
	Direction string
}

// IssueListOptions narrows the issue listing. An empty State requests
// "all".
type IssueListOptions struct {
	State  string
	Filter string
	Since  time.Time
}

// listURL builds the first-page URL for a repository listing endpoint.
// Subsequent pages come from the response Link headers verbatim.
func (c *Client) listURL(owner, name, resource string, q url.Values) string {
	u := c.baseURL.ResolveReference(&url.URL{
		Path: fmt.Sprintf("/repos/%s/%s/%s", owner, name, resource),
	})
	q.Set("per_page", fmt.Sprintf("%d", perPage))
	u.RawQuery = q.Encode()
	return u.String()
}

// FetchCommits returns every commit of the repository matching opts, in
// host-provided order across all pages.
func (c *Client) FetchCommits(ctx context.Context, owner, name string, opts CommitListOptions) ([]models.Commit, error) {
	q := url.Values{}
	if !opts.Since.IsZero() {
		q.Set("since", opts.Since.UTC().Format(time.RFC3339))
	}
	if !opts.Until.IsZero() {
		q.Set("until", opts.Until.UTC().Format(time.RFC3339))
	}
	if opts.Ref != "" {
		q.Set("sha", opts.Ref)
	}

	logger.Info("fetching commits", zap.String("owner", owner), zap.String("name", name))
	commits, err := collectPages[models.Commit](ctx, c, c.listURL(owner, name, "commits", q))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch commits for %s/%s: %w", owner, name, err)
	}
	logger.Info("fetched commits",
		zap.String("owner", owner),
		zap.String("name", name),
		zap.Int("count", len(commits)))
	return commits, nil
}

// FetchPullRequests returns every pull request of the repository matching
// opts across all pages.
func (c *Client) FetchPullRequests(ctx context.Context, owner, name string, opts PullRequestListOptions) ([]models.PullRequest, error) {
	q := url.Values{}
	state := opts.State
	if state == "" {
		state = "all"
	}
	q.Set("state", state)
	if opts.Sort != "" {
		q.Set("sort", opts.Sort)
	}
	if opts.Direction != "" {
		q.Set("direction", opts.Direction)
	}

	logger.Info("fetching pull requests", zap.String("owner", owner), zap.String("name", name))
	prs, err := collectPages[models.PullRequest](ctx, c, c.listURL(owner, name, "pulls", q))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pull requests for %s/%s: %w", owner, name, err)
	}
	logger.Info("fetched pull requests",
		zap.String("owner", owner),
		zap.String("name", name),
		zap.Int("count", len(prs)))
	return prs, nil
}

// FetchIssues returns every issue of the repository matching opts across
// all pages. The endpoint may include pull requests; they are returned as
// received.
func (c *Client) FetchIssues(ctx context.Context, owner, name string, opts IssueListOptions) ([]models.Issue, error) {
	q := url.Values{}
	state := opts.State
	if state == "" {
		state = "all"
	}
	q.Set("state", state)
	if opts.Filter != "" {
		q.Set("filter", opts.Filter)
	}
	if !opts.Since.IsZero() {
		q.Set("since", opts.Since.UTC().Format(time.RFC3339))
	}

	logger.Info("fetching issues", zap.String("owner", owner), zap.String("name", name))
	issues, err := collectPages[models.Issue](ctx, c, c.listURL(owner, name, "issues", q))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issues for %s/%s: %w", owner, name, err)
	}
	logger.Info("fetched issues",
		zap.String("owner", owner),
		zap.String("name", name),
		zap.Int("count", len(issues)))
	return issues, nil
}

// FetchContributors returns the repository's contributor list across all
// pages. The host may legitimately return an empty list while contribution
// data is still being computed.
func (c *Client) FetchContributors(ctx context.Context, owner, name string) ([]models.Contributor, error) {
	logger.Info("fetching contributors", zap.String("owner", owner), zap.String("name", name))
	contributors, err := collectPages[models.Contributor](ctx, c, c.listURL(owner, name, "contributors", url.Values{}))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contributors for %s/%s: %w", owner, name, err)
	}
	logger.Info("fetched contributors",
		zap.String("owner", owner),
		zap.String("name", name),
		zap.Int("count", len(contributors)))
	return contributors, nil
}
