// Package fetcher runs the ingestion pipeline for a single repository:
// each record kind is fetched in full, then upserted as one atomic batch.
package fetcher

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"repocompare/github"
	"repocompare/logger"
	"repocompare/models"
)

// Store abstracts the upsert operations needed by the pipeline.
type Store interface {
	UpsertCommits(ctx context.Context, commits []models.Commit, repoFullName string) error
	UpsertPullRequests(ctx context.Context, prs []models.PullRequest, repoFullName string) error
	UpsertIssues(ctx context.Context, issues []models.Issue, repoFullName string) error
	UpsertContributors(ctx context.Context, contributors []models.Contributor, repoFullName string) error
}

// Client abstracts the API operations needed by the pipeline.
type Client interface {
	FetchCommits(ctx context.Context, owner, name string, opts github.CommitListOptions) ([]models.Commit, error)
	FetchPullRequests(ctx context.Context, owner, name string, opts github.PullRequestListOptions) ([]models.PullRequest, error)
	FetchIssues(ctx context.Context, owner, name string, opts github.IssueListOptions) ([]models.Issue, error)
	FetchContributors(ctx context.Context, owner, name string) ([]models.Contributor, error)
}

// FetchAndStore ingests commits, pull requests, issues, and contributors
// for one repository since the given window start. Steps are strictly
// sequential; a committed batch stays committed even when a later record
// kind fails.
func FetchAndStore(ctx context.Context, store Store, client Client, owner, name string, since time.Time) error {
	repoFullName := owner + "/" + name
	logger.Info("processing repository",
		zap.String("repo", repoFullName),
		zap.Time("since", since))

	commits, err := client.FetchCommits(ctx, owner, name, github.CommitListOptions{Since: since})
	if err != nil {
		return fmt.Errorf("failed to fetch commits for %s: %w", repoFullName, err)
	}
	if err := store.UpsertCommits(ctx, commits, repoFullName); err != nil {
		return fmt.Errorf("failed to store commits for %s: %w", repoFullName, err)
	}

	prs, err := client.FetchPullRequests(ctx, owner, name, github.PullRequestListOptions{})
	if err != nil {
		return fmt.Errorf("failed to fetch pull requests for %s: %w", repoFullName, err)
	}
	if err := store.UpsertPullRequests(ctx, prs, repoFullName); err != nil {
		return fmt.Errorf("failed to store pull requests for %s: %w", repoFullName, err)
	}

	issues, err := client.FetchIssues(ctx, owner, name, github.IssueListOptions{Since: since})
	if err != nil {
		return fmt.Errorf("failed to fetch issues for %s: %w", repoFullName, err)
	}
	if err := store.UpsertIssues(ctx, issues, repoFullName); err != nil {
		return fmt.Errorf("failed to store issues for %s: %w", repoFullName, err)
	}

	contributors, err := client.FetchContributors(ctx, owner, name)
	if err != nil {
		return fmt.Errorf("failed to fetch contributors for %s: %w", repoFullName, err)
	}
	if err := store.UpsertContributors(ctx, contributors, repoFullName); err != nil {
		return fmt.Errorf("failed to store contributors for %s: %w", repoFullName, err)
	}

	logger.Info("repository processed",
		zap.String("repo", repoFullName),
		zap.Int("commits", len(commits)),
		zap.Int("pull_requests", len(prs)),
		zap.Int("issues", len(issues)),
		zap.Int("contributors", len(contributors)))
	return nil
}
