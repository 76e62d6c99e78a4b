package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"repocompare/logger"
	"repocompare/models"
)

// Upserts are last-write-wins on the natural key: the conflicting row is
// replaced in full, never merged field by field. Each call is one
// transaction; a failure on any record rolls back the whole batch.

const upsertCommitQuery = `
	INSERT INTO github_commits (
		sha, repo_name, author_login, committer_login, message, commit_timestamp, api_url
	)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (sha) DO UPDATE SET
		repo_name = excluded.repo_name,
		author_login = excluded.author_login,
		committer_login = excluded.committer_login,
		message = excluded.message,
		commit_timestamp = excluded.commit_timestamp,
		api_url = excluded.api_url
`

const upsertPullRequestQuery = `
	INSERT INTO github_pull_requests (
		id, number, repo_name, state, title, user_login,
		created_at, updated_at, closed_at, merged_at, merge_commit_sha
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		number = excluded.number,
		repo_name = excluded.repo_name,
		state = excluded.state,
		title = excluded.title,
		user_login = excluded.user_login,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at,
		closed_at = excluded.closed_at,
		merged_at = excluded.merged_at,
		merge_commit_sha = excluded.merge_commit_sha
`

const upsertIssueQuery = `
	INSERT INTO github_issues (
		id, number, repo_name, state, title, user_login,
		created_at, updated_at, closed_at, comments_count
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		number = excluded.number,
		repo_name = excluded.repo_name,
		state = excluded.state,
		title = excluded.title,
		user_login = excluded.user_login,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at,
		closed_at = excluded.closed_at,
		comments_count = excluded.comments_count
`

const upsertContributorQuery = `
	INSERT INTO github_contributors (
		repo_name, login, contributions, contributor_type, id
	)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (repo_name, login) DO UPDATE SET
		contributions = excluded.contributions,
		contributor_type = excluded.contributor_type,
		id = excluded.id
`

// UpsertCommits writes one batch of commits for the named repository.
func (db *DB) UpsertCommits(ctx context.Context, commits []models.Commit, repoFullName string) error {
	return db.upsertBatch(ctx, "commits", repoFullName, len(commits), upsertCommitQuery,
		func(ctx context.Context, stmt *sql.Stmt) error {
			for _, c := range commits {
				var ts *time.Time
				if c.Commit.Committer != nil {
					ts = c.Commit.Committer.Date
				}
				if _, err := stmt.ExecContext(ctx,
					c.SHA,
					repoFullName,
					userLogin(c.Author),
					userLogin(c.Committer),
					c.Commit.Message,
					timestampOf(ts),
					c.URL,
				); err != nil {
					return fmt.Errorf("commit %s: %w", c.SHA, err)
				}
			}
			return nil
		})
}

// UpsertPullRequests writes one batch of pull requests for the named
// repository.
func (db *DB) UpsertPullRequests(ctx context.Context, prs []models.PullRequest, repoFullName string) error {
	return db.upsertBatch(ctx, "pull requests", repoFullName, len(prs), upsertPullRequestQuery,
		func(ctx context.Context, stmt *sql.Stmt) error {
			for _, pr := range prs {
				if _, err := stmt.ExecContext(ctx,
					pr.ID,
					pr.Number,
					repoFullName,
					pr.State,
					pr.Title,
					userLogin(pr.User),
					pr.CreatedAt.UTC().Format(time.RFC3339),
					pr.UpdatedAt.UTC().Format(time.RFC3339),
					timestampOf(pr.ClosedAt),
					timestampOf(pr.MergedAt),
					pr.MergeCommitSHA,
				); err != nil {
					return fmt.Errorf("pull request #%d: %w", pr.Number, err)
				}
			}
			return nil
		})
}

// UpsertIssues writes one batch of issues for the named repository.
func (db *DB) UpsertIssues(ctx context.Context, issues []models.Issue, repoFullName string) error {
	return db.upsertBatch(ctx, "issues", repoFullName, len(issues), upsertIssueQuery,
		func(ctx context.Context, stmt *sql.Stmt) error {
			for _, issue := range issues {
				if _, err := stmt.ExecContext(ctx,
					issue.ID,
					issue.Number,
					repoFullName,
					issue.State,
					issue.Title,
					userLogin(issue.User),
					issue.CreatedAt.UTC().Format(time.RFC3339),
					issue.UpdatedAt.UTC().Format(time.RFC3339),
					timestampOf(issue.ClosedAt),
					issue.Comments,
				); err != nil {
					return fmt.Errorf("issue #%d: %w", issue.Number, err)
				}
			}
			return nil
		})
}

// UpsertContributors writes one batch of contributors for the named
// repository.
func (db *DB) UpsertContributors(ctx context.Context, contributors []models.Contributor, repoFullName string) error {
	return db.upsertBatch(ctx, "contributors", repoFullName, len(contributors), upsertContributorQuery,
		func(ctx context.Context, stmt *sql.Stmt) error {
			for _, contributor := range contributors {
				if _, err := stmt.ExecContext(ctx,
					repoFullName,
					contributor.Login,
					contributor.Contributions,
					contributor.Type,
					contributor.ID,
				); err != nil {
					return fmt.Errorf("contributor %s: %w", contributor.Login, err)
				}
			}
			return nil
		})
}

// upsertBatch runs one atomic batch: begin, prepare, execute every record,
// commit. Any error rolls back everything written in this call.
func (db *DB) upsertBatch(ctx context.Context, kind, repoFullName string, count int, query string, exec func(context.Context, *sql.Stmt) error) error {
	if repoFullName == "" {
		return fmt.Errorf("%w: repository full name cannot be empty", ErrInvalidInput)
	}
	if count == 0 {
		return nil
	}

	logger.Info("upserting records",
		zap.String("kind", kind),
		zap.String("repo", repoFullName),
		zap.Int("count", count))

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, db.conn.Rebind(query))
	if err != nil {
		return fmt.Errorf("%w: failed to prepare %s statement: %v", ErrStorage, kind, err)
	}
	defer stmt.Close()

	if err := exec(ctx, stmt); err != nil {
		return fmt.Errorf("%w: failed to upsert %s for %s: %v", ErrStorage, kind, repoFullName, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	logger.Info("upserted records",
		zap.String("kind", kind),
		zap.String("repo", repoFullName),
		zap.Int("count", count))
	return nil
}

// HasSnapshot reports whether any commits are already stored for the
// repository. It backs the force-fetch decision in the service.
func (db *DB) HasSnapshot(ctx context.Context, repoFullName string) (bool, error) {
	if repoFullName == "" {
		return false, fmt.Errorf("%w: repository full name cannot be empty", ErrInvalidInput)
	}
	var count int
	query := db.conn.Rebind(`SELECT COUNT(*) FROM github_commits WHERE repo_name = ?`)
	if err := db.conn.GetContext(ctx, &count, query, repoFullName); err != nil {
		return false, fmt.Errorf("%w: failed to check snapshot for %s: %v", ErrStorage, repoFullName, err)
	}
	return count > 0, nil
}

// userLogin lifts an optional user reference into a nullable login column.
func userLogin(u *models.User) sql.NullString {
	if u == nil || u.Login == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: u.Login, Valid: true}
}

// timestampOf renders an optional timestamp as an RFC3339 UTC string,
// NULL when absent.
func timestampOf(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}
