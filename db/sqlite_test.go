package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repocompare/models"
)

// These tests run against a real sqlite file so the ON CONFLICT clauses
// are actually executed, not just mirrored by a mock.

func openTestStore(t *testing.T) *DB {
	t.Helper()
	database, err := New("sqlite", filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, database.Close())
	})
	return database
}

func testCommit(sha, login, message string, date time.Time) models.Commit {
	return models.Commit{
		SHA: sha,
		Commit: models.CommitDetail{
			Committer: &models.CommitAuthor{Date: &date},
			Message:   message,
		},
		URL:       "https://api.github.com/repos/acme/widgets/commits/" + sha,
		Author:    &models.User{Login: login},
		Committer: &models.User{Login: login},
	}
}

func commitCount(t *testing.T, database *DB, repoFullName string) int {
	t.Helper()
	var count int
	query := database.conn.Rebind(`SELECT COUNT(*) FROM github_commits WHERE repo_name = ?`)
	require.NoError(t, database.conn.GetContext(context.Background(), &count, query, repoFullName))
	return count
}

func commitMessage(t *testing.T, database *DB, sha string) string {
	t.Helper()
	var message string
	query := database.conn.Rebind(`SELECT message FROM github_commits WHERE sha = ?`)
	require.NoError(t, database.conn.GetContext(context.Background(), &message, query, sha))
	return message
}

func TestUpsertCommitsIdempotent(t *testing.T) {
	database := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	batch := []models.Commit{
		testCommit("abc123", "alice", "first", now),
		testCommit("def456", "bob", "second", now),
	}

	require.NoError(t, database.UpsertCommits(ctx, batch, "acme/widgets"))
	require.NoError(t, database.UpsertCommits(ctx, batch, "acme/widgets"))

	assert.Equal(t, 2, commitCount(t, database, "acme/widgets"))
	assert.Equal(t, "first", commitMessage(t, database, "abc123"))
}

func TestUpsertCommitsReplacesExistingRow(t *testing.T) {
	database := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, database.UpsertCommits(ctx,
		[]models.Commit{testCommit("abc123", "alice", "first", now)}, "acme/widgets"))
	require.NoError(t, database.UpsertCommits(ctx,
		[]models.Commit{testCommit("abc123", "alice", "amended", now.Add(time.Hour))}, "acme/widgets"))

	assert.Equal(t, 1, commitCount(t, database, "acme/widgets"))
	assert.Equal(t, "amended", commitMessage(t, database, "abc123"))
}

func TestUpsertsAreScopedPerRepository(t *testing.T) {
	database := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, database.UpsertCommits(ctx,
		[]models.Commit{testCommit("abc123", "alice", "upstream", now)}, "acme/widgets"))
	require.NoError(t, database.UpsertCommits(ctx,
		[]models.Commit{testCommit("def456", "bob", "fork", now)}, "acme-fork/widgets"))

	// Writing the fork again must not touch the upstream rows.
	require.NoError(t, database.UpsertCommits(ctx,
		[]models.Commit{testCommit("def456", "bob", "fork updated", now)}, "acme-fork/widgets"))

	assert.Equal(t, 1, commitCount(t, database, "acme/widgets"))
	assert.Equal(t, 1, commitCount(t, database, "acme-fork/widgets"))
	assert.Equal(t, "upstream", commitMessage(t, database, "abc123"))
	assert.Equal(t, "fork updated", commitMessage(t, database, "def456"))

	hasUpstream, err := database.HasSnapshot(ctx, "acme/widgets")
	require.NoError(t, err)
	assert.True(t, hasUpstream)
	hasOther, err := database.HasSnapshot(ctx, "acme/other")
	require.NoError(t, err)
	assert.False(t, hasOther)
}

func TestUpsertPullRequestsIdempotent(t *testing.T) {
	database := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	pr := models.PullRequest{
		ID:        42,
		Number:    7,
		State:     "open",
		Title:     "Add pagination",
		User:      &models.User{Login: "alice"},
		CreatedAt: now,
		UpdatedAt: now,
	}

	require.NoError(t, database.UpsertPullRequests(ctx, []models.PullRequest{pr}, "acme/widgets"))

	merged := now.Add(time.Hour)
	pr.State = "closed"
	pr.MergedAt = &merged
	pr.MergeCommitSHA = "abc123"
	require.NoError(t, database.UpsertPullRequests(ctx, []models.PullRequest{pr}, "acme/widgets"))

	var count int
	query := database.conn.Rebind(`SELECT COUNT(*) FROM github_pull_requests WHERE repo_name = ?`)
	require.NoError(t, database.conn.GetContext(ctx, &count, query, "acme/widgets"))
	assert.Equal(t, 1, count)

	var state string
	query = database.conn.Rebind(`SELECT state FROM github_pull_requests WHERE id = ?`)
	require.NoError(t, database.conn.GetContext(ctx, &state, query, int64(42)))
	assert.Equal(t, "closed", state)
}

func TestUpsertContributorsKeyedByRepoAndLogin(t *testing.T) {
	database := openTestStore(t)
	ctx := context.Background()

	alice := models.Contributor{Login: "alice", ID: 1, Contributions: 10, Type: "User"}

	// The same login contributes to both repositories; each gets its own row.
	require.NoError(t, database.UpsertContributors(ctx, []models.Contributor{alice}, "acme/widgets"))
	require.NoError(t, database.UpsertContributors(ctx, []models.Contributor{alice}, "acme-fork/widgets"))

	alice.Contributions = 25
	require.NoError(t, database.UpsertContributors(ctx, []models.Contributor{alice}, "acme/widgets"))

	var total int
	query := database.conn.Rebind(`SELECT COUNT(*) FROM github_contributors WHERE login = ?`)
	require.NoError(t, database.conn.GetContext(ctx, &total, query, "alice"))
	assert.Equal(t, 2, total)

	var contributions int64
	query = database.conn.Rebind(`SELECT contributions FROM github_contributors WHERE repo_name = ? AND login = ?`)
	require.NoError(t, database.conn.GetContext(ctx, &contributions, query, "acme/widgets", "alice"))
	assert.Equal(t, int64(25), contributions)

	require.NoError(t, database.conn.GetContext(ctx, &contributions, query, "acme-fork/widgets", "alice"))
	assert.Equal(t, int64(10), contributions)
}
