// Package models defines the record shapes fetched from the GitHub REST API.
// Field tags match the v3 JSON wire format; the db package persists these
// shapes directly, keyed by repository full name plus natural identity.
package models

import "time"

// User is the minimal GitHub user reference embedded in other records.
type User struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
}

// CommitAuthor is the author/committer sub-object of a git commit.
// All fields may be absent for commits imported from outside GitHub.
type CommitAuthor struct {
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Date  *time.Time `json:"date"`
}

// CommitDetail is the nested "commit" object carrying git-level data.
type CommitDetail struct {
	Author       *CommitAuthor `json:"author"`
	Committer    *CommitAuthor `json:"committer"`
	Message      string        `json:"message"`
	URL          string        `json:"url"`
	CommentCount int64         `json:"comment_count"`
}

// Commit is one entry of the /repos/{owner}/{name}/commits listing.
// The committer date, not the author date, represents when the commit
// entered the hosted history.
type Commit struct {
	SHA         string       `json:"sha"`
	Commit      CommitDetail `json:"commit"`
	URL         string       `json:"url"`
	HTMLURL     string       `json:"html_url"`
	CommentsURL string       `json:"comments_url"`
	Author      *User        `json:"author"`
	Committer   *User        `json:"committer"`
}

// PullRequest is one entry of the /repos/{owner}/{name}/pulls listing.
// ID is globally unique across the host; Number only per repository.
type PullRequest struct {
	ID             int64      `json:"id"`
	Number         int64      `json:"number"`
	HTMLURL        string     `json:"html_url"`
	State          string     `json:"state"`
	Title          string     `json:"title"`
	User           *User      `json:"user"`
	Body           string     `json:"body"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ClosedAt       *time.Time `json:"closed_at"`
	MergedAt       *time.Time `json:"merged_at"`
	MergeCommitSHA string     `json:"merge_commit_sha"`
	MergedBy       *User      `json:"merged_by"`
}

// Label is a lightweight issue label.
type Label struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// Issue is one entry of the /repos/{owner}/{name}/issues listing. The
// endpoint may conflate pull requests with issues; records are stored as
// returned, in a table distinct from pull requests.
type Issue struct {
	ID        int64      `json:"id"`
	Number    int64      `json:"number"`
	HTMLURL   string     `json:"html_url"`
	State     string     `json:"state"`
	Title     string     `json:"title"`
	User      *User      `json:"user"`
	Labels    []Label    `json:"labels"`
	Assignee  *User      `json:"assignee"`
	Locked    bool       `json:"locked"`
	Comments  int64      `json:"comments"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at"`
	Body      string     `json:"body"`
}

// Contributor is one entry of the /repos/{owner}/{name}/contributors
// listing. Type distinguishes human users from bots.
type Contributor struct {
	Login         string `json:"login"`
	ID            int64  `json:"id"`
	Contributions int64  `json:"contributions"`
	Type          string `json:"type"`
	HTMLURL       string `json:"html_url"`
}
