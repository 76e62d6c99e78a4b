// Package db implements the transactional upsert store. One database, four
// shared tables, every row scoped by repository full name.
package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"repocompare/logger"
)

func init() {
	// modernc's driver is not in sqlx's built-in bindvar table.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// DB owns the persistent connection. Queries are written with `?`
// placeholders and rebound per driver, so the same SQL text serves both
// the embedded sqlite file and postgres.
type DB struct {
	conn *sqlx.DB
}

// New opens the database, applies driver-specific settings, and creates
// the schema idempotently inside its own transaction. Supported drivers
// are "sqlite" (dsn is a file path) and "postgres" (dsn is a DSN/URL).
func New(driver, dsn string) (*DB, error) {
	logger.Info("connecting to database", zap.String("driver", driver))
	conn, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseConnection, err)
	}

	database := &DB{conn: conn}

	if driver == "sqlite" {
		// Single writer; the connection is shared across all store calls.
		conn.SetMaxOpenConns(1)
		for _, pragma := range []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA foreign_keys=ON",
			"PRAGMA busy_timeout=5000",
		} {
			if _, err := conn.Exec(pragma); err != nil {
				conn.Close()
				return nil, fmt.Errorf("%w: %v", ErrDatabaseConnection, err)
			}
		}
	}

	if err := database.createTables(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info("database ready", zap.String("driver", driver))
	return database, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS github_commits (
	sha TEXT PRIMARY KEY,
	repo_name TEXT,
	author_login TEXT,
	committer_login TEXT,
	message TEXT,
	commit_timestamp TEXT,
	api_url TEXT
);

CREATE TABLE IF NOT EXISTS github_pull_requests (
	id BIGINT PRIMARY KEY,
	number BIGINT,
	repo_name TEXT,
	state TEXT,
	title TEXT,
	user_login TEXT,
	created_at TEXT,
	updated_at TEXT,
	closed_at TEXT,
	merged_at TEXT,
	merge_commit_sha TEXT,
	UNIQUE (repo_name, number)
);

CREATE TABLE IF NOT EXISTS github_issues (
	id BIGINT PRIMARY KEY,
	number BIGINT,
	repo_name TEXT,
	state TEXT,
	title TEXT,
	user_login TEXT,
	created_at TEXT,
	updated_at TEXT,
	closed_at TEXT,
	comments_count BIGINT,
	UNIQUE (repo_name, number)
);

CREATE TABLE IF NOT EXISTS github_contributors (
	repo_name TEXT,
	login TEXT,
	contributions BIGINT,
	contributor_type TEXT,
	id BIGINT,
	PRIMARY KEY (repo_name, login)
);
`

// createTables bootstraps the four tables. Re-running against an existing
// database is a no-op.
func (db *DB) createTables(ctx context.Context) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: failed to create tables: %v", ErrStorage, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	return nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
