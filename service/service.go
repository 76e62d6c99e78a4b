// Package service wires the configuration, store, API client, and git
// syncer into a single ingestion run over the two configured repositories.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"repocompare/config"
	"repocompare/db"
	"repocompare/fetcher"
	"repocompare/github"
	"repocompare/gitops"
	"repocompare/logger"
)

// The two repository pipelines share no mutable state; the store
// serializes writes through its per-batch transactions.
const pipelineConcurrency = 2

// SnapshotStore is the store surface the service needs beyond the fetcher
// pipeline.
type SnapshotStore interface {
	fetcher.Store
	HasSnapshot(ctx context.Context, repoFullName string) (bool, error)
	Close() error
}

// RepoSyncer provides a local working copy for a repository address.
type RepoSyncer interface {
	Ensure(ctx context.Context, repoAddress string) (string, error)
}

// Service is the ingestion orchestrator.
type Service struct {
	cfg      *config.Config
	database SnapshotStore
	client   fetcher.Client
	git      RepoSyncer
}

// New builds a service from loaded configuration: it opens the database
// (bootstrapping the schema) and constructs the API client with the
// configured credential.
func New(cfg *config.Config) (*Service, error) {
	database, err := db.New(cfg.DBDriver, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Service{
		cfg:      cfg,
		database: database,
		client:   github.NewClient(cfg.GitHubToken),
		git:      gitops.NewSyncer(cfg.CloneDir),
	}, nil
}

// Run executes both repository pipelines concurrently. Any classified
// failure aborts the run; the remaining pipeline is cancelled through the
// shared context.
func (s *Service) Run(ctx context.Context) error {
	since := s.cfg.WindowStart(time.Now())
	logger.Info("starting ingestion run",
		zap.Time("window_start", since),
		zap.Bool("force_fetch", s.cfg.ForceFetch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pipelineConcurrency)
	for _, address := range []string{s.cfg.Repo1Address, s.cfg.Repo2Address} {
		address := address
		g.Go(func() error {
			return s.processRepository(gctx, address, since)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("ingestion run completed")
	return nil
}

// processRepository handles one repository end to end: address resolution,
// local clone/update, then the sequential fetch-and-upsert pipeline.
func (s *Service) processRepository(ctx context.Context, address string, since time.Time) error {
	owner, name, err := config.ParseRepoAddress(address)
	if err != nil {
		return err
	}
	repoFullName := owner + "/" + name

	if !s.cfg.ForceFetch {
		has, err := s.database.HasSnapshot(ctx, repoFullName)
		if err != nil {
			return err
		}
		if has {
			logger.Info("snapshot already present, skipping (use force-fetch to refresh)",
				zap.String("repo", repoFullName))
			return nil
		}
	}

	localPath, err := s.git.Ensure(ctx, address)
	if err != nil {
		return fmt.Errorf("failed to sync local clone for %s: %w", repoFullName, err)
	}
	logger.Info("local clone ready",
		zap.String("repo", repoFullName),
		zap.String("path", localPath))

	return fetcher.FetchAndStore(ctx, s.database, s.client, owner, name, since)
}

// Close releases the store connection.
func (s *Service) Close() error {
	if err := s.database.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
