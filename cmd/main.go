package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"repocompare/config"
	"repocompare/logger"
	"repocompare/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repocompare",
		Short: "Ingest GitHub activity for two repositories into a relational store",
		Long: "repocompare fetches commits, pull requests, issues, and contributors\n" +
			"for two comparable repositories over a rolling lookback window and\n" +
			"persists idempotent snapshots for later comparative analysis.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	flags := cmd.Flags()
	flags.String("db-driver", "sqlite", "database driver (sqlite or postgres)")
	flags.String("db-path", "repo_data.db", "database file path (sqlite) or DSN (postgres)")
	flags.String("github-token", "", "GitHub personal access token (optional, raises the rate limit)")
	flags.String("repo1", "https://github.com/bitcoin/bitcoin.git", "address of the first repository")
	flags.String("repo2", "https://github.com/bitcoinknots/bitcoin.git", "address of the second repository")
	flags.String("clone-dir", "./repo_clones", "directory for local repository clones")
	flags.Bool("force-fetch", false, "refetch even if the store already holds a snapshot")
	flags.Int("lookback-months", 12, "trailing window of history to fetch, in months")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	for key, flag := range map[string]string{
		"DB_DRIVER":       "db-driver",
		"DB_PATH":         "db-path",
		"GITHUB_TOKEN":    "github-token",
		"REPO1_PATH":      "repo1",
		"REPO2_PATH":      "repo2",
		"CLONE_DIR":       "clone-dir",
		"FORCE_FETCH":     "force-fetch",
		"LOOKBACK_MONTHS": "lookback-months",
		"LOG_LEVEL":       "log-level",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return err
	}
	defer logger.Sync()

	svc, err := service.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return svc.Run(ctx)
}
