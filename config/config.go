// Package config loads process configuration and resolves repository
// addresses into owner/name pairs.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Errors surfaced during configuration load.
var (
	ErrConfig             = fmt.Errorf("configuration error")
	ErrInvalidRepoAddress = fmt.Errorf("invalid repository address")
)

// Config is the immutable value object consumed by the service. The token
// is optional; without it requests run under the anonymous rate limit.
type Config struct {
	DBDriver       string
	DBPath         string
	GitHubToken    string
	Repo1Address   string
	Repo2Address   string
	CloneDir       string
	ForceFetch     bool
	LookbackMonths int
	LogLevel       string
}

// Load reads configuration from the environment (and any flags previously
// bound into viper) and validates it.
func Load() (*Config, error) {
	viper.SetDefault("DB_DRIVER", "sqlite")
	viper.SetDefault("DB_PATH", "repo_data.db")
	viper.SetDefault("REPO1_PATH", "https://github.com/bitcoin/bitcoin.git")
	viper.SetDefault("REPO2_PATH", "https://github.com/bitcoinknots/bitcoin.git")
	viper.SetDefault("CLONE_DIR", "./repo_clones")
	viper.SetDefault("LOOKBACK_MONTHS", 12)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.AutomaticEnv()

	cfg := &Config{
		DBDriver:       viper.GetString("DB_DRIVER"),
		DBPath:         viper.GetString("DB_PATH"),
		GitHubToken:    viper.GetString("GITHUB_TOKEN"),
		Repo1Address:   viper.GetString("REPO1_PATH"),
		Repo2Address:   viper.GetString("REPO2_PATH"),
		CloneDir:       viper.GetString("CLONE_DIR"),
		ForceFetch:     viper.GetBool("FORCE_FETCH"),
		LookbackMonths: viper.GetInt("LOOKBACK_MONTHS"),
		LogLevel:       viper.GetString("LOG_LEVEL"),
	}

	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "postgres" {
		return nil, fmt.Errorf("%w: unsupported DB_DRIVER %q", ErrConfig, cfg.DBDriver)
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("%w: DB_PATH cannot be empty", ErrConfig)
	}
	if cfg.LookbackMonths <= 0 {
		return nil, fmt.Errorf("%w: LOOKBACK_MONTHS must be positive", ErrConfig)
	}
	if _, _, err := ParseRepoAddress(cfg.Repo1Address); err != nil {
		return nil, err
	}
	if _, _, err := ParseRepoAddress(cfg.Repo2Address); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WindowStart returns the beginning of the rolling lookback window,
// measured from now in whole 30-day months.
func (c *Config) WindowStart(now time.Time) time.Time {
	return now.AddDate(0, 0, -30*c.LookbackMonths).UTC()
}
