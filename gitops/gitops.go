// Package gitops keeps a local working copy of each repository. The rest
// of the system consumes it through a single operation: give me a local
// path for repository X.
package gitops

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"repocompare/config"
	"repocompare/logger"
)

// ErrGit wraps failures of the underlying git CLI.
var ErrGit = fmt.Errorf("git operation error")

// Syncer clones repositories under a base directory and updates existing
// clones in place.
type Syncer struct {
	cloneDir string
}

func NewSyncer(cloneDir string) *Syncer {
	return &Syncer{cloneDir: cloneDir}
}

// Ensure clones the repository if no local copy exists, otherwise fetches
// all remotes with pruning and tags. It returns the local path.
func (s *Syncer) Ensure(ctx context.Context, repoAddress string) (string, error) {
	localPath := filepath.Join(s.cloneDir, localName(repoAddress))

	if err := os.MkdirAll(s.cloneDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrGit, err)
	}

	if _, err := os.Stat(localPath); err == nil {
		logger.Info("updating local clone", zap.String("path", localPath))
		if err := runGit(ctx, localPath, "fetch", "--all", "--prune", "--tags"); err != nil {
			return "", err
		}
		return localPath, nil
	}

	logger.Info("cloning repository",
		zap.String("address", repoAddress),
		zap.String("path", localPath))
	if err := runGit(ctx, "", "clone", cloneURL(repoAddress), localPath); err != nil {
		return "", err
	}
	return localPath, nil
}

func runGit(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: git %s: %v: %s", ErrGit, args[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

// localName derives the clone directory name from the owner and repository
// name, so forks sharing a repository name get distinct clones. Addresses
// that do not resolve fall back to their last segment.
func localName(repoAddress string) string {
	if owner, name, err := config.ParseRepoAddress(repoAddress); err == nil {
		return owner + "_" + name
	}
	name := repoAddress
	if i := strings.LastIndexAny(name, "/:"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, ".git")
	if name == "" {
		name = "unknown_repo"
	}
	return name
}

// cloneURL turns a bare owner/name address into a cloneable HTTPS URL;
// full URLs and scp-style addresses pass through untouched.
func cloneURL(repoAddress string) string {
	if strings.Contains(repoAddress, "://") || strings.Contains(repoAddress, ":") {
		return repoAddress
	}
	return "https://github.com/" + repoAddress + ".git"
}
