// Package gitutil provides helpers for working with Git repositories and
// GitHub URLs.
package gitutil

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Cloner checks out pull request head commits into temporary directories so
// full review mode can hand whole-file contents to the voices.
type Cloner struct {
	logger *slog.Logger
}

// NewCloner returns a new Cloner instance.
func NewCloner(logger *slog.Logger) *Cloner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cloner{logger: logger}
}

// CloneAtSHA clones a repository into a temporary directory and checks out
// the given commit. The returned cleanup function removes the directory.
func (c *Cloner) CloneAtSHA(ctx context.Context, repoURL, sha, token string) (string, func(), error) {
	authURL, err := authenticatedURL(repoURL, token)
	if err != nil {
		return "", nil, err
	}

	repoPath, err := os.MkdirTemp("", "firecircle-repo-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(repoPath); err != nil {
			c.logger.Warn("failed to remove temp clone", "path", repoPath, "error", err)
		}
	}

	c.logger.InfoContext(ctx, "cloning repository", "url", repoURL, "sha", sha, "path", repoPath)

	repo, err := git.PlainCloneContext(ctx, repoPath, false, &git.CloneOptions{
		URL: authURL,
	})
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to clone repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := worktree.Checkout(&git.CheckoutOptions{
		Hash:  plumbing.NewHash(sha),
		Force: true,
	}); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to checkout %s: %w", sha, err)
	}

	return repoPath, cleanup, nil
}

// ReadFiles reads the contents of the given relative paths from a checkout.
// Missing files (e.g. deleted by the PR) are skipped, not errors.
func (c *Cloner) ReadFiles(repoPath string, paths []string) map[string]string {
	contents := make(map[string]string, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(filepath.Join(repoPath, filepath.FromSlash(p)))
		if err != nil {
			c.logger.Debug("skipping unreadable file in checkout", "file", p, "error", err)
			continue
		}
		contents[p] = string(data)
	}
	return contents
}

// authenticatedURL injects an installation token into an HTTPS clone URL.
func authenticatedURL(repoURL, token string) (string, error) {
	if token == "" {
		return repoURL, nil
	}
	parsed, err := url.Parse(repoURL)
	if err != nil {
		return "", fmt.Errorf("invalid clone URL: %w", err)
	}
	if !strings.HasPrefix(parsed.Scheme, "http") {
		return repoURL, nil
	}
	parsed.User = url.UserPassword("x-access-token", token)
	return parsed.String(), nil
}
