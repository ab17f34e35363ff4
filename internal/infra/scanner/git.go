package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/google/uuid"
)

// Credentials authenticate a clone against a VCS instance.
type Credentials struct {
	Username string
	Token    string
}

// CloneRepository clones a repository into a fresh directory under workDir
// and returns the checkout path together with the HEAD commit. The caller
// removes the directory when done.
func CloneRepository(ctx context.Context, repoURL, workDir string, creds Credentials) (string, string, error) {
	dir := filepath.Join(workDir, "scan-"+uuid.New().String())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", "", fmt.Errorf("failed to create clone directory: %w", err)
	}

	opts := &git.CloneOptions{URL: repoURL}
	if creds.Token != "" {
		opts.Auth = &http.BasicAuth{
			Username: creds.Username,
			Password: creds.Token,
		}
	}

	repo, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", "", fmt.Errorf("git clone failed: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	return dir, head.Hash().String(), nil
}
