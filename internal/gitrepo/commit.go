package gitrepo

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// CommitPaths stages paths (files under dir) and commits them with message.
// It returns committed=false when dir is not in a repository or nothing
// changed.
func CommitPaths(ctx context.Context, dir string, paths []string, message string) (committed bool, err error) {
	dir = filepath.Clean(dir)
	if _, ok, err := FindGitDir(dir); err != nil || !ok {
		return false, err
	}
	busy, err := InProgress(dir)
	if err != nil {
		return false, err
	}
	if busy {
		return false, ErrInProgress
	}
	if len(paths) == 0 {
		return false, nil
	}

	args := []string{"add", "--"}
	for _, p := range paths {
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return false, err
		}
		args = append(args, rel)
	}
	if _, err := runGit(ctx, dir, args...); err != nil {
		return false, err
	}

	staged, err := runGit(ctx, dir, "diff", "--cached", "--name-only")
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(staged) == "" {
		return false, nil
	}

	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = fmt.Sprintf("corkboard: publish (%s)", time.Now().UTC().Format(time.RFC3339))
	}
	if _, err := runGit(ctx, dir, "commit", "-m", msg); err != nil {
		return false, err
	}
	return true, nil
}

// Head returns the abbreviated commit hash at HEAD.
func Head(ctx context.Context, dir string) (string, error) {
	out, err := runGit(ctx, dir, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
