package nix

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/alexisbeaulieu97/nixprofile/internal/execx"
	"github.com/alexisbeaulieu97/nixprofile/internal/nixexpr"
	nperrors "github.com/alexisbeaulieu97/nixprofile/pkg/errors"
)

// Resolves reports whether name is an attribute of the default nixpkgs
// collection. A nix evaluation failure means "no"; failing to run nix at all
// is an error.
func (c *Client) Resolves(ctx context.Context, name, inputsFrom string) (bool, error) {
	args := []string{"eval", "--raw"}
	if inputsFrom != "" {
		args = append(args, "--inputs-from", inputsFrom)
	}
	args = append(args, nixexpr.DefaultCollection+"#"+name+".type")

	res, err := execx.RunCaptured(c.command(ctx, args...))
	if err != nil {
		if execx.IsExitError(err) {
			c.Logger.WithFields(map[string]any{"package": name, "exit_code": res.ExitCode}).Warn("package not found in nixpkgs, installing it unqualified")
			return false, nil
		}
		return false, nperrors.NewResolutionError(name, err)
	}
	return true, nil
}

type flakeMetadata struct {
	LockedURL string `json:"lockedUrl"`
	URL       string `json:"url"`
}

// FlakeLockedURL resolves ref to a locked flake URL with `nix flake metadata`.
func (c *Client) FlakeLockedURL(ctx context.Context, ref string) (string, error) {
	res, err := execx.RunCaptured(c.command(ctx, "flake", "metadata", "--json", ref))
	if err != nil {
		if out := execx.PrimaryOutput(res); out != "" {
			err = fmt.Errorf("%w: %s", err, out)
		}
		return "", nperrors.NewResolutionError(ref, err)
	}

	var meta flakeMetadata
	if err := json.Unmarshal([]byte(res.Stdout), &meta); err != nil {
		return "", nperrors.NewResolutionError(ref, fmt.Errorf("decode flake metadata: %w", err))
	}

	locked := meta.LockedURL
	if locked == "" {
		locked = meta.URL
	}
	if locked == "" {
		return "", nperrors.NewResolutionError(ref, errors.New("flake metadata has no locked url"))
	}
	return locked, nil
}

// RepoLockedURL returns a locked flake URL for the git checkout containing
// dir. A clean checkout is pinned to its HEAD commit without calling nix.
// Anything else (dirty tree, no commits, not a repository) is delegated to
// `nix flake metadata`.
func (c *Client) RepoLockedURL(ctx context.Context, dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", nperrors.NewResolutionError(dir, err)
	}

	root, head, ok := cleanHead(abs)
	if ok {
		return fmt.Sprintf("git+file://%s?rev=%s", root, head), nil
	}

	c.Logger.WithFields(map[string]any{"dir": abs}).Debug("repository not pinnable from git, asking nix")
	return c.FlakeLockedURL(ctx, abs)
}

func cleanHead(dir string) (string, string, bool) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", "", false
	}

	head, err := repo.Head()
	if err != nil || head.Hash() == plumbing.ZeroHash {
		return "", "", false
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", "", false
	}

	status, err := wt.Status()
	if err != nil {
		return "", "", false
	}
	for _, fileStatus := range status {
		if !unchangedOrUntracked(fileStatus.Staging) || !unchangedOrUntracked(fileStatus.Worktree) {
			return "", "", false
		}
	}

	return wt.Filesystem.Root(), head.Hash().String(), true
}

// Nix ignores untracked files when deciding whether a git flake is dirty.
func unchangedOrUntracked(code git.StatusCode) bool {
	return code == git.Unmodified || code == git.Untracked
}

// System returns the platform double nix builds for, e.g. x86_64-linux.
func (c *Client) System(ctx context.Context) (string, error) {
	res, err := execx.RunCaptured(c.command(ctx, "eval", "--impure", "--raw", "--expr", "builtins.currentSystem"))
	if err != nil {
		return "", nperrors.NewResolutionError("builtins.currentSystem", err)
	}
	if res.Stdout == "" {
		return "", nperrors.NewResolutionError("builtins.currentSystem", errors.New("nix printed no system"))
	}
	return res.Stdout, nil
}
