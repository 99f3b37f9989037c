package release

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ariel-frischer/csrelease/internal/git"
	"github.com/ariel-frischer/csrelease/internal/github"
	"github.com/ariel-frischer/csrelease/internal/output"
)

// VCS moves the version commit and release tags to the hosting remote.
type VCS interface {
	// PrepareBranch switches to branch, reset to the commit being released.
	PrepareBranch(branch string) error
	// PushChanges commits pending changes and force updates branch on the remote.
	PushChanges(ctx context.Context, branch, message string) error
	// PushTag publishes tag at the released commit.
	PushTag(ctx context.Context, tag string) error
}

// Repository is the local git plumbing GitVCS drives.
type Repository interface {
	PrepareBranch(branch, sha string) error
	PushChanges(ctx context.Context, branch, message string) error
	PushTag(ctx context.Context, tag string) error
}

// GitVCS commits and pushes with git.
type GitVCS struct {
	Repo Repository
	// SHA is the commit the version branch is reset to.
	SHA string
}

var _ VCS = (*GitVCS)(nil)

func (v *GitVCS) PrepareBranch(branch string) error {
	return v.Repo.PrepareBranch(branch, v.SHA)
}

func (v *GitVCS) PushChanges(ctx context.Context, branch, message string) error {
	return v.Repo.PushChanges(ctx, branch, message)
}

func (v *GitVCS) PushTag(ctx context.Context, tag string) error {
	return v.Repo.PushTag(ctx, tag)
}

// Worktree lists local changes for APIVCS.
type Worktree interface {
	Root() string
	Changes() ([]git.Change, error)
}

// CommitAPI creates commits and tags through the GitHub API.
type CommitAPI interface {
	CommitFiles(ctx context.Context, branch, baseSHA, message string, files []github.FileChange) (string, error)
	CreateTag(ctx context.Context, tag, sha string) error
}

// APIVCS commits through the GitHub API, so commits and tags are created
// by GitHub on behalf of the token. The local branch is never switched.
type APIVCS struct {
	Tree Worktree
	API  CommitAPI
	// SHA is the base commit of the version commit and the target of tags.
	SHA string
	// Dir limits uploaded changes to files below it.
	Dir string
	// Out receives warnings. Nil discards them.
	Out io.Writer
}

var _ VCS = (*APIVCS)(nil)

// PrepareBranch is a no-op: the branch is moved when changes are pushed.
func (v *APIVCS) PrepareBranch(branch string) error {
	logDebug("[release] api mode: not switching to %s locally", branch)
	return nil
}

// PushChanges uploads every changed file below Dir as a single commit on
// top of SHA and force moves branch to it.
func (v *APIVCS) PushChanges(ctx context.Context, branch, message string) error {
	changes, err := v.Tree.Changes()
	if err != nil {
		return err
	}
	prefix, err := v.relativeDir()
	if err != nil {
		return err
	}

	var files []github.FileChange
	for _, c := range changes {
		if prefix != "" && !strings.HasPrefix(c.Path, prefix+"/") {
			continue
		}
		file := github.FileChange{Path: c.Path, Deleted: c.Deleted}
		if !c.Deleted {
			abs := filepath.Join(v.Tree.Root(), filepath.FromSlash(c.Path))
			info, err := os.Stat(abs)
			if err != nil {
				return fmt.Errorf("reading %s: %w", c.Path, err)
			}
			file.Content, err = os.ReadFile(abs)
			if err != nil {
				return fmt.Errorf("reading %s: %w", c.Path, err)
			}
			file.Executable = info.Mode()&0o111 != 0
		}
		files = append(files, file)
	}

	_, err = v.API.CommitFiles(ctx, branch, v.SHA, message, files)
	return err
}

// PushTag creates the tag through the API. Failures are reported as
// warnings because publish scripts commonly push their own tags.
func (v *APIVCS) PushTag(ctx context.Context, tag string) error {
	if err := v.API.CreateTag(ctx, tag, v.SHA); err != nil && v.Out != nil {
		output.PrintWarning(v.Out, fmt.Sprintf("failed to create tag %s: %v", tag, err))
	}
	return nil
}

// relativeDir returns Dir relative to the worktree root in slash form, or ""
// when Dir is the root.
func (v *APIVCS) relativeDir() (string, error) {
	if v.Dir == "" {
		return "", nil
	}
	rel, err := filepath.Rel(v.Tree.Root(), v.Dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s against %s: %w", v.Dir, v.Tree.Root(), err)
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}
