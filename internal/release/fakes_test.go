package release

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/csrelease/internal/git"
	"github.com/ariel-frischer/csrelease/internal/github"
)

var (
	_ VCS       = (*fakeVCS)(nil)
	_ GitHub    = (*fakeGitHub)(nil)
	_ Runner    = (*fakeRunner)(nil)
	_ Worktree  = (*fakeWorktree)(nil)
	_ CommitAPI = (*fakeCommitAPI)(nil)
)

type fakeVCS struct {
	mu       sync.Mutex
	calls    []string
	pushErr  error
	tagErr   error
	branches []string
	messages []string
	tags     []string
}

func (f *fakeVCS) PrepareBranch(branch string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "prepare")
	f.branches = append(f.branches, branch)
	return nil
}

func (f *fakeVCS) PushChanges(_ context.Context, branch, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "push")
	f.messages = append(f.messages, message)
	return f.pushErr
}

func (f *fakeVCS) PushTag(_ context.Context, tag string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "tag")
	f.tags = append(f.tags, tag)
	return f.tagErr
}

type fakeGitHub struct {
	mu       sync.Mutex
	existing []github.PullRequest
	created  []github.PullRequest
	updated  map[int]github.PullRequest
	releases []github.Release
	nextPR   int
}

func (f *fakeGitHub) ListOpenPullRequests(_ context.Context, head, base string) ([]github.PullRequest, error) {
	return f.existing, nil
}

func (f *fakeGitHub) CreatePullRequest(_ context.Context, pr github.PullRequest) (github.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pr.Number = f.nextPR
	f.created = append(f.created, pr)
	return pr, nil
}

func (f *fakeGitHub) UpdatePullRequest(_ context.Context, number int, pr github.PullRequest) (github.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updated == nil {
		f.updated = make(map[int]github.PullRequest)
	}
	pr.Number = number
	f.updated[number] = pr
	return pr, nil
}

func (f *fakeGitHub) CreateRelease(_ context.Context, r github.Release) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases = append(f.releases, r)
	return nil
}

// fakeRunner calls RunFn, which usually rewrites files in dir the way a
// version or publish script would.
type fakeRunner struct {
	RunFn   func(dir, script string) (string, error)
	scripts []string
}

func (f *fakeRunner) Run(_ context.Context, dir, script string) (string, error) {
	f.scripts = append(f.scripts, script)
	if f.RunFn == nil {
		return "", nil
	}
	return f.RunFn(dir, script)
}

type fakeWorktree struct {
	root    string
	changes []git.Change
}

func (f *fakeWorktree) Root() string { return f.root }
func (f *fakeWorktree) Changes() ([]git.Change, error) { return f.changes, nil }

type fakeCommitAPI struct {
	CommitFilesFn func(branch, baseSHA, message string, files []github.FileChange) (string, error)
	CreateTagFn   func(tag, sha string) error
}

func (f *fakeCommitAPI) CommitFiles(_ context.Context, branch, baseSHA, message string, files []github.FileChange) (string, error) {
	return f.CommitFilesFn(branch, baseSHA, message, files)
}

func (f *fakeCommitAPI) CreateTag(_ context.Context, tag, sha string) error {
	return f.CreateTagFn(tag, sha)
}

// writeFiles writes files relative to root.
func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}
