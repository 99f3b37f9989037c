package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/csrelease/internal/config"
	"github.com/ariel-frischer/csrelease/internal/github"
	"github.com/ariel-frischer/csrelease/internal/release"
)

// runnerVariables are cleared so a CI environment does not leak into tests.
var runnerVariables = []string{
	"GITHUB_TOKEN", "GITHUB_REPOSITORY", "GITHUB_REF", "GITHUB_SHA",
	"GITHUB_API_URL", "GITHUB_OUTPUT", "NPM_TOKEN",
}

// isolateEnv clears the runner variables and points HOME at a temp dir,
// which it returns.
func isolateEnv(t *testing.T) string {
	t.Helper()
	for _, name := range runnerVariables {
		t.Setenv(name, "")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func resetFlags() {
	cwdFlag, debugFlag, configFlag = "", false, ""
	extractPrettyFlag, extractPlainFlag, extractStrictFlag, extractLevelFlag = false, false, false, false
	previewMaxCharactersFlag, previewBranchFlag = 0, ""
	configInitForceFlag = false
}

// executeCommand runs the root command with args and returns what it wrote.
func executeCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// npmWorkspace is a workspace with a released "a" and a "b" without a changelog.
func npmWorkspace(t *testing.T, extra map[string]string) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"package.json":            `{"name":"root","private":true,"workspaces":["packages/*"]}`,
		"packages/a/package.json": `{"name":"a","version":"1.0.0"}`,
		"packages/a/CHANGELOG.md": "# a\n\n## 1.0.0\n\n### Major Changes\n\n- first release\n",
		"packages/b/package.json": `{"name":"b","version":"0.1.0"}`,
	}
	for k, v := range extra {
		files[k] = v
	}
	writeFiles(t, root, files)
	return root
}

// useService makes release commands use svc instead of real git and GitHub.
func useService(t *testing.T, svc *release.Service) {
	t.Helper()
	newReleaseService = func(*cobra.Command, *config.Configuration) (*release.Service, error) {
		return svc, nil
	}
	t.Cleanup(func() { newReleaseService = defaultReleaseService })
}

type fakeVCS struct {
	branches []string
	messages []string
	tags     []string
}

func (f *fakeVCS) PrepareBranch(branch string) error {
	f.branches = append(f.branches, branch)
	return nil
}

func (f *fakeVCS) PushChanges(_ context.Context, branch, message string) error {
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeVCS) PushTag(_ context.Context, tag string) error {
	f.tags = append(f.tags, tag)
	return nil
}

type fakeGitHub struct {
	mu       sync.Mutex
	created  []github.PullRequest
	releases []github.Release
}

func (f *fakeGitHub) ListOpenPullRequests(context.Context, string, string) ([]github.PullRequest, error) {
	return nil, nil
}

func (f *fakeGitHub) CreatePullRequest(_ context.Context, pr github.PullRequest) (github.PullRequest, error) {
	pr.Number = 7
	f.created = append(f.created, pr)
	return pr, nil
}

func (f *fakeGitHub) UpdatePullRequest(_ context.Context, number int, pr github.PullRequest) (github.PullRequest, error) {
	pr.Number = number
	return pr, nil
}

func (f *fakeGitHub) CreateRelease(_ context.Context, r github.Release) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases = append(f.releases, r)
	return nil
}

type fakeRunner struct {
	scripts []string
	RunFn   func(dir, script string) (string, error)
}

func (f *fakeRunner) Run(_ context.Context, dir, script string) (string, error) {
	f.scripts = append(f.scripts, script)
	if f.RunFn == nil {
		return "", nil
	}
	return f.RunFn(dir, script)
}
