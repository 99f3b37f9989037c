package release

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/csrelease/internal/changelog"
	"github.com/ariel-frischer/csrelease/internal/github"
	"github.com/ariel-frischer/csrelease/internal/releasenote"
)

// monorepo is a pnpm workspace with a pending minor for "@acme/a" and a
// major for the private "b".
func monorepo(t *testing.T, extra map[string]string) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"package.json":               `{"name":"root","private":true}`,
		"pnpm-workspace.yaml":        "packages:\n  - 'packages/*'\n",
		"packages/a/package.json":    `{"name":"@acme/a","version":"1.0.0"}`,
		"packages/a/CHANGELOG.md":    "# @acme/a\n\n## 1.0.0\n\n### Major Changes\n\n- first\n",
		"packages/b/package.json":    `{"name":"b","version":"2.0.0","private":true}`,
		"packages/b/CHANGELOG.md":    "# b\n\n## 2.0.0\n\n### Major Changes\n\n- first\n",
		"packages/c/package.json":    `{"name":"c","version":"0.1.0"}`,
		".changeset/brave-cat.md":    "---\n\"@acme/a\": minor\n\"b\": major\n---\n\nChanges\n",
		".changeset/config.json":     "{}",
	}
	for k, v := range extra {
		files[k] = v
	}
	writeFiles(t, root, files)
	return root
}

type bump struct {
	name, version string
	private       bool

	// entry is the new changelog section; empty leaves the changelog alone.
	entry string
}

// bumpScript rewrites package.json and prepends a changelog entry for each
// package directory, the way `changeset version` does.
func bumpScript(bumps map[string]bump) func(dir, script string) (string, error) {
	return func(dir, script string) (string, error) {
		for rel, b := range bumps {
			pkg := fmt.Sprintf(`{"name":%q,"version":%q,"private":%t}`, b.name, b.version, b.private)
			if err := os.WriteFile(filepath.Join(dir, rel, "package.json"), []byte(pkg), 0o644); err != nil {
				return "", err
			}
			if b.entry == "" {
				continue
			}
			text := fmt.Sprintf("# %s\n\n## %s\n\n%s\n## 0.0.1\n\n- old\n", b.name, b.version, b.entry)
			if err := os.WriteFile(filepath.Join(dir, rel, changelog.FileName), []byte(text), 0o644); err != nil {
				return "", err
			}
		}
		return "", nil
	}
}

func TestService_Version_CreatesPullRequest(t *testing.T) {
	t.Parallel()
	root := monorepo(t, nil)
	vcs := &fakeVCS{}
	gh := &fakeGitHub{nextPR: 42}
	runner := &fakeRunner{RunFn: bumpScript(map[string]bump{
		"packages/a": {name: "@acme/a", version: "1.1.0", entry: "### Minor Changes\n\n- add a flag\n"},
		"packages/b": {name: "b", version: "3.0.0", private: true, entry: "### Major Changes\n\n- drop node 16\n"},
	})}
	svc := &Service{VCS: vcs, GitHub: gh, Runner: runner}

	result, err := svc.Version(context.Background(), VersionOptions{Cwd: root, Branch: "main"})
	require.NoError(t, err)

	assert.Equal(t, []string{"prepare", "push"}, vcs.calls)
	assert.Equal(t, []string{"changeset-release/main"}, vcs.branches)
	assert.Equal(t, []string{"Version Packages"}, vcs.messages)
	assert.Equal(t, []string{DefaultVersionScript}, runner.scripts)

	assert.Equal(t, 42, result.PullRequestNumber)
	assert.True(t, result.Created)
	assert.Equal(t, "changeset-release/main", result.VersionBranch)
	assert.Equal(t, releasenote.TierFull, result.Tier)

	require.Len(t, gh.created, 1)
	pr := gh.created[0]
	assert.Equal(t, "Version Packages", pr.Title)
	assert.Equal(t, "changeset-release/main", pr.Head)
	assert.Equal(t, "main", pr.Base)
	assert.Contains(t, pr.Body, "## @acme/a@1.1.0\n\n### Minor Changes\n\n- add a flag\n")
	assert.Contains(t, pr.Body, "## b@3.0.0\n\n### Major Changes\n\n- drop node 16\n")
	assert.NotContains(t, pr.Body, "## c@", "unchanged packages are left out")
	assert.NotContains(t, pr.Body, "0.0.1", "only the new version's section is used")
	assert.Less(t, bytes.Index([]byte(pr.Body), []byte("## @acme/a")), bytes.Index([]byte(pr.Body), []byte("## b@")),
		"public packages come before private ones")

	require.Len(t, result.Packages, 2)
	assert.Equal(t, "@acme/a", result.Packages[0].Name)
	assert.Equal(t, changelog.Minor, result.Packages[0].HighestLevel)
	assert.Equal(t, changelog.Major, result.Packages[1].HighestLevel)
}

func TestService_Version_PreModeUpdatesExistingPullRequest(t *testing.T) {
	t.Parallel()
	root := monorepo(t, map[string]string{
		".changeset/pre.json": `{"mode":"pre","tag":"beta","initialVersions":{},"changesets":[]}`,
	})
	vcs := &fakeVCS{}
	gh := &fakeGitHub{existing: []github.PullRequest{{Number: 5}, {Number: 9}}}
	runner := &fakeRunner{RunFn: bumpScript(map[string]bump{
		"packages/a": {name: "@acme/a", version: "1.1.0-beta.0", entry: "### Minor Changes\n\n- add a flag\n"},
	})}
	svc := &Service{VCS: vcs, GitHub: gh, Runner: runner}

	result, err := svc.Version(context.Background(), VersionOptions{
		Cwd:              root,
		Branch:           "next",
		Script:           "pnpm changeset version",
		CommitMessage:    "chore: release",
		HasPublishScript: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, result.PullRequestNumber)
	assert.False(t, result.Created)
	assert.Empty(t, gh.created)
	require.Contains(t, gh.updated, 5)
	updated := gh.updated[5]
	assert.Equal(t, "Version Packages (beta)", updated.Title)
	assert.Contains(t, updated.Body, "`next` is currently in **pre mode**")
	assert.Contains(t, updated.Body, "will be published automatically")
	assert.Equal(t, []string{"chore: release (beta)"}, vcs.messages)
	assert.Equal(t, []string{"pnpm changeset version"}, runner.scripts)
	assert.Equal(t, []string{"changeset-release/next"}, vcs.branches)
}

func TestService_Version_BodyDegradesWithinBudget(t *testing.T) {
	t.Parallel()
	root := monorepo(t, nil)
	var out bytes.Buffer
	gh := &fakeGitHub{nextPR: 1}
	runner := &fakeRunner{RunFn: bumpScript(map[string]bump{
		"packages/a": {name: "@acme/a", version: "1.1.0", entry: "### Minor Changes\n\n- add a flag\n"},
	})}
	svc := &Service{VCS: &fakeVCS{}, GitHub: gh, Runner: runner, Out: &out}

	result, err := svc.Version(context.Background(), VersionOptions{Cwd: root, Branch: "main", MaxCharacters: 10})
	require.NoError(t, err)

	assert.Equal(t, releasenote.TierOmitted, result.Tier)
	assert.Contains(t, gh.created[0].Body, "All release information have been omitted")
	assert.Contains(t, out.String(), "exceeds the size limit")
}

func TestService_Version_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		opts    func(root string) VersionOptions
		runner  *fakeRunner
		vcs     *fakeVCS
		wantErr string
	}{
		"missing base branch": {
			opts:    func(root string) VersionOptions { return VersionOptions{Cwd: root} },
			runner:  &fakeRunner{},
			vcs:     &fakeVCS{},
			wantErr: "base branch is required",
		},
		"version script fails": {
			opts: func(root string) VersionOptions { return VersionOptions{Cwd: root, Branch: "main"} },
			runner: &fakeRunner{RunFn: func(dir, script string) (string, error) {
				return "", fmt.Errorf("script %q exited with code 1", script)
			}},
			vcs:     &fakeVCS{},
			wantErr: "exited with code 1",
		},
		"changed package without changelog": {
			opts: func(root string) VersionOptions { return VersionOptions{Cwd: root, Branch: "main"} },
			runner: &fakeRunner{RunFn: bumpScript(map[string]bump{
				"packages/c": {name: "c", version: "0.2.0"},
			})},
			vcs:     &fakeVCS{},
			wantErr: "reading changelog for c@0.2.0",
		},
		"push fails": {
			opts:    func(root string) VersionOptions { return VersionOptions{Cwd: root, Branch: "main"} },
			runner:  &fakeRunner{},
			vcs:     &fakeVCS{pushErr: fmt.Errorf("remote rejected")},
			wantErr: "pushing changeset-release/main: remote rejected",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			root := monorepo(t, nil)
			svc := &Service{VCS: tt.vcs, GitHub: &fakeGitHub{}, Runner: tt.runner}

			_, err := svc.Version(context.Background(), tt.opts(root))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCollectPackageInfo_KeepsSlotsUnderConcurrency(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	bumps := make(map[string]bump)
	files := map[string]string{
		"package.json":        `{"name":"root","private":true}`,
		"pnpm-workspace.yaml": "packages:\n  - 'packages/*'\n",
	}
	for i := range 20 {
		rel := fmt.Sprintf("packages/p%02d", i)
		name := fmt.Sprintf("p%02d", i)
		files[rel+"/package.json"] = fmt.Sprintf(`{"name":%q,"version":"1.0.0"}`, name)
		bumps[rel] = bump{name: name, version: "1.0.1", entry: fmt.Sprintf("### Patch Changes\n\n- fix %s\n", name)}
	}
	writeFiles(t, root, files)
	writeFiles(t, root, map[string]string{".changeset/x.md": "---\n\"p00\": patch\n---\n\nfix\n"})

	gh := &fakeGitHub{nextPR: 1}
	runner := &fakeRunner{RunFn: bumpScript(bumps)}
	svc := &Service{VCS: &fakeVCS{}, GitHub: gh, Runner: runner}

	result, err := svc.Version(context.Background(), VersionOptions{Cwd: root, Branch: "main", Concurrency: 3})
	require.NoError(t, err)

	require.Len(t, result.Packages, 20)
	for i, info := range result.Packages {
		name := fmt.Sprintf("p%02d", i)
		assert.Equal(t, name, info.Name, "equal levels keep workspace order")
		assert.Equal(t, fmt.Sprintf("### Patch Changes\n\n- fix %s\n", name), info.Content)
	}
}

func TestVersionBranch(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "changeset-release/main", VersionBranch("", "main"))
	assert.Equal(t, "release/main", VersionBranch("release/", "main"))
}
