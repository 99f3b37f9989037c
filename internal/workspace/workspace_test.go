package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFS(t *testing.T, files map[string]string) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	for path, content := range files {
		require.NoError(t, util.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

func packageNames(ws *Workspace) []string {
	var names []string
	for _, p := range ws.Packages {
		names = append(names, p.Name)
	}
	return names
}

func TestListFS_Tools(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		files     map[string]string
		wantTool  Tool
		wantNames []string
	}{
		"pnpm workspace": {
			files: map[string]string{
				"package.json":             `{"name":"root","private":true}`,
				"pnpm-workspace.yaml":      "packages:\n  - 'packages/*'\n",
				"packages/a/package.json":  `{"name":"a","version":"1.0.0"}`,
				"packages/b/package.json":  `{"name":"b","version":"2.0.0","private":true}`,
				"packages/b/CHANGELOG.md":  "# b\n",
				"packages/not-a-package/x": "",
			},
			wantTool:  ToolPnpm,
			wantNames: []string{"a", "b"},
		},
		"yarn workspaces array": {
			files: map[string]string{
				"package.json":          `{"name":"root","private":true,"workspaces":["pkgs/*"]}`,
				"yarn.lock":             "",
				"pkgs/x/package.json":   `{"name":"x","version":"0.1.0"}`,
				"pkgs/y/package.json":   `{"name":"y","version":"0.2.0"}`,
				"other/z/package.json":  `{"name":"z","version":"0.3.0"}`,
				"pkgs/readme-only/a.md": "",
			},
			wantTool:  ToolYarn,
			wantNames: []string{"x", "y"},
		},
		"npm workspaces object": {
			files: map[string]string{
				"package.json":            `{"name":"root","workspaces":{"packages":["packages/*"]}}`,
				"packages/a/package.json": `{"name":"a","version":"1.0.0"}`,
			},
			wantTool:  ToolNpm,
			wantNames: []string{"a"},
		},
		"single package": {
			files: map[string]string{
				"package.json": `{"name":"solo","version":"3.1.4"}`,
			},
			wantTool:  ToolRoot,
			wantNames: []string{"solo"},
		},
		"exclusions": {
			files: map[string]string{
				"package.json":                     `{"name":"root","workspaces":["packages/*","!packages/internal-*"]}`,
				"packages/a/package.json":          `{"name":"a","version":"1.0.0"}`,
				"packages/internal-x/package.json": `{"name":"internal-x","version":"1.0.0"}`,
			},
			wantTool:  ToolNpm,
			wantNames: []string{"a"},
		},
		"double star": {
			files: map[string]string{
				"pnpm-workspace.yaml":                    "packages:\n  - 'apps/**'\n",
				"package.json":                           `{"name":"root"}`,
				"apps/web/package.json":                  `{"name":"web","version":"1.0.0"}`,
				"apps/tools/cli/package.json":            `{"name":"cli","version":"1.0.0"}`,
				"apps/web/node_modules/dep/package.json": `{"name":"dep","version":"9.9.9"}`,
			},
			wantTool:  ToolPnpm,
			wantNames: []string{"cli", "web"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ws, err := ListFS(newFS(t, tt.files), "/repo")
			require.NoError(t, err)
			assert.Equal(t, tt.wantTool, ws.Tool)
			assert.Equal(t, tt.wantNames, packageNames(ws))
		})
	}
}

func TestListFS_PackageFields(t *testing.T) {
	t.Parallel()
	fs := newFS(t, map[string]string{
		"package.json":            `{"name":"root","private":true,"workspaces":["packages/*"]}`,
		"packages/a/package.json": `{"name":"@scope/a","version":"1.2.3","private":true}`,
	})

	ws, err := ListFS(fs, "/repo")
	require.NoError(t, err)

	require.Len(t, ws.Packages, 1)
	assert.Equal(t, Package{
		Name:    "@scope/a",
		Version: "1.2.3",
		Dir:     filepath.Join("/repo", "packages", "a"),
		Private: true,
	}, ws.Packages[0])
	assert.Equal(t, "root", ws.Root.Name)
	assert.True(t, ws.IsMonorepo())
}

func TestListFS_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		files   map[string]string
		wantErr string
		is      error
	}{
		"missing root package.json": {
			files: map[string]string{"README.md": ""},
			is:    ErrNoPackageJSON,
		},
		"malformed package.json": {
			files:   map[string]string{"package.json": `{"name":`},
			wantErr: "parsing package.json",
		},
		"malformed pnpm workspace": {
			files: map[string]string{
				"package.json":        `{"name":"root"}`,
				"pnpm-workspace.yaml": "packages: [unclosed",
			},
			wantErr: "parsing pnpm-workspace.yaml",
		},
		"malformed workspaces field": {
			files:   map[string]string{"package.json": `{"name":"root","workspaces":42}`},
			wantErr: "parsing package.json workspaces",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ListFS(newFS(t, tt.files), "/repo")
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
			if tt.wantErr != "" {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestWorkspace_Changed(t *testing.T) {
	t.Parallel()
	ws := &Workspace{
		Tool: ToolPnpm,
		Packages: []Package{
			{Name: "a", Version: "1.0.1", Dir: "/r/a"},
			{Name: "b", Version: "2.0.0", Dir: "/r/b"},
			{Name: "c", Version: "0.1.0", Dir: "/r/c"},
		},
	}
	before := map[string]string{"/r/a": "1.0.0", "/r/b": "2.0.0"}

	changed := ws.Changed(before)

	require.Len(t, changed, 2)
	assert.Equal(t, "a", changed[0].Name)
	assert.Equal(t, "c", changed[1].Name)
	assert.Empty(t, ws.Changed(ws.VersionsByDir()))
}

func TestWorkspace_Lookup(t *testing.T) {
	t.Parallel()
	ws := &Workspace{Packages: []Package{{Name: "a"}, {Name: "@s/b", Version: "1.0.0"}}}

	pkg, ok := ws.Lookup("@s/b")
	assert.True(t, ok)
	assert.Equal(t, "1.0.0", pkg.Version)

	_, ok = ws.Lookup("missing")
	assert.False(t, ok)
}

func TestList_OnDisk(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	write("package.json", `{"name":"root","workspaces":["packages/*"]}`)
	write("yarn.lock", "")
	write("packages/one/package.json", `{"name":"one","version":"1.0.0"}`)

	ws, err := List(root)
	require.NoError(t, err)

	assert.Equal(t, ToolYarn, ws.Tool)
	require.Len(t, ws.Packages, 1)
	assert.Equal(t, filepath.Join(root, "packages", "one"), ws.Packages[0].Dir)
	assert.Equal(t, map[string]string{filepath.Join(root, "packages", "one"): "1.0.0"}, ws.VersionsByDir())
}

func TestMatchPath(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		pattern string
		path    string
		want    bool
	}{
		"single star":          {pattern: "packages/*", path: "packages/a", want: true},
		"single star too deep": {pattern: "packages/*", path: "packages/a/b", want: false},
		"double star deep":     {pattern: "packages/**", path: "packages/a/b", want: true},
		"double star middle":   {pattern: "apps/**/web", path: "apps/x/y/web", want: true},
		"double star zero":     {pattern: "apps/**/web", path: "apps/web", want: true},
		"prefix mismatch":      {pattern: "apps/*", path: "packages/a", want: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := matchPath(strings.Split(tt.pattern, "/"), strings.Split(tt.path, "/"))
			assert.Equal(t, tt.want, got)
		})
	}
}

