// Package workspace enumerates the packages of a JavaScript repository
// (pnpm, yarn or npm workspaces, or a single root package) together with
// their versions.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"
)

// Tool identifies how the workspace declares its packages.
type Tool string

const (
	ToolPnpm Tool = "pnpm"
	ToolYarn Tool = "yarn"
	ToolNpm  Tool = "npm"
	// ToolRoot is a repository with a single package at its root.
	ToolRoot Tool = "root"
)

const (
	packageJSONFile   = "package.json"
	pnpmWorkspaceFile = "pnpm-workspace.yaml"
	yarnLockFile      = "yarn.lock"
)

// ErrNoPackageJSON is returned when the workspace root has no package.json.
var ErrNoPackageJSON = errors.New("no package.json in workspace root")

// Package is a single package of the workspace.
type Package struct {
	Name    string
	Version string
	// Dir is the package directory, joined to the workspace root.
	Dir     string
	Private bool
}

// Workspace is the set of packages found under a root directory.
type Workspace struct {
	Tool Tool
	Root Package
	// Packages holds the workspace packages sorted by directory.
	// For ToolRoot it holds only the root package.
	Packages []Package
}

type packageJSON struct {
	Name       string          `json:"name"`
	Version    string          `json:"version"`
	Private    bool            `json:"private"`
	Workspaces json.RawMessage `json:"workspaces"`
}

type pnpmWorkspace struct {
	Packages []string `yaml:"packages"`
}

// List reads the workspace rooted at dir.
func List(dir string) (*Workspace, error) {
	return ListFS(osfs.New(dir), dir)
}

// ListFS reads the workspace from fs. root is only used to build Package.Dir.
func ListFS(fs billy.Filesystem, root string) (*Workspace, error) {
	rootPkg, err := readPackageJSON(fs, ".")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoPackageJSON, root)
		}
		return nil, err
	}

	tool, patterns, err := detect(fs, rootPkg)
	if err != nil {
		return nil, err
	}

	ws := &Workspace{Tool: tool, Root: rootPkg.toPackage(root)}
	if tool == ToolRoot {
		ws.Packages = []Package{ws.Root}
		return ws, nil
	}

	dirs, err := expandPatterns(fs, patterns)
	if err != nil {
		return nil, fmt.Errorf("expanding %s workspace patterns: %w", tool, err)
	}
	for _, rel := range dirs {
		pkg, err := readPackageJSON(fs, rel)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		ws.Packages = append(ws.Packages, pkg.toPackage(filepath.Join(root, rel)))
	}
	return ws, nil
}

// VersionsByDir maps each package directory to its version.
func (w *Workspace) VersionsByDir() map[string]string {
	versions := make(map[string]string, len(w.Packages))
	for _, p := range w.Packages {
		versions[p.Dir] = p.Version
	}
	return versions
}

// Changed returns the packages whose version differs from before, keyed by
// directory. Packages whose directory did not exist before count as changed.
func (w *Workspace) Changed(before map[string]string) []Package {
	var changed []Package
	for _, p := range w.Packages {
		if prev, ok := before[p.Dir]; !ok || prev != p.Version {
			changed = append(changed, p)
		}
	}
	return changed
}

// Lookup finds a package by name.
func (w *Workspace) Lookup(name string) (Package, bool) {
	i := slices.IndexFunc(w.Packages, func(p Package) bool { return p.Name == name })
	if i < 0 {
		return Package{}, false
	}
	return w.Packages[i], true
}

// IsMonorepo reports whether packages are declared through workspaces.
func (w *Workspace) IsMonorepo() bool {
	return w.Tool != ToolRoot
}

func (p packageJSON) toPackage(dir string) Package {
	return Package{Name: p.Name, Version: p.Version, Dir: dir, Private: p.Private}
}

func detect(fs billy.Filesystem, rootPkg packageJSON) (Tool, []string, error) {
	data, err := util.ReadFile(fs, pnpmWorkspaceFile)
	switch {
	case err == nil:
		var cfg pnpmWorkspace
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return "", nil, fmt.Errorf("parsing %s: %w", pnpmWorkspaceFile, err)
		}
		return ToolPnpm, cfg.Packages, nil
	case !errors.Is(err, os.ErrNotExist):
		return "", nil, fmt.Errorf("reading %s: %w", pnpmWorkspaceFile, err)
	}

	patterns, err := parseWorkspaces(rootPkg.Workspaces)
	if err != nil {
		return "", nil, err
	}
	if len(patterns) == 0 {
		return ToolRoot, nil, nil
	}
	if _, err := fs.Stat(yarnLockFile); err == nil {
		return ToolYarn, patterns, nil
	}
	return ToolNpm, patterns, nil
}

// parseWorkspaces accepts both `"workspaces": [...]` and
// `"workspaces": {"packages": [...]}`.
func parseWorkspaces(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("parsing package.json workspaces: %w", err)
	}
	return obj.Packages, nil
}

func readPackageJSON(fs billy.Filesystem, dir string) (packageJSON, error) {
	path := fs.Join(dir, packageJSONFile)
	data, err := util.ReadFile(fs, path)
	if err != nil {
		return packageJSON{}, err
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return packageJSON{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return pkg, nil
}

// expandPatterns resolves workspace globs to directories. Patterns prefixed
// with "!" remove earlier matches. The result is sorted and deduplicated.
func expandPatterns(fs billy.Filesystem, patterns []string) ([]string, error) {
	var include, exclude []string
	for _, p := range patterns {
		if neg, ok := strings.CutPrefix(p, "!"); ok {
			exclude = append(exclude, cleanPattern(neg))
			continue
		}
		include = append(include, cleanPattern(p))
	}

	seen := make(map[string]bool)
	var dirs []string
	for _, pattern := range include {
		matches, err := globDirs(fs, pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if seen[m] || excluded(m, exclude) {
				continue
			}
			seen[m] = true
			dirs = append(dirs, m)
		}
	}
	slices.Sort(dirs)
	return dirs, nil
}

func cleanPattern(p string) string {
	return filepath.Clean(strings.TrimSpace(p))
}

func excluded(dir string, exclude []string) bool {
	for _, pattern := range exclude {
		if matchPath(strings.Split(pattern, "/"), strings.Split(dir, "/")) {
			return true
		}
	}
	return false
}

// globDirs returns directories matching pattern. "**" matches any number of
// path segments; node_modules is never entered.
func globDirs(fs billy.Filesystem, pattern string) ([]string, error) {
	if !strings.Contains(pattern, "**") {
		matches, err := util.Glob(fs, pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		return slices.DeleteFunc(matches, func(m string) bool { return !isDir(fs, m) }), nil
	}

	segments := strings.Split(pattern, "/")
	var matches []string
	err := util.Walk(fs, ".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if info.Name() == "node_modules" {
			return filepath.SkipDir
		}
		if path != "." && matchPath(segments, strings.Split(filepath.ToSlash(path), "/")) {
			matches = append(matches, filepath.ToSlash(path))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking for %q: %w", pattern, err)
	}
	return matches, nil
}

func isDir(fs billy.Filesystem, path string) bool {
	fi, err := fs.Stat(path)
	return err == nil && fi.IsDir()
}

// matchPath matches slash separated segments, treating "**" as zero or more segments.
func matchPath(pattern, path []string) bool {
	if len(pattern) == 0 {
		return len(path) == 0
	}
	if pattern[0] == "**" {
		for i := 0; i <= len(path); i++ {
			if matchPath(pattern[1:], path[i:]) {
				return true
			}
		}
		return false
	}
	if len(path) == 0 {
		return false
	}
	ok, err := filepath.Match(pattern[0], path[0])
	if err != nil || !ok {
		return false
	}
	return matchPath(pattern[1:], path[1:])
}
