// Package changeset reads pending changeset files and the pre release state
// from a repository's .changeset directory.
package changeset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"

	"github.com/ariel-frischer/csrelease/internal/changelog"
)

// Dir is the directory holding changeset files, relative to the repository root.
const Dir = ".changeset"

const (
	preStateFile = "pre.json"
	readmeFile   = "README.md"

	// TypeNone marks a package that is listed without a version bump.
	TypeNone = "none"

	// ModePre is the pre.json mode while prereleases are being made.
	ModePre = "pre"
	// ModeExit is the pre.json mode after `changeset pre exit`.
	ModeExit = "exit"
)

// Release is a single package bump requested by a changeset.
type Release struct {
	Name string
	// Type is one of major, minor, patch or none.
	Type string
}

// Changeset is one pending .changeset/<id>.md file.
type Changeset struct {
	ID       string
	Summary  string
	Releases []Release
}

// PreState is the content of .changeset/pre.json.
type PreState struct {
	Mode            string            `json:"mode"`
	Tag             string            `json:"tag"`
	InitialVersions map[string]string `json:"initialVersions"`
	Changesets      []string          `json:"changesets"`
}

// State is the set of pending changesets and the active pre mode, if any.
type State struct {
	// PreState is nil unless the repository is in pre mode.
	PreState   *PreState
	Changesets []Changeset
}

// PlannedRelease is the combined bump for one package across all changesets.
type PlannedRelease struct {
	Name       string
	Type       string
	Changesets []string
}

// ReadState reads the changeset state of the repository at dir.
func ReadState(dir string) (*State, error) {
	return ReadStateFS(osfs.New(dir))
}

// ReadStateFS reads the changeset state from the repository root of fs.
// In pre mode, changesets already released as prereleases are left out.
func ReadStateFS(fs billy.Filesystem) (*State, error) {
	pre, err := readPreState(fs)
	if err != nil {
		return nil, err
	}

	changesets, err := readChangesets(fs)
	if err != nil {
		return nil, err
	}

	state := &State{Changesets: changesets}
	if pre != nil && pre.Mode == ModePre {
		state.PreState = pre
		consumed := make(map[string]bool, len(pre.Changesets))
		for _, id := range pre.Changesets {
			consumed[id] = true
		}
		state.Changesets = slices.DeleteFunc(state.Changesets, func(c Changeset) bool {
			return consumed[c.ID]
		})
	}
	return state, nil
}

// PreReleaseTag returns the pre mode tag, or "" outside pre mode.
func (s *State) PreReleaseTag() string {
	if s.PreState == nil {
		return ""
	}
	return s.PreState.Tag
}

// HasNonEmpty reports whether any changeset releases at least one package.
func (s *State) HasNonEmpty() bool {
	return slices.ContainsFunc(s.Changesets, func(c Changeset) bool {
		return len(c.Releases) > 0
	})
}

// PlannedReleases combines the releases of all changesets, keeping the
// highest bump type per package. Packages are returned in first-seen order.
func (s *State) PlannedReleases() []PlannedRelease {
	var planned []PlannedRelease
	index := make(map[string]int)
	for _, c := range s.Changesets {
		for _, r := range c.Releases {
			i, ok := index[r.Name]
			if !ok {
				index[r.Name] = len(planned)
				planned = append(planned, PlannedRelease{Name: r.Name, Type: r.Type, Changesets: []string{c.ID}})
				continue
			}
			p := &planned[i]
			p.Changesets = append(p.Changesets, c.ID)
			if typeRank(r.Type) > typeRank(p.Type) {
				p.Type = r.Type
			}
		}
	}
	return planned
}

// typeRank orders bump types with none below every release level.
func typeRank(t string) int {
	level, err := changelog.ParseLevel(t)
	if err != nil || t == TypeNone {
		return -1
	}
	return int(level)
}

func readPreState(fs billy.Filesystem) (*PreState, error) {
	p := path.Join(Dir, preStateFile)
	data, err := util.ReadFile(fs, p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	var pre PreState
	if err := json.Unmarshal(data, &pre); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", p, err)
	}
	return &pre, nil
}

func readChangesets(fs billy.Filesystem) ([]Changeset, error) {
	entries, err := fs.ReadDir(Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", Dir, err)
	}

	var changesets []Changeset
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || path.Ext(name) != ".md" || strings.EqualFold(name, readmeFile) {
			continue
		}
		p := path.Join(Dir, name)
		data, err := util.ReadFile(fs, p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		c, err := Parse(strings.TrimSuffix(name, ".md"), data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", p, err)
		}
		changesets = append(changesets, c)
	}
	slices.SortFunc(changesets, func(a, b Changeset) int { return strings.Compare(a.ID, b.ID) })
	return changesets, nil
}

var frontmatterDelim = []byte("---")

// Parse parses a changeset file: YAML frontmatter mapping package names to
// bump types, followed by a markdown summary.
func Parse(id string, data []byte) (Changeset, error) {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	rest, ok := bytes.CutPrefix(bytes.TrimLeft(data, " \t\n"), frontmatterDelim)
	if !ok {
		return Changeset{}, errors.New("missing frontmatter")
	}
	front, body, ok := cutFrontmatter(rest)
	if !ok {
		return Changeset{}, errors.New("unterminated frontmatter")
	}

	releases, err := parseReleases(front)
	if err != nil {
		return Changeset{}, err
	}
	return Changeset{
		ID:       id,
		Summary:  strings.TrimSpace(string(body)),
		Releases: releases,
	}, nil
}

// cutFrontmatter splits data after the opening delimiter at the closing "---" line.
func cutFrontmatter(data []byte) (front, body []byte, ok bool) {
	marker := append([]byte("\n"), frontmatterDelim...)
	i := bytes.Index(data, marker)
	if i < 0 {
		return nil, nil, false
	}
	return data[:i], data[i+len(marker):], true
}

// parseReleases decodes the frontmatter through a yaml.Node so releases keep
// their file order.
func parseReleases(front []byte) ([]Release, error) {
	if len(bytes.TrimSpace(front)) == 0 {
		return nil, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(front, &doc); err != nil {
		return nil, fmt.Errorf("invalid frontmatter: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	mapping := doc.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("frontmatter must map package names to bump types (line %d)", mapping.Line)
	}

	releases := make([]Release, 0, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, value := mapping.Content[i], mapping.Content[i+1]
		t := strings.TrimSpace(value.Value)
		if !validType(t) {
			return nil, fmt.Errorf("invalid bump type %q for %q (line %d)", value.Value, key.Value, value.Line)
		}
		releases = append(releases, Release{Name: key.Value, Type: t})
	}
	return releases, nil
}

func validType(t string) bool {
	switch t {
	case "major", "minor", "patch", TypeNone:
		return true
	}
	return false
}
