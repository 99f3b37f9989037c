package changelog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrNoChangelog is returned when a package directory has no CHANGELOG.md.
// It usually means changelogs are disabled rather than that something broke.
var ErrNoChangelog = errors.New("no changelog file")

// semverPattern matches a bare semantic version heading such as "1.2.3-beta.1".
var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?$`)

// VersionNotFoundError is returned when a changelog has no heading for the requested version.
type VersionNotFoundError struct {
	Version           string
	AvailableVersions []string
}

func (e *VersionNotFoundError) Error() string {
	if len(e.AvailableVersions) == 0 {
		return fmt.Sprintf("version %q not found in changelog", e.Version)
	}
	return fmt.Sprintf("version %q not found (available: %s)",
		e.Version, strings.Join(e.AvailableVersions, ", "))
}

// IsVersionNotFound returns true if the error is a VersionNotFoundError.
func IsVersionNotFound(err error) bool {
	var nf *VersionNotFoundError
	return errors.As(err, &nf)
}

// LookupVersionSection is the strict form of ExtractVersionSection.
// It returns VersionNotFoundError instead of falling back to the whole document.
func LookupVersionSection(changelogText, version string) (Section, error) {
	doc := Parse(changelogText)
	section := doc.VersionSection(version)
	if !section.Found {
		return Section{}, &VersionNotFoundError{
			Version:           version,
			AvailableVersions: doc.ListVersions(),
		}
	}
	return section, nil
}

// ListVersions returns the headings that look like semantic versions,
// in the order they appear (newest first for changeset changelogs).
func (d *Document) ListVersions() []string {
	var versions []string
	for _, h := range d.Headings() {
		if IsVersionHeading(h.Text) {
			versions = append(versions, h.Text)
		}
	}
	return versions
}

// IsVersionHeading reports whether heading text is a semantic version,
// optionally prefixed with "v".
func IsVersionHeading(text string) bool {
	return semverPattern.MatchString(NormalizeVersion(text))
}

// NormalizeVersion normalizes a version string by removing the "v" prefix.
// This allows accepting both "v0.6.0" and "0.6.0" as input.
func NormalizeVersion(version string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(version)), "v")
}

// ReadChangelog reads the CHANGELOG.md in dir.
// A missing file yields an error matching both ErrNoChangelog and fs.ErrNotExist.
func ReadChangelog(dir string) (string, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s: %w", ErrNoChangelog, path, err)
		}
		return "", fmt.Errorf("reading changelog %s: %w", path, err)
	}
	return string(data), nil
}

// ReadSection reads dir/CHANGELOG.md and extracts the section for version.
func ReadSection(dir, version string) (Section, error) {
	text, err := ReadChangelog(dir)
	if err != nil {
		return Section{}, err
	}
	return ExtractVersionSection(text, version), nil
}
