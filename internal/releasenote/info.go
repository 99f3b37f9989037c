// Package releasenote composes the body of a release pull request from the
// changelog sections of every package in a release.
package releasenote

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/ariel-frischer/csrelease/internal/changelog"
)

// PackageInfo is the release information for one changed package.
type PackageInfo struct {
	Name         string
	Version      string
	Dir          string
	Private      bool
	HighestLevel changelog.Level
	// Header is the markdown heading line for the package, e.g. "## pkg@1.2.0".
	Header string
	// Content is the changelog section for Version.
	Content string
}

// NewPackageInfo builds the release information for a package from its
// extracted changelog section.
func NewPackageInfo(name, version, dir string, private bool, s changelog.Section) PackageInfo {
	return PackageInfo{
		Name:         name,
		Version:      version,
		Dir:          dir,
		Private:      private,
		HighestLevel: s.HighestLevel,
		Header:       Header(name, version),
		Content:      s.Content,
	}
}

// Header returns the heading line used for a package in release notes.
func Header(name, version string) string {
	return fmt.Sprintf("## %s@%s", name, version)
}

// Compare orders public packages before private ones and, within the same
// visibility, higher release levels first. Other fields are ignored.
func Compare(a, b PackageInfo) int {
	if a.Private != b.Private {
		if a.Private {
			return 1
		}
		return -1
	}
	return cmp.Compare(b.HighestLevel, a.HighestLevel)
}

// Sort orders packages in place by Compare. Equal packages keep their input order.
func Sort(packages []PackageInfo) {
	slices.SortStableFunc(packages, Compare)
}

// Sorted returns a sorted copy of packages.
func Sorted(packages []PackageInfo) []PackageInfo {
	sorted := slices.Clone(packages)
	Sort(sorted)
	return sorted
}
