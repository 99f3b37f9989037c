package release

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ariel-frischer/csrelease/internal/changelog"
	"github.com/ariel-frischer/csrelease/internal/github"
	"github.com/ariel-frischer/csrelease/internal/workspace"
)

var (
	// newTagPattern matches the "New tag:" lines changeset publish prints
	// for each package of a monorepo, scoped names included.
	newTagPattern = regexp.MustCompile(`New tag:\s+(@[^/]+\/[^@]+|[^/]+)@([^\s]+)`)
	// rootTagPattern only signals that the single root package was published.
	rootTagPattern = regexp.MustCompile(`New tag:`)
)

// PublishOptions configures the publish phase.
type PublishOptions struct {
	Cwd    string
	Script string
	// CreateGitHubReleases pushes a tag and creates a release per published package.
	CreateGitHubReleases bool
	Concurrency          int
}

// PublishedPackage is a package the publish script released.
type PublishedPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// PublishResult lists what the publish script released.
type PublishResult struct {
	Published bool
	Packages  []PublishedPackage
}

// Publish runs the publish script and, for every package it reports as
// tagged, pushes the tag and creates a GitHub release from the package's
// changelog entry.
func (s *Service) Publish(ctx context.Context, opts PublishOptions) (*PublishResult, error) {
	if strings.TrimSpace(opts.Script) == "" {
		return nil, fmt.Errorf("publish script is required")
	}

	s.step("publish", "Running publish script")
	stdout, err := s.Runner.Run(ctx, opts.Cwd, opts.Script)
	if err != nil {
		return nil, err
	}

	ws, err := workspace.List(opts.Cwd)
	if err != nil {
		return nil, fmt.Errorf("listing packages: %w", err)
	}

	released, tags, err := releasedPackages(ws, stdout)
	if err != nil {
		return nil, err
	}
	logDebug("[release] publish script released %d packages", len(released))

	if opts.CreateGitHubReleases && len(released) > 0 {
		if err := s.createReleases(ctx, released, tags, opts.Concurrency); err != nil {
			return nil, err
		}
	}

	result := &PublishResult{Published: len(released) > 0}
	for _, pkg := range released {
		result.Packages = append(result.Packages, PublishedPackage{Name: pkg.Name, Version: pkg.Version})
	}
	return result, nil
}

// releasedPackages maps publish output to packages and their tag names.
// Monorepo packages are tagged name@version; a single root package is
// tagged v<version>.
func releasedPackages(ws *workspace.Workspace, stdout string) ([]workspace.Package, []string, error) {
	lines := strings.Split(stdout, "\n")

	if ws.IsMonorepo() {
		var (
			released []workspace.Package
			tags     []string
		)
		for _, line := range lines {
			m := newTagPattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			pkg, ok := ws.Lookup(m[1])
			if !ok {
				return nil, nil, fmt.Errorf("package %q from publish output not found in the workspace", m[1])
			}
			released = append(released, pkg)
			tags = append(tags, pkg.Name+"@"+pkg.Version)
		}
		return released, tags, nil
	}

	if len(ws.Packages) == 0 {
		return nil, nil, errors.New("no package found in the workspace")
	}
	pkg := ws.Packages[0]
	for _, line := range lines {
		if rootTagPattern.MatchString(line) {
			return []workspace.Package{pkg}, []string{"v" + pkg.Version}, nil
		}
	}
	return nil, nil, nil
}

// createReleases pushes tags one at a time, since they share one local
// repository, then creates the releases concurrently.
func (s *Service) createReleases(ctx context.Context, packages []workspace.Package, tags []string, limit int) error {
	for _, tag := range tags {
		s.step("publish", "Pushing tag "+tag)
		if err := s.VCS.PushTag(ctx, tag); err != nil {
			return err
		}
	}

	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, pkg := range packages {
		g.Go(func() error {
			return s.createRelease(ctx, pkg, tags[i])
		})
	}
	return g.Wait()
}

// createRelease skips packages without a changelog, which usually means
// changelogs are disabled. A changelog without an entry for the released
// version is an error.
func (s *Service) createRelease(ctx context.Context, pkg workspace.Package, tag string) error {
	text, err := changelog.ReadChangelog(pkg.Dir)
	if err != nil {
		if errors.Is(err, changelog.ErrNoChangelog) {
			logDebug("[release] %s has no changelog, skipping release %s", pkg.Name, tag)
			return nil
		}
		return err
	}

	section, err := changelog.LookupVersionSection(text, pkg.Version)
	if err != nil {
		return &ChangelogEntryError{Package: pkg.Name, Version: pkg.Version, Err: err}
	}

	return s.GitHub.CreateRelease(ctx, github.Release{
		TagName:    tag,
		Name:       tag,
		Body:       section.Content,
		Prerelease: strings.Contains(pkg.Version, "-"),
	})
}
