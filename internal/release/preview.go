package release

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ariel-frischer/csrelease/internal/changelog"
	"github.com/ariel-frischer/csrelease/internal/changeset"
	"github.com/ariel-frischer/csrelease/internal/releasenote"
	"github.com/ariel-frischer/csrelease/internal/workspace"
)

// PreviewOptions configures Preview.
type PreviewOptions struct {
	Cwd              string
	Branch           string
	HasPublishScript bool
	MaxCharacters    int
	Concurrency      int
}

// PreviewResult is a release pull request body composed from the current
// state of the workspace.
type PreviewResult struct {
	Message       releasenote.Message
	Packages      []releasenote.PackageInfo
	PreReleaseTag string
	// Skipped lists name@version of packages without a changelog entry for
	// their current version.
	Skipped []string
}

// Preview composes the release pull request body as if every workspace
// package had just been released at its current version. Packages without a
// changelog heading for that version are skipped. Nothing is versioned,
// committed or sent to GitHub.
func Preview(ctx context.Context, opts PreviewOptions) (*PreviewResult, error) {
	ws, err := workspace.List(opts.Cwd)
	if err != nil {
		return nil, fmt.Errorf("listing packages: %w", err)
	}
	state, err := changeset.ReadState(opts.Cwd)
	if err != nil {
		return nil, fmt.Errorf("reading changesets: %w", err)
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	infos := make([]*releasenote.PackageInfo, len(ws.Packages))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, pkg := range ws.Packages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text, err := changelog.ReadChangelog(pkg.Dir)
			if errors.Is(err, changelog.ErrNoChangelog) {
				return nil
			}
			if err != nil {
				return err
			}
			section, err := changelog.LookupVersionSection(text, pkg.Version)
			if changelog.IsVersionNotFound(err) {
				logDebug("[release] preview: %v in %s", err, pkg.Name)
				return nil
			}
			if err != nil {
				return err
			}
			info := releasenote.NewPackageInfo(pkg.Name, pkg.Version, pkg.Dir, pkg.Private, section)
			infos[i] = &info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &PreviewResult{PreReleaseTag: state.PreReleaseTag()}
	var found []releasenote.PackageInfo
	for i, info := range infos {
		if info == nil {
			pkg := ws.Packages[i]
			result.Skipped = append(result.Skipped, pkg.Name+"@"+pkg.Version)
			continue
		}
		found = append(found, *info)
	}

	result.Message = releasenote.Compose(found, releasenote.Options{
		HasPublishScript: opts.HasPublishScript,
		PreReleaseTag:    result.PreReleaseTag,
		Branch:           opts.Branch,
		MaxCharacters:    opts.MaxCharacters,
	})
	result.Packages = releasenote.Sorted(found)
	return result, nil
}
