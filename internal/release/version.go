// Package release runs the two phases of a changeset release: version, which
// applies pending changesets on a release branch and opens or updates the
// release pull request, and publish, which runs the publish script and turns
// its new tags into GitHub releases.
package release

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ariel-frischer/csrelease/internal/changelog"
	"github.com/ariel-frischer/csrelease/internal/changeset"
	"github.com/ariel-frischer/csrelease/internal/github"
	"github.com/ariel-frischer/csrelease/internal/output"
	"github.com/ariel-frischer/csrelease/internal/releasenote"
	"github.com/ariel-frischer/csrelease/internal/workspace"
)

var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for release runs.
// Pass nil to disable debug logging.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

const (
	// DefaultVersionScript applies pending changesets when no script is configured.
	DefaultVersionScript = "npx changeset version"
	// DefaultTitle is the pull request title and commit message.
	DefaultTitle = "Version Packages"
	// BranchPrefix prefixes the version branch name; the base branch follows it.
	BranchPrefix = "changeset-release/"
	// DefaultConcurrency bounds concurrent changelog reads and release creation.
	DefaultConcurrency = 8
)

// GitHub is the hosting API used by both phases.
type GitHub interface {
	ListOpenPullRequests(ctx context.Context, head, base string) ([]github.PullRequest, error)
	CreatePullRequest(ctx context.Context, pr github.PullRequest) (github.PullRequest, error)
	UpdatePullRequest(ctx context.Context, number int, pr github.PullRequest) (github.PullRequest, error)
	CreateRelease(ctx context.Context, r github.Release) error
}

// Service wires the collaborators of a release run.
type Service struct {
	VCS    VCS
	GitHub GitHub
	Runner Runner
	// Out receives progress lines. Nil discards them.
	Out io.Writer
}

// VersionOptions configures the version phase.
type VersionOptions struct {
	// Cwd is the workspace root.
	Cwd string
	// Script applies the changesets. Empty runs DefaultVersionScript.
	Script string
	// Title and CommitMessage default to DefaultTitle. In pre mode both get
	// the pre release tag appended.
	Title         string
	CommitMessage string
	// Branch is the base branch the pull request targets.
	Branch string
	// BranchPrefix overrides BranchPrefix.
	BranchPrefix     string
	HasPublishScript bool
	// MaxCharacters bounds the pull request body. Zero uses the composer default.
	MaxCharacters int
	Concurrency   int
}

// VersionResult describes the pull request a version run produced.
type VersionResult struct {
	PullRequestNumber int
	// Created is false when an open pull request was updated.
	Created       bool
	VersionBranch string
	Packages      []releasenote.PackageInfo
	Tier          releasenote.Tier
}

// VersionBranch returns the release branch for base.
func VersionBranch(prefix, base string) string {
	if prefix == "" {
		prefix = BranchPrefix
	}
	return prefix + base
}

// Version applies pending changesets on the version branch, pushes the result
// and opens or updates the release pull request.
func (s *Service) Version(ctx context.Context, opts VersionOptions) (*VersionResult, error) {
	if opts.Branch == "" {
		return nil, fmt.Errorf("base branch is required")
	}
	versionBranch := VersionBranch(opts.BranchPrefix, opts.Branch)

	state, err := changeset.ReadState(opts.Cwd)
	if err != nil {
		return nil, fmt.Errorf("reading changesets: %w", err)
	}
	preTag := state.PreReleaseTag()

	s.step("version", "Preparing "+versionBranch)
	if err := s.VCS.PrepareBranch(versionBranch); err != nil {
		return nil, fmt.Errorf("preparing %s: %w", versionBranch, err)
	}

	before, err := workspace.List(opts.Cwd)
	if err != nil {
		return nil, fmt.Errorf("listing packages: %w", err)
	}

	script := opts.Script
	if script == "" {
		script = DefaultVersionScript
	}
	s.step("version", "Versioning packages")
	if _, err := s.Runner.Run(ctx, opts.Cwd, script); err != nil {
		return nil, err
	}

	after, err := workspace.List(opts.Cwd)
	if err != nil {
		return nil, fmt.Errorf("listing packages after versioning: %w", err)
	}
	changed := after.Changed(before.VersionsByDir())
	logDebug("[release] %d packages changed version", len(changed))

	infos, err := collectPackageInfo(ctx, changed, opts.Concurrency)
	if err != nil {
		return nil, err
	}

	title := releasenote.Title(orDefault(opts.Title, DefaultTitle), preTag)
	commitMessage := releasenote.Title(orDefault(opts.CommitMessage, DefaultTitle), preTag)

	s.step("version", "Pushing "+versionBranch)
	if err := s.VCS.PushChanges(ctx, versionBranch, commitMessage); err != nil {
		return nil, fmt.Errorf("pushing %s: %w", versionBranch, err)
	}

	existing, err := s.GitHub.ListOpenPullRequests(ctx, versionBranch, opts.Branch)
	if err != nil {
		return nil, err
	}

	msg := releasenote.Compose(infos, releasenote.Options{
		HasPublishScript: opts.HasPublishScript,
		PreReleaseTag:    preTag,
		Branch:           opts.Branch,
		MaxCharacters:    opts.MaxCharacters,
	})
	if msg.Tier.Degraded() && s.Out != nil {
		output.PrintWarning(s.Out, fmt.Sprintf("pull request body exceeds the size limit, changelog content %s", degradedNote(msg.Tier)))
	}

	pr := github.PullRequest{Title: title, Body: msg.Body, Head: versionBranch, Base: opts.Branch}
	result := &VersionResult{VersionBranch: versionBranch, Packages: releasenote.Sorted(infos), Tier: msg.Tier}

	if len(existing) == 0 {
		s.step("version", "Creating pull request")
		created, err := s.GitHub.CreatePullRequest(ctx, pr)
		if err != nil {
			return nil, err
		}
		result.PullRequestNumber = created.Number
		result.Created = true
		return result, nil
	}

	number := existing[0].Number
	s.step("version", fmt.Sprintf("Updating pull request #%d", number))
	if _, err := s.GitHub.UpdatePullRequest(ctx, number, pr); err != nil {
		return nil, err
	}
	result.PullRequestNumber = number
	return result, nil
}

// collectPackageInfo reads the changelog of every changed package
// concurrently. Each result lands in its own slot, so input order survives
// until the composer sorts.
func collectPackageInfo(ctx context.Context, changed []workspace.Package, limit int) ([]releasenote.PackageInfo, error) {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	infos := make([]releasenote.PackageInfo, len(changed))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, pkg := range changed {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			section, err := changelog.ReadSection(pkg.Dir, pkg.Version)
			if err != nil {
				return fmt.Errorf("reading changelog for %s@%s: %w", pkg.Name, pkg.Version, err)
			}
			if !section.Found {
				logDebug("[release] no %s heading in %s changelog, using the whole file", pkg.Version, pkg.Name)
			}
			infos[i] = releasenote.NewPackageInfo(pkg.Name, pkg.Version, pkg.Dir, pkg.Private, section)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return infos, nil
}

func degradedNote(t releasenote.Tier) string {
	if t == releasenote.TierHeadersOnly {
		return "was omitted"
	}
	return "and package headers were omitted"
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func (s *Service) step(phase, message string) {
	if s.Out != nil {
		output.PrintStep(s.Out, phase, message)
	}
}
