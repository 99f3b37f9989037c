package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/csrelease/internal/config"
	"github.com/ariel-frischer/csrelease/internal/credentials"
	clierrors "github.com/ariel-frischer/csrelease/internal/errors"
	"github.com/ariel-frischer/csrelease/internal/git"
	"github.com/ariel-frischer/csrelease/internal/github"
	"github.com/ariel-frischer/csrelease/internal/release"
)

// newReleaseService builds the collaborators of a release run. Tests swap it
// for one returning fakes.
var newReleaseService = defaultReleaseService

// defaultReleaseService opens the repository, prepares git credentials and
// connects to GitHub.
func defaultReleaseService(cmd *cobra.Command, cfg *config.Configuration) (*release.Service, error) {
	if cfg.GitHub.Token == "" {
		return nil, clierrors.NewMissingTokenError()
	}
	if cfg.GitHub.Repository == "" {
		return nil, clierrors.MissingRepository()
	}

	repo, err := git.Open(cfg.Cwd, git.WithToken(cfg.GitHub.Token))
	if err != nil {
		if errors.Is(err, git.ErrNotRepository) {
			return nil, clierrors.GitNotRepository()
		}
		return nil, err
	}
	if cfg.SetupGitUser {
		if err := repo.SetupUser(git.DefaultUserName, git.DefaultUserEmail); err != nil {
			return nil, err
		}
	}
	if cfg.Home != "" {
		if err := credentials.WriteNetrc(cfg.Home, cfg.GitHub.Token); err != nil {
			return nil, err
		}
	}

	var opts []github.Option
	if cfg.GitHub.APIURL != "" {
		opts = append(opts, github.WithBaseURL(cfg.GitHub.APIURL))
	}
	client, err := github.NewClient(cfg.GitHub.Token, cfg.GitHub.Repository, opts...)
	if err != nil {
		return nil, clierrors.WrapWithMessage(err, clierrors.Configuration, "invalid GITHUB_REPOSITORY",
			"Set it to owner/name, e.g. export GITHUB_REPOSITORY=acme/widgets")
	}

	sha := cfg.GitHub.SHA
	if sha == "" {
		if sha, err = repo.HeadSHA(); err != nil {
			return nil, fmt.Errorf("resolving HEAD: %w", err)
		}
	}

	var vcs release.VCS = &release.GitVCS{Repo: repo, SHA: sha}
	if cfg.API == config.APIGitHub {
		vcs = &release.APIVCS{Tree: repo, API: client, SHA: sha, Dir: cfg.Cwd, Out: cmd.ErrOrStderr()}
	}

	return &release.Service{
		VCS:    vcs,
		GitHub: client,
		Runner: &release.ScriptRunner{Stdout: cmd.ErrOrStderr(), Stderr: cmd.ErrOrStderr()},
		Out:    cmd.ErrOrStderr(),
	}, nil
}

// versionOptions maps configuration onto the version phase.
func versionOptions(cfg *config.Configuration) release.VersionOptions {
	return release.VersionOptions{
		Cwd:              cfg.Cwd,
		Script:           cfg.Version,
		Title:            cfg.Title,
		CommitMessage:    cfg.Commit,
		Branch:           cfg.BaseBranch(),
		BranchPrefix:     cfg.BranchPrefix,
		HasPublishScript: cfg.HasPublishScript(),
		MaxCharacters:    cfg.PRBodyMaxCharacters,
		Concurrency:      cfg.Concurrency,
	}
}

// publishOptions maps configuration onto the publish phase.
func publishOptions(cfg *config.Configuration) release.PublishOptions {
	return release.PublishOptions{
		Cwd:                  cfg.Cwd,
		Script:               cfg.Publish,
		CreateGitHubReleases: cfg.CreateGitHubReleases,
		Concurrency:          cfg.Concurrency,
	}
}

// runVersion runs the version phase with the configured collaborators.
func runVersion(cmd *cobra.Command, cfg *config.Configuration, svc *release.Service) (*release.VersionResult, error) {
	if cfg.BaseBranch() == "" {
		return nil, clierrors.MissingBaseBranch()
	}
	result, err := svc.Version(cmd.Context(), versionOptions(cfg))
	if err != nil {
		return nil, versionError(err)
	}
	return result, nil
}

// runPublish writes the npm credentials and runs the publish phase.
func runPublish(cmd *cobra.Command, cfg *config.Configuration, svc *release.Service) (*release.PublishResult, error) {
	if !cfg.HasPublishScript() {
		return nil, clierrors.MissingPublishScript()
	}
	if cfg.Home != "" {
		if _, err := credentials.EnsureNpmrc(cfg.Home, cfg.NpmToken, cmd.ErrOrStderr()); err != nil {
			return nil, err
		}
	}
	result, err := svc.Publish(cmd.Context(), publishOptions(cfg))
	if err != nil {
		return nil, publishError(err)
	}
	return result, nil
}

func versionError(err error) error {
	var scriptErr *release.ScriptError
	if errors.As(err, &scriptErr) {
		return clierrors.ScriptFailed("version", err)
	}
	return err
}

func publishError(err error) error {
	var scriptErr *release.ScriptError
	if errors.As(err, &scriptErr) {
		return clierrors.ScriptFailed("publish", err)
	}
	var entryErr *release.ChangelogEntryError
	if errors.As(err, &entryErr) {
		return clierrors.NewChangelogEntryError(entryErr.Package, entryErr.Version, entryErr.Err)
	}
	return err
}
