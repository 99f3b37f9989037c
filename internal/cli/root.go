// Package cli implements the csrelease command line: the `run` entry point a
// release workflow calls, the individual version and publish phases, and
// commands to inspect changelogs, release notes and configuration locally.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/csrelease/internal/build"
	"github.com/ariel-frischer/csrelease/internal/changelog"
	"github.com/ariel-frischer/csrelease/internal/config"
	clierrors "github.com/ariel-frischer/csrelease/internal/errors"
	"github.com/ariel-frischer/csrelease/internal/git"
	"github.com/ariel-frischer/csrelease/internal/github"
	"github.com/ariel-frischer/csrelease/internal/release"
)

// Command groups shown in help output
const (
	GroupRelease       = "release"
	GroupInspect       = "inspect"
	GroupConfiguration = "configuration"
)

var (
	cwdFlag    string
	debugFlag  bool
	configFlag string
)

var rootCmd = &cobra.Command{
	Use:   "csrelease",
	Short: "Version and publish packages from changesets",
	Long: `csrelease automates changeset based releases.

On every push to the base branch it either opens (or updates) a
"Version Packages" pull request with the pending changesets applied, or,
once that pull request is merged, runs the publish script and creates a
GitHub release for every package that was published.

Configuration is read from .csrelease/config.yml, CSRELEASE_* environment
variables and the GitHub Actions runner environment.`,
	Example: `  # Version or publish, whichever the repository needs
  csrelease run

  # Preview the release pull request body
  csrelease preview

  # Release notes for one version of a package
  csrelease changelog extract packages/core/CHANGELOG.md 2.1.0`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugFlag {
			enableDebugLogging(cmd.ErrOrStderr())
		}
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupRelease, Title: "Release Commands:"},
		&cobra.Group{ID: GroupInspect, Title: "Inspection Commands:"},
		&cobra.Group{ID: GroupConfiguration, Title: "Configuration Commands:"},
	)

	rootCmd.Version = build.Version
	rootCmd.SetVersionTemplate(build.Info() + "\n")

	rootCmd.PersistentFlags().StringVar(&cwdFlag, "cwd", "", "Project directory (default: current directory)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Print debug logs to stderr")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file path (default: .csrelease/config.yml)")
}

// Execute runs the root command and reports any error on stderr.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		reportError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

// reportError prints err unless the command already reported it.
func reportError(w io.Writer, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		clierrors.FprintError(w, cliErr)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

func enableDebugLogging(w io.Writer) {
	logger := func(format string, args ...any) {
		fmt.Fprintf(w, "[DEBUG] "+format+"\n", args...)
	}
	git.SetDebugLogger(logger)
	github.SetDebugLogger(logger)
	release.SetDebugLogger(logger)
	changelog.SetDebugLogger(logger)
}

// projectDir is the --cwd flag or the current directory.
func projectDir() (string, error) {
	if cwdFlag != "" {
		return cwdFlag, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return dir, nil
}

// loadConfig loads the configuration for the project directory.
func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	dir, err := projectDir()
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, clierrors.DirectoryNotFound(dir)
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ProjectDir:    dir,
		ConfigPath:    configFlag,
		WarningWriter: cmd.ErrOrStderr(),
	})
	if err != nil {
		path := configFlag
		if path == "" {
			path = config.ProjectConfigPath(dir)
		}
		return nil, clierrors.ConfigParseError(path, err)
	}
	if info, err := os.Stat(cfg.Cwd); err != nil || !info.IsDir() {
		return nil, clierrors.DirectoryNotFound(cfg.Cwd)
	}
	return cfg, nil
}
