package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/csrelease/internal/output"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Open or update the release pull request",
	Long: `Apply pending changesets on the version branch and open or update the
release pull request, regardless of the changeset state.

The version script defaults to "npx changeset version". The pull request
body lists every package whose version changed, public packages first,
and is shortened when it exceeds pr_body_max_characters.`,
	Example: `  csrelease version
  CSRELEASE_VERSION="pnpm changeset version" csrelease version`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		svc, err := newReleaseService(cmd, cfg)
		if err != nil {
			return err
		}
		result, err := runVersion(cmd, cfg, svc)
		if err != nil {
			return err
		}

		verb := "Updated"
		if result.Created {
			verb = "Created"
		}
		output.PrintSuccess(cmd.ErrOrStderr(), fmt.Sprintf("%s pull request #%d from %s (%d packages)",
			verb, result.PullRequestNumber, result.VersionBranch, len(result.Packages)))
		return nil
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Run the publish script and create GitHub releases",
	Long: `Run the publish script and create a GitHub release for every package it
reports as published ("New tag:" lines in its output).

The release body is the package's changelog entry for the published
version. Packages without a changelog are skipped; a changelog without an
entry for the version fails the run.`,
	Example: `  CSRELEASE_PUBLISH="pnpm release" csrelease publish`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		svc, err := newReleaseService(cmd, cfg)
		if err != nil {
			return err
		}
		result, err := runPublish(cmd, cfg, svc)
		if err != nil {
			return err
		}

		if !result.Published {
			output.PrintInfo(cmd.ErrOrStderr(), "No packages were published")
			return nil
		}
		for _, pkg := range result.Packages {
			fmt.Fprintf(cmd.OutOrStdout(), "%s@%s\n", pkg.Name, pkg.Version)
		}
		return nil
	},
}

func init() {
	versionCmd.GroupID = GroupRelease
	publishCmd.GroupID = GroupRelease
	rootCmd.AddCommand(versionCmd, publishCmd)
}
