package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/csrelease/internal/changeset"
	"github.com/ariel-frischer/csrelease/internal/output"
	"github.com/ariel-frischer/csrelease/internal/progress"
	"github.com/ariel-frischer/csrelease/internal/release"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Version or publish, whichever the repository needs",
	Long: `Run one release step for the current state of the repository.

  - Pending changesets: apply them on the version branch and open or
    update the release pull request.
  - No changesets and a publish script: publish unpublished packages and
    create GitHub releases for them.
  - Only empty changesets, or nothing to do: exit without changes.

Step outputs (published, publishedPackages, hasChangesets and
pullRequestNumber) are appended to $GITHUB_OUTPUT, or printed as
name=value lines when it is not set.`,
	Example: `  # In a workflow step
  csrelease run

  # Against a workspace in a subdirectory
  csrelease run --cwd js`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runRunCmd,
}

func init() {
	runCmd.GroupID = GroupRelease
	rootCmd.AddCommand(runCmd)
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	spin := progress.NewSpinner(cmd.ErrOrStderr(), progress.DetectTerminalCapabilities())
	spin.Start("Reading changesets")
	state, err := changeset.ReadState(cfg.Cwd)
	if err != nil {
		spin.Fail("Reading changesets failed")
		return err
	}
	spin.Success(fmt.Sprintf("Found %d changesets", len(state.Changesets)))

	action, reason := release.Decide(state, cfg.HasPublishScript())
	output.PrintInfo(cmd.ErrOrStderr(), reason)

	outputs := stepOutputs{
		{"published", "false"},
		{"publishedPackages", "[]"},
		{"hasChangesets", strconv.FormatBool(len(state.Changesets) > 0)},
	}

	switch action {
	case release.ActionPublish:
		svc, err := newReleaseService(cmd, cfg)
		if err != nil {
			return err
		}
		result, err := runPublish(cmd, cfg, svc)
		if err != nil {
			return err
		}
		if result.Published {
			packages, err := json.Marshal(result.Packages)
			if err != nil {
				return fmt.Errorf("encoding published packages: %w", err)
			}
			outputs.set("published", "true")
			outputs.set("publishedPackages", string(packages))
		}
	case release.ActionVersion:
		svc, err := newReleaseService(cmd, cfg)
		if err != nil {
			return err
		}
		result, err := runVersion(cmd, cfg, svc)
		if err != nil {
			return err
		}
		outputs = append(outputs, stepOutput{"pullRequestNumber", strconv.Itoa(result.PullRequestNumber)})
	}

	return writeStepOutputs(cmd.OutOrStdout(), cfg.GitHub.Output, outputs)
}
