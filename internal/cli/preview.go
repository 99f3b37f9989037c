package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	clierrors "github.com/ariel-frischer/csrelease/internal/errors"
	"github.com/ariel-frischer/csrelease/internal/output"
	"github.com/ariel-frischer/csrelease/internal/progress"
	"github.com/ariel-frischer/csrelease/internal/release"
)

var (
	previewMaxCharactersFlag int
	previewBranchFlag        string
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the release pull request body for the current versions",
	Long: `Compose the release pull request body as if every workspace package had
just been released at the version in its package.json, and print it.

Packages whose changelog has no entry for their current version are
skipped. Nothing is versioned, committed or sent to GitHub, so this is a
quick way to check how the body looks and whether it fits the size limit.`,
	Example: `  # Run after "npx changeset version" to see the pull request body
  csrelease preview

  # Check how the body degrades under a smaller limit
  csrelease preview --max-characters 2000`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runPreview,
}

func init() {
	previewCmd.GroupID = GroupInspect
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().IntVar(&previewMaxCharactersFlag, "max-characters", 0, "Body size limit (default: pr_body_max_characters)")
	previewCmd.Flags().StringVar(&previewBranchFlag, "branch", "", "Base branch named in the body (default: configured branch)")
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if previewMaxCharactersFlag < 0 {
		return clierrors.NewArgumentError("--max-characters must not be negative", "Omit the flag to use pr_body_max_characters")
	}

	maxCharacters := cfg.PRBodyMaxCharacters
	if previewMaxCharactersFlag > 0 {
		maxCharacters = previewMaxCharactersFlag
	}
	branch := previewBranchFlag
	if branch == "" {
		branch = cfg.BaseBranch()
	}
	if branch == "" {
		branch = "main"
	}

	spin := progress.NewSpinner(cmd.ErrOrStderr(), progress.DetectTerminalCapabilities())
	spin.Start("Reading changelogs")
	result, err := release.Preview(cmd.Context(), release.PreviewOptions{
		Cwd:              cfg.Cwd,
		Branch:           branch,
		HasPublishScript: cfg.HasPublishScript(),
		MaxCharacters:    maxCharacters,
		Concurrency:      cfg.Concurrency,
	})
	if err != nil {
		spin.Fail("Reading changelogs failed")
		return err
	}
	spin.Success(fmt.Sprintf("Read %d changelogs", len(result.Packages)))

	errOut := cmd.ErrOrStderr()
	if len(result.Skipped) > 0 {
		output.PrintInfo(errOut, "Skipped (no entry for the current version): "+strings.Join(result.Skipped, ", "))
	}
	if result.Message.Tier.Degraded() {
		output.PrintWarning(errOut, fmt.Sprintf("body exceeds %d characters, using the %s form", maxCharacters, result.Message.Tier))
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Message.Body)
	return nil
}
