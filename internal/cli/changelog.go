package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/csrelease/internal/changelog"
	clierrors "github.com/ariel-frischer/csrelease/internal/errors"
	"github.com/ariel-frischer/csrelease/internal/output"
)

var (
	extractPrettyFlag bool
	extractPlainFlag  bool
	extractStrictFlag bool
	extractLevelFlag  bool
)

var changelogCmd = &cobra.Command{
	Use:   "changelog",
	Short: "Read entries from a package changelog",
	Long: `Read entries from a CHANGELOG.md written by changesets.

A version entry is the content under the heading whose text is exactly the
version, up to the next heading of the same depth.`,
}

var changelogExtractCmd = &cobra.Command{
	Use:   "extract <changelog-path> <version>",
	Short: "Print the changelog entry for a version",
	Long: `Print the changelog entry for a version as markdown, suitable for
GitHub release notes.

Versions are matched exactly: 3.0.0 does not match a 3.0.0-beta.0 heading.
Without --strict, a changelog with no matching heading is printed whole
and a warning is written to stderr.`,
	Example: `  csrelease changelog extract packages/core/CHANGELOG.md 2.1.0
  csrelease changelog extract CHANGELOG.md 2.1.0 --strict
  csrelease changelog extract CHANGELOG.md 2.1.0 --level    # prints e.g. "minor"
  csrelease changelog extract CHANGELOG.md 2.1.0 --pretty --plain`,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChangelogExtract(cmd, args[0], args[1])
	},
}

var changelogVersionsCmd = &cobra.Command{
	Use:          "versions <changelog-path>",
	Short:        "List the versions with an entry in a changelog",
	Example:      `  csrelease changelog versions packages/core/CHANGELOG.md`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readChangelogFile(args[0])
		if err != nil {
			return err
		}
		for _, v := range changelog.Parse(text).ListVersions() {
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}
		return nil
	},
}

func init() {
	changelogCmd.GroupID = GroupInspect
	rootCmd.AddCommand(changelogCmd)
	changelogCmd.AddCommand(changelogExtractCmd, changelogVersionsCmd)

	changelogExtractCmd.Flags().BoolVar(&extractPrettyFlag, "pretty", false, "Format for the terminal with a release level badge")
	changelogExtractCmd.Flags().BoolVar(&extractPlainFlag, "plain", false, "Disable colors in --pretty output (implied when stdout is not a terminal)")
	changelogExtractCmd.Flags().BoolVar(&extractStrictFlag, "strict", false, "Fail when the version has no heading")
	changelogExtractCmd.Flags().BoolVar(&extractLevelFlag, "level", false, "Print only the highest release level of the entry")
}

func runChangelogExtract(cmd *cobra.Command, path, version string) error {
	if extractLevelFlag && extractPrettyFlag {
		return clierrors.InvalidFlagCombination("--level and --pretty", "--level prints only the release level")
	}
	text, err := readChangelogFile(path)
	if err != nil {
		return err
	}

	var section changelog.Section
	if extractStrictFlag {
		section, err = changelog.LookupVersionSection(text, version)
		if err != nil {
			var notFound *changelog.VersionNotFoundError
			if errors.As(err, &notFound) {
				return clierrors.VersionNotInChangelog(version, notFound.AvailableVersions)
			}
			return err
		}
	} else {
		section = changelog.ExtractVersionSection(text, version)
		if !section.Found && !extractPrettyFlag {
			output.PrintWarning(cmd.ErrOrStderr(), fmt.Sprintf("no %s heading in %s, printing the whole changelog", version, path))
		}
	}

	out := cmd.OutOrStdout()
	switch {
	case extractLevelFlag:
		fmt.Fprintln(out, section.HighestLevel)
		return nil
	case extractPrettyFlag:
		title := filepath.Base(filepath.Dir(path)) + " " + version
		return changelog.FormatSection(out, title, section, changelog.FormatOptions{Plain: extractPlainFlag || !output.IsTerminal(out)})
	default:
		_, err := fmt.Fprint(out, section.Content)
		return err
	}
}

func readChangelogFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", clierrors.ChangelogFileNotFound(path)
		}
		return "", fmt.Errorf("reading changelog: %w", err)
	}
	return string(data), nil
}
