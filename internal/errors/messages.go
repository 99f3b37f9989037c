package errors

import (
	"fmt"
	"strings"
)

// Common error messages for the csrelease CLI.
// These templates ensure consistent, actionable error messages.

// NewMissingTokenError creates an error for a missing GITHUB_TOKEN.
func NewMissingTokenError() *CLIError {
	return NewConfigError(
		"GITHUB_TOKEN is not set",
		"Pass the token to the step: env: { GITHUB_TOKEN: ${{ secrets.GITHUB_TOKEN }} }",
		"Locally, export a token with repo scope: export GITHUB_TOKEN=...",
	)
}

// MissingRepository creates an error when the target repository is unknown.
func MissingRepository() *CLIError {
	return NewConfigError(
		"GITHUB_REPOSITORY is not set",
		"Set it to owner/name, e.g. export GITHUB_REPOSITORY=acme/widgets",
	)
}

// MissingBaseBranch creates an error when neither branch nor GITHUB_REF is set.
func MissingBaseBranch() *CLIError {
	return NewConfigError(
		"could not determine the base branch",
		"Set 'branch' in .csrelease/config.yml or CSRELEASE_BRANCH",
		"Or run from a workflow triggered by a branch push so GITHUB_REF is set",
	)
}

// MissingPublishScript creates an error when publish is run without a script.
func MissingPublishScript() *CLIError {
	return NewConfigError(
		"no publish script configured",
		"Set 'publish' in .csrelease/config.yml, e.g. publish: pnpm release",
		"Or export CSRELEASE_PUBLISH=\"npm run release\"",
	)
}

// NewChangelogEntryError creates an error when a published package has no
// changelog entry for the released version.
func NewChangelogEntryError(pkg, version string, err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		fmt.Sprintf("could not find changelog entry for %s@%s", pkg, version),
		"Make sure the version script ran before publishing",
		"Check that CHANGELOG.md has a '## "+version+"' heading",
	)
}

// ChangelogFileNotFound creates an error for a missing changelog file.
func ChangelogFileNotFound(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("changelog not found: %s", path),
		"Check the path, changelogs live next to each package.json",
		"Changelogs are written by the version script (npx changeset version)",
	)
}

// VersionNotInChangelog creates an error for a version without a heading.
func VersionNotInChangelog(version string, available []string) *CLIError {
	remediation := []string{"Versions are matched exactly, so 3.0.0 does not match 3.0.0-beta.0"}
	if len(available) > 0 {
		remediation = append(remediation, "Available versions: "+strings.Join(available, ", "))
	}
	return NewArgumentError(fmt.Sprintf("version %s not found in changelog", version), remediation...)
}

// ScriptFailed creates an error when a version or publish script fails.
func ScriptFailed(phase string, err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		fmt.Sprintf("%s script failed", phase),
		"Run the script locally to see its full output",
		"Re-run with --debug for details",
	)
}

// ConfigParseError creates an error for invalid config file format.
func ConfigParseError(path string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("failed to load configuration from %s", path),
		"Check the file for YAML syntax errors",
		"Print the effective configuration with: csrelease config show",
		"Recreate the file with: csrelease config init --force",
	)
}

// InvalidFlagCombination creates an error for incompatible flag combinations.
func InvalidFlagCombination(flags string, reason string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("invalid flag combination: %s", flags),
		reason,
		"Use 'csrelease <command> --help' to see valid options",
	)
}

// DirectoryNotFound creates an error for missing directory.
func DirectoryNotFound(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("directory not found: %s", path),
		"Check the 'cwd' setting or the --cwd flag",
	)
}

// GitNotRepository creates an error when not in a git repository.
func GitNotRepository() *CLIError {
	return NewPrerequisiteError(
		"not a git repository",
		"Check out the repository first (actions/checkout)",
		"Or navigate to an existing repository",
	)
}
