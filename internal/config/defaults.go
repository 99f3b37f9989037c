package config

// GetDefaultConfigTemplate returns a fully commented config template
// that helps users understand all available options
func GetDefaultConfigTemplate() string {
	return `# csrelease configuration
# See 'csrelease config keys' for all options

# Scripts
publish: ""                           # Publish script, e.g. "pnpm release" (empty disables publishing)
version: ""                           # Version script (empty runs "npx changeset version")

# Release pull request
title: Version Packages               # Pull request title, suffixed with the pre tag in pre mode
commit: Version Packages              # Commit message for the version commit
branch: ""                            # Base branch (empty uses GITHUB_REF)
branch_prefix: changeset-release/     # Version branch prefix
pr_body_max_characters: 60000         # Body size limit before changelogs are dropped

# Publishing
create_github_releases: true          # Push tags and create a GitHub release per package

# Repository
cwd: ""                               # Workspace root relative to this project
setup_git_user: true                  # Configure the github-actions[bot] git identity
api: git                              # How commits and tags reach GitHub: git | github
concurrency: 8                        # Parallel changelog reads and release creations (1-64)
`
}

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"cwd":     "",
		"publish": "",
		"version": "",
		"title":   "Version Packages",
		"commit":  "Version Packages",
		// create_github_releases: tag and release every package the publish
		// script reports as published.
		"create_github_releases": true,
		"setup_git_user":         true,
		// pr_body_max_characters: stays below the 65536 character limit of
		// pull request bodies.
		"pr_body_max_characters": 60000,
		"branch":                 "",
		"branch_prefix":          "changeset-release/",
		"concurrency":            8,
		"api":                    APIGit,
		"npm_token":              "",
		"home":                   "",
		"github": map[string]interface{}{
			"token":      "",
			"repository": "",
			"ref":        "",
			"sha":        "",
			"api_url":    "",
			"output":     "",
		},
	}
}
