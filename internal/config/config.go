// csrelease - Changeset release automation
// Author: Ariel Frischer
// Source: https://github.com/ariel-frischer/csrelease

// Package config provides layered configuration for csrelease using koanf.
// Values are loaded with priority: GitHub runner variables > CSRELEASE_*
// environment variables > project config (.csrelease/config.yml, or the JSON
// variant) > defaults.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// APIGit pushes the version branch and tags with git.
	APIGit = "git"
	// APIGitHub creates commits and tags through the GitHub API.
	APIGitHub = "github"

	envPrefix = "CSRELEASE_"
)

// Configuration represents the csrelease configuration
type Configuration struct {
	// Cwd is the workspace root, relative to the project directory.
	Cwd string `koanf:"cwd" yaml:"cwd"`
	// Publish is the publish script. Empty disables publishing.
	Publish string `koanf:"publish" yaml:"publish"`
	// Version is the version script. Empty runs `npx changeset version`.
	Version string `koanf:"version" yaml:"version"`
	Title   string `koanf:"title" yaml:"title"`
	Commit  string `koanf:"commit" yaml:"commit"`

	CreateGitHubReleases bool `koanf:"create_github_releases" yaml:"create_github_releases"`
	SetupGitUser         bool `koanf:"setup_git_user" yaml:"setup_git_user"`

	// PRBodyMaxCharacters bounds the release pull request body.
	PRBodyMaxCharacters int `koanf:"pr_body_max_characters" yaml:"pr_body_max_characters" validate:"min=1"`

	// Branch is the base branch. Empty falls back to GITHUB_REF.
	Branch       string `koanf:"branch" yaml:"branch"`
	BranchPrefix string `koanf:"branch_prefix" yaml:"branch_prefix" validate:"required"`
	Concurrency  int    `koanf:"concurrency" yaml:"concurrency" validate:"min=1,max=64"`
	// API selects how commits and tags reach GitHub: "git" or "github".
	API string `koanf:"api" yaml:"api" validate:"oneof=git github"`

	// NpmToken and Home come from NPM_TOKEN and HOME.
	NpmToken string `koanf:"npm_token" yaml:"npm_token"`
	Home     string `koanf:"home" yaml:"home"`

	GitHub GitHubContext `koanf:"github" yaml:"github"`
}

// GitHubContext is the part of the workflow run environment csrelease reads.
type GitHubContext struct {
	Token      string `koanf:"token" yaml:"token"`
	Repository string `koanf:"repository" yaml:"repository"`
	Ref        string `koanf:"ref" yaml:"ref"`
	SHA        string `koanf:"sha" yaml:"sha"`
	APIURL     string `koanf:"api_url" yaml:"api_url"`
	// Output is the $GITHUB_OUTPUT file step outputs are appended to.
	Output string `koanf:"output" yaml:"output"`
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// ProjectDir is where .csrelease/ is looked up (default: current directory).
	ProjectDir string
	// ConfigPath overrides the project config path.
	ConfigPath string
	// WarningWriter receives warnings (default: os.Stderr)
	WarningWriter io.Writer
	// SkipWarnings suppresses warnings
	SkipWarnings bool
}

// Load loads configuration for the project in projectDir.
// Priority: Runner variables > Environment variables > Project config > Defaults
func Load(projectDir string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectDir: projectDir})
}

// LoadWithOptions loads configuration with custom options
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")
	warningWriter := getWarningWriter(opts.WarningWriter)
	projectDir := opts.ProjectDir
	if projectDir == "" {
		projectDir = "."
	}

	loadDefaults(k)

	if err := loadProjectConfig(k, projectDir, opts.ConfigPath, warningWriter, opts.SkipWarnings); err != nil {
		return nil, err
	}

	if err := loadEnvironmentConfig(k); err != nil {
		return nil, err
	}

	if err := loadRunnerConfig(k); err != nil {
		return nil, err
	}

	return finalizeConfig(k, projectDir)
}

// getWarningWriter returns the warning writer or defaults to stderr
func getWarningWriter(w io.Writer) io.Writer {
	if w == nil {
		return os.Stderr
	}
	return w
}

// loadDefaults applies default configuration values
func loadDefaults(k *koanf.Koanf) {
	for key, value := range GetDefaults() {
		k.Set(key, value)
	}
}

// loadProjectConfig loads .csrelease/config.yml, falling back to
// .csrelease/config.json. Warns when both exist.
func loadProjectConfig(k *koanf.Koanf, projectDir, customPath string, warningWriter io.Writer, skipWarnings bool) error {
	if customPath != "" {
		if !fileExists(customPath) {
			return fmt.Errorf("config file %s does not exist", customPath)
		}
		if strings.EqualFold(filepath.Ext(customPath), ".json") {
			return loadJSONConfig(k, customPath)
		}
		return loadYAMLConfig(k, customPath)
	}

	yamlPath := ProjectConfigPath(projectDir)
	jsonPath := ProjectJSONConfigPath(projectDir)
	yamlExists := fileExists(yamlPath)
	jsonExists := fileExists(jsonPath)

	switch {
	case yamlExists:
		if err := loadYAMLConfig(k, yamlPath); err != nil {
			return err
		}
		if jsonExists && !skipWarnings {
			fmt.Fprintf(warningWriter, "Warning: %s ignored, using %s\n", jsonPath, yamlPath)
		}
	case jsonExists:
		return loadJSONConfig(k, jsonPath)
	}
	return nil
}

// loadYAMLConfig validates and loads a YAML config file
func loadYAMLConfig(k *koanf.Koanf, path string) error {
	if err := ValidateYAMLSyntax(path); err != nil {
		return fmt.Errorf("validating YAML syntax for project config: %w", err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load project config %s: %w", path, err)
	}
	return nil
}

func loadJSONConfig(k *koanf.Koanf, path string) error {
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return fmt.Errorf("failed to load project config %s: %w", path, err)
	}
	return nil
}

// loadEnvironmentConfig loads CSRELEASE_* overrides
func loadEnvironmentConfig(k *koanf.Koanf) error {
	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}
	return nil
}

// loadRunnerConfig loads the variables a GitHub Actions runner provides.
func loadRunnerConfig(k *koanf.Koanf) error {
	if err := k.Load(env.Provider("", ".", runnerTransform), nil); err != nil {
		return fmt.Errorf("failed to load runner environment: %w", err)
	}
	return nil
}

// finalizeConfig unmarshals, validates, and resolves paths
func finalizeConfig(k *koanf.Koanf, projectDir string) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.Cwd = resolveCwd(projectDir, cfg.Cwd)
	return &cfg, nil
}

// envTransform converts environment variable names to config keys
// Example: CSRELEASE_PR_BODY_MAX_CHARACTERS -> pr_body_max_characters
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, envPrefix))
}

// runnerVariables maps runner variables to config keys.
var runnerVariables = map[string]string{
	"GITHUB_TOKEN":      "github.token",
	"GITHUB_REPOSITORY": "github.repository",
	"GITHUB_REF":        "github.ref",
	"GITHUB_SHA":        "github.sha",
	"GITHUB_API_URL":    "github.api_url",
	"GITHUB_OUTPUT":     "github.output",
	"NPM_TOKEN":         "npm_token",
	"HOME":              "home",
}

// runnerTransform keeps only the variables in runnerVariables.
func runnerTransform(s string) string {
	return runnerVariables[s]
}

func resolveCwd(projectDir, cwd string) string {
	if cwd == "" {
		return filepath.Clean(projectDir)
	}
	if filepath.IsAbs(cwd) {
		return filepath.Clean(cwd)
	}
	return filepath.Join(projectDir, cwd)
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// BaseBranch returns the branch the release pull request targets: the
// configured branch, or the branch GITHUB_REF points at.
func (c *Configuration) BaseBranch() string {
	if c.Branch != "" {
		return c.Branch
	}
	return strings.TrimPrefix(c.GitHub.Ref, "refs/heads/")
}

// Owner returns the owner half of GITHUB_REPOSITORY.
func (c *Configuration) Owner() string {
	owner, _, _ := strings.Cut(c.GitHub.Repository, "/")
	return owner
}

// Repo returns the name half of GITHUB_REPOSITORY.
func (c *Configuration) Repo() string {
	_, repo, _ := strings.Cut(c.GitHub.Repository, "/")
	return repo
}

// HasPublishScript reports whether a publish script is configured.
func (c *Configuration) HasPublishScript() bool {
	return strings.TrimSpace(c.Publish) != ""
}

const redactedValue = "***"

// Redacted returns a copy of the configuration with tokens masked, for display.
func (c *Configuration) Redacted() Configuration {
	out := *c
	if out.NpmToken != "" {
		out.NpmToken = redactedValue
	}
	if out.GitHub.Token != "" {
		out.GitHub.Token = redactedValue
	}
	return out
}
