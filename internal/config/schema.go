package config

import (
	"slices"
	"strings"
)

// ConfigValueType defines the expected type for a configuration value.
type ConfigValueType int

const (
	TypeBool ConfigValueType = iota
	TypeInt
	TypeString
	TypeEnum
)

// String returns the string representation of ConfigValueType.
func (t ConfigValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeString:
		return "string"
	case TypeEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// ConfigKeySchema defines a known configuration key with its expected type.
type ConfigKeySchema struct {
	Path          string          // Config key (e.g., "pr_body_max_characters")
	Type          ConfigValueType // Expected value type
	AllowedValues []string        // Valid values for enum types (empty for non-enums)
	Description   string          // Human-readable description for help text
	Default       interface{}     // Default value
	// Env is the environment variable that overrides the key.
	Env string
}

// KnownKeys is the registry of user-settable configuration keys.
var KnownKeys = map[string]ConfigKeySchema{
	"cwd": {
		Path:        "cwd",
		Type:        TypeString,
		Description: "Workspace root relative to the project directory",
		Default:     "",
	},
	"publish": {
		Path:        "publish",
		Type:        TypeString,
		Description: "Publish script; empty disables publishing",
		Default:     "",
	},
	"version": {
		Path:        "version",
		Type:        TypeString,
		Description: "Version script; empty runs npx changeset version",
		Default:     "",
	},
	"title": {
		Path:        "title",
		Type:        TypeString,
		Description: "Release pull request title",
		Default:     "Version Packages",
	},
	"commit": {
		Path:        "commit",
		Type:        TypeString,
		Description: "Version commit message",
		Default:     "Version Packages",
	},
	"create_github_releases": {
		Path:        "create_github_releases",
		Type:        TypeBool,
		Description: "Push tags and create GitHub releases for published packages",
		Default:     true,
	},
	"setup_git_user": {
		Path:        "setup_git_user",
		Type:        TypeBool,
		Description: "Configure the github-actions[bot] git identity",
		Default:     true,
	},
	"pr_body_max_characters": {
		Path:        "pr_body_max_characters",
		Type:        TypeInt,
		Description: "Pull request body size limit in characters",
		Default:     60000,
	},
	"branch": {
		Path:        "branch",
		Type:        TypeString,
		Description: "Base branch of the release pull request (empty uses GITHUB_REF)",
		Default:     "",
	},
	"branch_prefix": {
		Path:        "branch_prefix",
		Type:        TypeString,
		Description: "Prefix of the version branch",
		Default:     "changeset-release/",
	},
	"concurrency": {
		Path:        "concurrency",
		Type:        TypeInt,
		Description: "Parallel changelog reads and release creations (1-64)",
		Default:     8,
	},
	"api": {
		Path:          "api",
		Type:          TypeEnum,
		AllowedValues: []string{APIGit, APIGitHub},
		Description:   "How commits and tags reach GitHub",
		Default:       APIGit,
	},
}

func init() {
	for key, schema := range KnownKeys {
		schema.Env = envPrefix + strings.ToUpper(key)
		KnownKeys[key] = schema
	}
}

// ErrUnknownKey is returned when trying to access an unknown configuration key.
type ErrUnknownKey struct {
	Key string
}

func (e ErrUnknownKey) Error() string {
	return "unknown configuration key: " + e.Key
}

// GetKeySchema returns the schema for a known configuration key.
// Returns ErrUnknownKey if the key is not in the registry.
func GetKeySchema(path string) (ConfigKeySchema, error) {
	schema, ok := KnownKeys[path]
	if !ok {
		return ConfigKeySchema{}, ErrUnknownKey{Key: path}
	}
	return schema, nil
}

// SortedKeys returns the known keys in alphabetical order.
func SortedKeys() []string {
	keys := make([]string, 0, len(KnownKeys))
	for k := range KnownKeys {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
