package config

import "path/filepath"

// ProjectConfigDirName is the project-level config directory name.
const ProjectConfigDirName = ".csrelease"

// ProjectConfigDir returns the project-level config directory under projectDir.
func ProjectConfigDir(projectDir string) string {
	return filepath.Join(projectDir, ProjectConfigDirName)
}

// ProjectConfigPath returns the path to the project-level YAML config file.
func ProjectConfigPath(projectDir string) string {
	return filepath.Join(ProjectConfigDir(projectDir), "config.yml")
}

// ProjectJSONConfigPath returns the path to the project-level JSON config file.
// It is only read when the YAML file is absent.
func ProjectJSONConfigPath(projectDir string) string {
	return filepath.Join(ProjectConfigDir(projectDir), "config.json")
}
