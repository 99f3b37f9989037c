package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ariel-frischer/csrelease/internal/config"
	clierrors "github.com/ariel-frischer/csrelease/internal/errors"
	"github.com/ariel-frischer/csrelease/internal/output"
)

var configInitForceFlag bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage csrelease configuration",
	Long: `Manage csrelease configuration settings.

Configuration is loaded with the following priority (highest to lowest):
  1. GitHub Actions runner variables (GITHUB_TOKEN, GITHUB_REF, NPM_TOKEN, ...)
  2. Environment variables (CSRELEASE_*)
  3. Project config (.csrelease/config.yml, or .csrelease/config.json)
  4. Built-in defaults`,
	Example: `  # Show the effective configuration
  csrelease config show

  # List every key with its default and environment variable
  csrelease config keys

  # Write a commented config file
  csrelease config init`,
}

var configShowCmd = &cobra.Command{
	Use:          "show",
	Short:        "Print the effective configuration as YAML",
	Long:         "Print the effective configuration as YAML. Tokens are masked.",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg.Redacted())
		if err != nil {
			return fmt.Errorf("encoding configuration: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configKeysCmd = &cobra.Command{
	Use:          "keys",
	Short:        "List the configuration keys",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		bold := color.New(color.Bold).SprintFunc()
		dim := color.New(color.Faint).SprintFunc()
		for _, key := range config.SortedKeys() {
			schema := config.KnownKeys[key]
			typ := schema.Type.String()
			if len(schema.AllowedValues) > 0 {
				typ = fmt.Sprintf("%s %v", typ, schema.AllowedValues)
			}
			fmt.Fprintf(out, "%s (%s, default %q)\n", bold(key), typ, fmt.Sprint(schema.Default))
			fmt.Fprintf(out, "  %s\n  %s\n", schema.Description, dim("env: "+schema.Env))
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write .csrelease/config.yml with the defaults",
	Long: `Write a commented .csrelease/config.yml holding the default values.
An existing file is left unchanged unless --force is given.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := projectDir()
		if err != nil {
			return err
		}
		path := config.ProjectConfigPath(dir)
		if _, err := os.Stat(path); err == nil && !configInitForceFlag {
			return clierrors.NewArgumentError(fmt.Sprintf("%s already exists", path),
				"Pass --force to overwrite it")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.GetDefaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		output.PrintSuccess(cmd.ErrOrStderr(), "Wrote "+path)
		return nil
	},
}

func init() {
	configCmd.GroupID = GroupConfiguration
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configKeysCmd, configInitCmd)

	configInitCmd.Flags().BoolVarP(&configInitForceFlag, "force", "f", false, "Overwrite an existing config file")
}
