package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/csrelease/internal/changeset"
	"github.com/ariel-frischer/csrelease/internal/release"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pending changesets and what a release run would do",
	Long: `Show the pending changesets, the combined release of every package they
bump, whether the repository is in pre mode, and the action "csrelease run"
would take next.`,
	Example:      `  csrelease status`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		state, err := changeset.ReadState(cfg.Cwd)
		if err != nil {
			return err
		}
		action, reason := release.Decide(state, cfg.HasPublishScript())
		printStatus(cmd.OutOrStdout(), state, action, reason)
		return nil
	},
}

func init() {
	statusCmd.GroupID = GroupInspect
	rootCmd.AddCommand(statusCmd)
}

func printStatus(w io.Writer, state *changeset.State, action release.Action, reason string) {
	if pre := state.PreState; pre != nil {
		fmt.Fprintf(w, "Pre mode: %s (%d changesets already released)\n", pre.Tag, len(pre.Changesets))
	}

	fmt.Fprintf(w, "Pending changesets: %d\n", len(state.Changesets))
	for _, c := range state.Changesets {
		releases := make([]string, 0, len(c.Releases))
		for _, r := range c.Releases {
			releases = append(releases, fmt.Sprintf("%s (%s)", r.Name, r.Type))
		}
		if len(releases) == 0 {
			releases = append(releases, "no releases")
		}
		fmt.Fprintf(w, "  %s: %s\n", c.ID, strings.Join(releases, ", "))
	}

	if planned := state.PlannedReleases(); len(planned) > 0 {
		width := 0
		for _, p := range planned {
			width = max(width, len(p.Name))
		}
		fmt.Fprintln(w, "Planned releases:")
		for _, p := range planned {
			fmt.Fprintf(w, "  %-*s  %s\n", width, p.Name, p.Type)
		}
	}

	fmt.Fprintf(w, "Next: %s (%s)\n", action, reason)
}
