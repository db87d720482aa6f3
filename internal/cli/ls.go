package cli

import (
	"context"

	"cage/internal/ui"

	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List profiles and their sessions",
	Long: `Show every known profile: running sessions plus profiles that only
exist as persistent volumes.

Examples:
  cage ls`,
	RunE: runLs,
}

func runLs(cmd *cobra.Command, args []string) error {
	mgr, closeStore := newManager()
	defer closeStore()

	statuses, err := mgr.List(context.Background())
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		ui.MutedMsg("No profiles found. Start one with: cage run")
		return nil
	}

	table := ui.NewTable([]string{"Profile", "Status", "Home", "Workspace"})
	for _, s := range statuses {
		status := ui.Stopped.Sprint(ui.SymbolStopped + " stopped")
		if s.Running {
			status = ui.Running.Sprint(ui.SymbolRunning + " running")
		}
		table.AddRow([]string{ui.ProfileName.Sprint(s.Profile), status, volMark(s.HasHome), volMark(s.HasWork)})
	}
	table.Render()
	return nil
}

func volMark(present bool) string {
	if present {
		return "yes"
	}
	return "-"
}
