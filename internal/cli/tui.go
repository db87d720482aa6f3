package cli

import (
	"cage/internal/history"
	"cage/internal/session"
	"cage/internal/tui"
	"cage/internal/ui"

	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal user interface",
	Long: `Launch the interactive terminal user interface (TUI) for cage.

The TUI provides a visual way to:
  - Browse profiles and their sessions
  - Stop running sessions
  - View operation history

Navigation:
  - Use arrow keys or j/k to navigate
  - Press 1-2 to switch tabs
  - Press s to stop the selected session
  - Press R to refresh
  - Press ? for help
  - Press q to quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	// Open history store. The store is single-writer, so the manager and
	// the TUI share this one handle.
	historyStore, err := history.Open()
	if err != nil {
		ui.WarningMsg("Could not open history: %v", err)
		historyStore = nil
	}
	defer func() {
		if historyStore != nil {
			historyStore.Close()
		}
	}()

	mgr := session.NewManager(cfg, dockerClient, audioDaemon, runner, historyStore)

	return tui.Run(mgr, cfg, historyStore)
}
