package cli

import (
	"fmt"

	"cage/internal/history"
	"cage/internal/ui"

	"github.com/spf13/cobra"
)

var (
	historyLimit   int
	historyProfile string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show session history",
	Long: `Display the history of session operations performed by cage.

Examples:
  cage history                  # Show recent operations
  cage history -l 20            # Show last 20 operations
  cage history --profile work   # Only the 'work' profile`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 10, "number of entries to show")
	historyCmd.Flags().StringVar(&historyProfile, "profile", "", "only show entries for this profile")
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.Open()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	var entries []history.Entry
	if historyProfile != "" {
		entries, err = store.ListProfile(historyProfile, historyLimit)
	} else {
		entries, err = store.List(historyLimit)
	}
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if len(entries) == 0 {
		ui.MutedMsg("No history entries found")
		return nil
	}

	ui.HeaderMsg("Session History")

	for i, entry := range entries {
		status := ui.Green("success")
		if !entry.Success {
			status = ui.Red("failed")
		}

		fmt.Printf("%2d. %s %s %s (%s)\n",
			i+1,
			ui.Muted.Sprint(entry.FormatTime()),
			ui.Bold(string(entry.Operation)),
			ui.Cyan(entry.Profile),
			status,
		)

		if entry.Error != "" {
			ui.MutedMsg("    Error: %s", entry.Error)
		}
	}

	return nil
}
