package cli

import (
	"context"

	"cage/internal/ui"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop [profile]",
	Short: "Stop a running session",
	Long: `Stop the session for a profile. The container is removed; the
profile's volumes stay intact for the next launch.

Examples:
  cage stop                 # Stop the default profile's session
  cage stop work            # Stop the 'work' session`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStop,
}

func runStop(cmd *cobra.Command, args []string) error {
	profile := ""
	if len(args) > 0 {
		profile = args[0]
	}

	mgr, closeStore := newManager()
	defer closeStore()

	if err := mgr.Stop(context.Background(), profile); err != nil {
		return err
	}
	ui.SuccessMsg("Session stopped")
	return nil
}
