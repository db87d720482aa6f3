package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell [profile]",
	Short: "Open a shell in a running session",
	Long: `Attach an interactive shell to a running session, as the session's
unprivileged user.

Examples:
  cage shell                # Shell into the default profile's session
  cage shell work           # Shell into the 'work' session`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShell,
}

func runShell(cmd *cobra.Command, args []string) error {
	profile := ""
	if len(args) > 0 {
		profile = args[0]
	}

	mgr, closeStore := newManager()
	defer closeStore()

	return mgr.Shell(context.Background(), profile)
}
