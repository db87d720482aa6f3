package cli

import (
	"context"

	"cage/internal/session"

	"github.com/spf13/cobra"
)

var (
	runDetach       bool
	runPorts        []int
	runGit          bool
	runBuildContext string
)

var runCmd = &cobra.Command{
	Use:   "run [profile] [-- command...]",
	Short: "Launch a sandboxed session",
	Long: `Launch a session for a profile. Without a profile name the default
profile is used. Arguments after -- replace the default workload command.

Sessions run with outbound traffic denied by default. Use -p to allow
additional host ports through the isolation boundary.

Examples:
  cage run                          # Default profile, default workload
  cage run work                     # Named profile
  cage run work -d                  # Detached; attach later with 'cage shell'
  cage run work --git               # Forward git identity and ssh agent
  cage run work -p 8080 -p 5432     # Allow extra host service ports
  cage run work -- bash             # Run a shell instead of the workload`,
	Args: cobra.ArbitraryArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVarP(&runDetach, "detach", "d", false, "run in the background")
	runCmd.Flags().IntSliceVarP(&runPorts, "port", "p", nil, "extra host port to allow (repeatable)")
	runCmd.Flags().BoolVarP(&runGit, "git", "g", false, "forward git identity and ssh agent")
	runCmd.Flags().StringVar(&runBuildContext, "build-context", "", "directory to build the image from if missing")
}

func runRun(cmd *cobra.Command, args []string) error {
	opts := session.Options{
		Detach:       runDetach,
		ExtraPorts:   runPorts,
		ForwardGit:   runGit,
		BuildContext: runBuildContext,
	}

	if sep := cmd.ArgsLenAtDash(); sep >= 0 {
		if sep > 0 {
			opts.Profile = args[0]
		}
		opts.Command = args[sep:]
	} else if len(args) > 0 {
		opts.Profile = args[0]
	}

	mgr, closeStore := newManager()
	defer closeStore()

	return mgr.Launch(context.Background(), opts)
}
