// Package cli implements the command-line interface for cage.
package cli

import (
	"cage/internal/audio"
	"cage/internal/config"
	"cage/internal/docker"
	"cage/internal/executor"
	"cage/internal/history"
	"cage/internal/session"
	"cage/internal/ui"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	dryRun  bool
	verbose bool
	noColor bool

	// Global state
	cfg          *config.Config
	runner       *executor.Executor
	dockerClient *docker.Client
	audioDaemon  *audio.Daemon
)

// Build metadata - set at build time via ldflags
var (
	Version   = "0.3.0-dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "cage",
	Short: "Run coding agents in network-isolated containers",
	Long: `Cage launches interactive coding-agent sessions inside containers
with a locked-down egress policy: outbound traffic is denied by default,
with narrow openings for DNS and a fixed set of host services.

Each session belongs to a named profile. A profile keeps its own
persistent home and workspace volumes, so credentials and work survive
across sessions while profiles stay isolated from each other.

Examples:
  cage run                      # Launch the default profile
  cage run work --git           # Launch 'work' with git/ssh forwarding
  cage run demo -p 8080         # Allow one extra host port
  cage ls                       # Show sessions and their storage
  cage stop work                # Stop a running session`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeApp()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "show what would happen without executing")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(wipeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(doctorCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initializeApp sets up the application state.
func initializeApp() error {
	// Load configuration
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	// Apply global flag overrides
	if verbose {
		cfg.Output.Verbose = true
	}
	if noColor {
		cfg.Output.Color = false
	}

	// Initialize UI
	ui.Init(cfg.ShouldUseColor(), cfg.Output.Unicode)

	runner = executor.New(dryRun, cfg.Output.Verbose)
	dockerClient = docker.NewClient(runner)
	audioDaemon = audio.NewDaemon(runner)

	return nil
}

// newManager builds a session manager with history recording. History is an
// audit trail, not a dependency: if the store cannot open, the launcher
// works without it. The returned func closes the store.
func newManager() (*session.Manager, func()) {
	store, err := history.Open()
	if err != nil {
		if cfg.Output.Verbose {
			ui.WarningMsg("Could not open history: %v", err)
		}
		store = nil
	}
	closeStore := func() {
		if store != nil {
			store.Close()
		}
	}
	return session.NewManager(cfg, dockerClient, audioDaemon, runner, store), closeStore
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print cage version",
	Run: func(cmd *cobra.Command, args []string) {
		ui.InfoMsg("cage version %s", Version)
		if Commit != "unknown" {
			ui.MutedMsg("  Commit: %s", Commit)
		}
		if BuildTime != "unknown" {
			ui.MutedMsg("  Built:  %s", BuildTime)
		}
	},
}
