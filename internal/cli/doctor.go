package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"cage/internal/config"
	"cage/internal/credential"
	"cage/internal/ui"
	"cage/pkg/hostnet"
	"cage/pkg/netpolicy"

	"github.com/spf13/cobra"
)

var (
	doctorShowPolicy bool
	doctorPorts      []int
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose launcher issues",
	Long: `Check for common issues with the container runtime, host audio,
and credential forwarding.

Examples:
  cage doctor                       # Run diagnostics
  cage doctor --show-policy         # Print the egress policy a session gets
  cage doctor --show-policy -p 8080 # Include an extra allowed port`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorShowPolicy, "show-policy", false, "print the compiled egress policy instead of running checks")
	doctorCmd.Flags().IntSliceVarP(&doctorPorts, "port", "p", nil, "extra host port to include in the policy (repeatable)")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	issues := 0

	if doctorShowPolicy {
		return showPolicy(ctx)
	}

	ui.HeaderMsg("Running diagnostics...")

	// Container runtime
	if _, err := exec.LookPath("docker"); err != nil {
		ui.ErrorMsg("docker binary not found in PATH")
		issues++
	} else {
		ui.SuccessMsg("docker binary found")
		if err := runner.RunQuiet(ctx, "docker", "info"); err != nil {
			ui.ErrorMsg("docker daemon not reachable: %v", err)
			issues++
		} else {
			ui.SuccessMsg("docker daemon reachable")
		}
	}

	// Workload image
	if dockerClient.ImageExists(ctx, cfg.Sandbox.Image) {
		ui.SuccessMsg("Image %q present", cfg.Sandbox.Image)
	} else {
		ui.WarningMsg("Image %q not built yet (first run builds it, or pass --build-context)", cfg.Sandbox.Image)
	}

	// Host audio
	ui.HeaderMsg("Host Audio")
	if audioDaemon.Running(ctx) {
		ui.SuccessMsg("Audio daemon running")
	} else {
		ui.WarningMsg("Audio daemon not running (sessions start it on demand)")
	}

	// Credential forwarding preconditions
	ui.HeaderMsg("Credential Forwarding")
	id := credential.GitIdentity(ctx, runner)
	if _, err := credential.Evaluate(id, os.Getenv("SSH_AUTH_SOCK")); err != nil {
		ui.WarningMsg("Not ready for --git:\n%v", err)
	} else {
		ui.SuccessMsg("Git identity and ssh agent ready (%s <%s>)", id.Name, id.Email)
	}

	// Environment
	ui.HeaderMsg("Environment")
	if os.Getenv(cfg.Sandbox.APIKeyVar) == "" {
		ui.WarningMsg("%s not set; sessions will start without an API key", cfg.Sandbox.APIKeyVar)
	} else {
		ui.SuccessMsg("%s is set", cfg.Sandbox.APIKeyVar)
	}
	ui.MutedMsg("  Config: %s", config.ConfigPath())

	// Summary
	ui.HeaderMsg("Summary")
	if issues == 0 {
		ui.SuccessMsg("No blocking issues found. Cage is ready to use.")
	} else {
		ui.WarningMsg("Found %d issue(s). Sessions may not launch correctly.", issues)
	}

	return nil
}

// showPolicy prints the egress listing a session would receive, resolved
// from this host's viewpoint. Inside the container the rendering comes from
// the same compiler, so the listing matches what cage-init installs.
func showPolicy(ctx context.Context) error {
	eps, err := hostnet.NewResolver(cfg.Network.BridgeHost).Resolve(ctx)
	if err != nil {
		ui.WarningMsg("%v; showing the degraded policy", err)
	}

	listing, err := renderPolicy(cfg, eps, doctorPorts)
	if err != nil {
		return err
	}
	ui.HeaderMsg("Egress policy (OUTPUT chain)")
	fmt.Print(listing)
	return nil
}

// renderPolicy compiles the session policy for the given endpoints and
// returns the readable listing.
func renderPolicy(cfg *config.Config, eps hostnet.EndpointSet, extraPorts []int) (string, error) {
	policy, err := netpolicy.Compile(eps, netpolicy.Options{
		StaticPorts:   cfg.Network.StaticPorts,
		ExtraPorts:    extraPorts,
		PrivateRanges: cfg.Network.PrivateRanges,
	})
	if err != nil {
		return "", err
	}
	return policy.String(), nil
}
