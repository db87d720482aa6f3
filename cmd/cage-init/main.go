//go:build linux

// Command cage-init is the container entrypoint. It runs as root just long
// enough to install the egress policy and prepare the session home, then
// permanently drops to the unprivileged user and execs the workload.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"cage/internal/config"
	"cage/internal/executor"
	"cage/internal/privdrop"
	"cage/pkg/hostnet"
	"cage/pkg/netpolicy"
)

// pluginInstaller is run best-effort as the session user when the image
// ships it.
const pluginInstaller = "/usr/local/bin/cage-install-voice-plugin"

func main() {
	if err := run(); err != nil {
		fatal(err)
	}
}

func run() error {
	cfg := config.Default()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if os.Geteuid() != 0 {
		return errors.New("must start as root to install the network policy")
	}

	extraPorts, err := parsePorts(os.Getenv("CAGE_HOST_PORTS"))
	if err != nil {
		return err
	}

	// Resolve host endpoints. Bridge failure degrades to a session
	// without host services; everything else about isolation still holds.
	resolver := hostnet.NewResolver(cfg.Network.BridgeHost)
	eps, err := resolver.Resolve(ctx)
	if err != nil {
		if !errors.Is(err, hostnet.ErrBridgeUnresolved) {
			return err
		}
		warn("%v; continuing without host services", err)
	}

	policy, err := netpolicy.Compile(eps, netpolicy.Options{
		StaticPorts:   cfg.Network.StaticPorts,
		ExtraPorts:    extraPorts,
		PrivateRanges: cfg.Network.PrivateRanges,
	})
	if err != nil {
		return err
	}

	debug := os.Getenv("CAGE_DEBUG") != ""
	if debug {
		fmt.Fprintf(os.Stderr, "[cage-init] egress policy:\n%s", policy)
	}

	// Fail closed: any policy error aborts the session before the
	// workload can see the network.
	runner := executor.New(false, debug)
	if err := privdrop.Apply(ctx, policy, runner); err != nil {
		return err
	}

	id, err := privdrop.LookupIdentity(cfg.Sandbox.User)
	if err != nil {
		return err
	}

	bridge := cfg.Network.BridgeHost
	files := privdrop.SessionFiles{
		PulseServer: fmt.Sprintf("tcp:%s:%d", bridge, cfg.Audio.Port),
		TTSEndpoint: fmt.Sprintf("http://%s:8880", bridge),
		STTEndpoint: fmt.Sprintf("http://%s:9090", bridge),
		UID:         id.UID,
		GID:         id.GID,
	}
	if err := privdrop.FirstRunSetup(id.Home, files); err != nil {
		return err
	}

	// Credentials were granted host-side; a socket the session user cannot
	// reach is partial credential setup, so this is fatal like every other
	// pre-switch failure.
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if err := privdrop.FixSocketPerms(sock, id); err != nil {
			return fmt.Errorf("credential socket: %w", err)
		}
	}

	// Best-effort extras run as the session user before the final switch.
	if _, err := os.Stat(pluginInstaller); err == nil {
		if err := privdrop.RunUnprivileged(ctx, id, []string{pluginInstaller}); err != nil {
			warn("voice plugin install: %v", err)
		}
	}

	argv := os.Args[1:]
	if len(argv) == 0 {
		argv = cfg.Sandbox.Command
	}
	return privdrop.DropAndExec(id, argv)
}

func parsePorts(s string) ([]int, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, nil
	}
	ports := make([]int, 0, len(fields))
	for _, f := range fields {
		p, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("CAGE_HOST_PORTS: %q is not a port", f)
		}
		ports = append(ports, p)
	}
	if err := netpolicy.ValidatePorts(ports); err != nil {
		return nil, fmt.Errorf("CAGE_HOST_PORTS: %w", err)
	}
	return ports, nil
}

func warn(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[cage-init] warning: "+format+"\n", args...)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[cage-init] fatal: %v\n", err)
	os.Exit(1)
}
