// Package audio manages the host audio daemon the sessions stream to. All
// of it is best-effort plumbing around the isolation boundary: failures
// degrade to a session without sound, they never weaken the sandbox.
package audio

import (
	"bufio"
	"context"
	"runtime"
	"strings"
)

// Runner is the command-execution seam; *executor.Executor satisfies it.
type Runner interface {
	RunQuiet(ctx context.Context, name string, args ...string) error
	OutputQuiet(ctx context.Context, name string, args ...string) (string, error)
}

// Daemon wraps the host PulseAudio daemon.
type Daemon struct {
	runner Runner
}

// NewDaemon creates a Daemon over the given runner.
func NewDaemon(runner Runner) *Daemon {
	return &Daemon{runner: runner}
}

// Running reports whether the daemon is up.
func (d *Daemon) Running(ctx context.Context) bool {
	return d.runner.RunQuiet(ctx, "pulseaudio", "--check") == nil
}

// Start launches the daemon in the background with idle exit disabled.
func (d *Daemon) Start(ctx context.Context) error {
	return d.runner.RunQuiet(ctx, "pulseaudio", "--exit-idle-time=-1", "--daemon")
}

// CurrentDevices returns the host's current output and input device
// descriptions. Only meaningful on darwin, where the system mixer owns
// device selection; elsewhere both come back empty.
func (d *Daemon) CurrentDevices(ctx context.Context) (output, input string) {
	if runtime.GOOS != "darwin" {
		return "", ""
	}
	if out, err := d.runner.OutputQuiet(ctx, "SwitchAudioSource", "-c"); err == nil {
		output = strings.TrimSpace(out)
	}
	if in, err := d.runner.OutputQuiet(ctx, "SwitchAudioSource", "-c", "-t", "input"); err == nil {
		input = strings.TrimSpace(in)
	}
	return output, input
}

// SyncDefaults points the daemon's default sink/source at the devices with
// the given descriptions. Returns the device names that were set; empty
// means not found (and nothing was changed).
func (d *Daemon) SyncDefaults(ctx context.Context, outputDesc, inputDesc string) (sink, source string) {
	if outputDesc != "" {
		if name := d.findDevice(ctx, "sinks", outputDesc); name != "" {
			if d.runner.RunQuiet(ctx, "pactl", "set-default-sink", name) == nil {
				sink = name
			}
		}
	}
	if inputDesc != "" {
		if name := d.findDevice(ctx, "sources", inputDesc); name != "" {
			if d.runner.RunQuiet(ctx, "pactl", "set-default-source", name) == nil {
				source = name
			}
		}
	}
	return sink, source
}

// findDevice locates a device name by its description in pactl list output.
func (d *Daemon) findDevice(ctx context.Context, kind, description string) string {
	out, err := d.runner.OutputQuiet(ctx, "pactl", "list", kind)
	if err != nil {
		return ""
	}
	return parseDeviceName(out, kind, description)
}

// parseDeviceName scans pactl list output for the device whose Description
// matches. Monitor sources are skipped; they mirror a sink, not a capture
// device.
func parseDeviceName(out, kind, description string) string {
	var currentName string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "Name:"):
			currentName = strings.TrimSpace(strings.TrimPrefix(line, "Name:"))
		case strings.HasPrefix(line, "Description:"):
			desc := strings.TrimSpace(strings.TrimPrefix(line, "Description:"))
			if desc != description {
				continue
			}
			if kind == "sources" && strings.Contains(currentName, ".monitor") {
				continue
			}
			return currentName
		}
	}
	return ""
}
