// Package docker drives the container runtime through its CLI, the way the
// rest of cage drives external tools: no daemon socket dependency, just the
// binary the operator already has.
package docker

import (
	"context"
	"fmt"
	"strings"
)

// Runner is the command-execution seam; *executor.Executor satisfies it.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
	RunQuiet(ctx context.Context, name string, args ...string) error
	RunInteractive(ctx context.Context, name string, args ...string) error
	Output(ctx context.Context, name string, args ...string) (string, error)
	OutputQuiet(ctx context.Context, name string, args ...string) (string, error)
	OutputCombined(ctx context.Context, name string, args ...string) (string, error)
}

// Client wraps the docker binary.
type Client struct {
	runner Runner
}

// NewClient creates a docker client over the given runner.
func NewClient(runner Runner) *Client {
	return &Client{runner: runner}
}

// VolumeExists reports whether a named volume exists.
func (c *Client) VolumeExists(ctx context.Context, name string) bool {
	return c.runner.RunQuiet(ctx, "docker", "volume", "inspect", name) == nil
}

// CreateVolume creates a named volume.
func (c *Client) CreateVolume(ctx context.Context, name string) error {
	if _, err := c.runner.OutputQuiet(ctx, "docker", "volume", "create", name); err != nil {
		return fmt.Errorf("creating volume %s: %w", name, err)
	}
	return nil
}

// RemoveVolume deletes a named volume. Fails while a container uses it.
func (c *Client) RemoveVolume(ctx context.Context, name string) error {
	if _, err := c.runner.OutputQuiet(ctx, "docker", "volume", "rm", name); err != nil {
		return fmt.Errorf("removing volume %s: %w", name, err)
	}
	return nil
}

// ImageExists reports whether an image is present locally.
func (c *Client) ImageExists(ctx context.Context, name string) bool {
	return c.runner.RunQuiet(ctx, "docker", "image", "inspect", name) == nil
}

// BuildImage builds an image from a context directory. Build output is
// captured, not streamed, so callers can run it under a spinner; on failure
// the tail of the output rides along in the error.
func (c *Client) BuildImage(ctx context.Context, name, contextDir string) error {
	if out, err := c.runner.OutputCombined(ctx, "docker", "build", "-t", name, contextDir); err != nil {
		return fmt.Errorf("building image %s: %w\n%s", name, err, tail(out, 15))
	}
	return nil
}

// tail returns the last n lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// ContainerExists reports whether a container with the exact name exists,
// running or stopped.
func (c *Client) ContainerExists(ctx context.Context, name string) bool {
	out, err := c.runner.OutputQuiet(ctx, "docker", "ps", "-a", "--format", "{{.Names}}")
	if err != nil {
		return false
	}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == name {
			return true
		}
	}
	return false
}

// ContainerRunning reports whether a container with the exact name is
// currently running.
func (c *Client) ContainerRunning(ctx context.Context, name string) bool {
	out, err := c.runner.OutputQuiet(ctx, "docker", "ps", "--format", "{{.Names}}")
	if err != nil {
		return false
	}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == name {
			return true
		}
	}
	return false
}

// ListContainers returns the names of all containers (running or stopped)
// whose name starts with prefix.
func (c *Client) ListContainers(ctx context.Context, prefix string) ([]string, error) {
	out, err := c.runner.OutputQuiet(ctx, "docker", "ps", "-a", "--format", "{{.Names}}")
	if err != nil {
		return nil, fmt.Errorf("listing containers: %w", err)
	}
	var names []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line != "" && strings.HasPrefix(line, prefix) {
			names = append(names, line)
		}
	}
	return names, nil
}

// ListVolumes returns the names of all volumes starting with prefix.
func (c *Client) ListVolumes(ctx context.Context, prefix string) ([]string, error) {
	out, err := c.runner.OutputQuiet(ctx, "docker", "volume", "ls", "--format", "{{.Name}}")
	if err != nil {
		return nil, fmt.Errorf("listing volumes: %w", err)
	}
	var names []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line != "" && strings.HasPrefix(line, prefix) {
			names = append(names, line)
		}
	}
	return names, nil
}

// RunInteractive starts a container attached to the terminal and blocks
// until it exits. The returned error carries the wrapped command's exit
// status.
func (c *Client) RunInteractive(ctx context.Context, args []string) error {
	return c.runner.RunInteractive(ctx, "docker", append([]string{"run", "-it"}, args...)...)
}

// RunDetached starts a container in the background.
func (c *Client) RunDetached(ctx context.Context, args []string) error {
	if _, err := c.runner.OutputQuiet(ctx, "docker", append([]string{"run", "-d"}, args...)...); err != nil {
		return fmt.Errorf("starting detached container: %w", err)
	}
	return nil
}

// Exec runs a command inside a running container as the given user,
// attached to the terminal.
func (c *Client) Exec(ctx context.Context, container, user string, argv []string) error {
	args := append([]string{"exec", "-it", "-u", user, container}, argv...)
	return c.runner.RunInteractive(ctx, "docker", args...)
}

// Stop stops a running container.
func (c *Client) Stop(ctx context.Context, name string) error {
	if _, err := c.runner.OutputQuiet(ctx, "docker", "stop", name); err != nil {
		return fmt.Errorf("stopping container %s: %w", name, err)
	}
	return nil
}
