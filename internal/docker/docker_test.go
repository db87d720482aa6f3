package docker

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeRunner serves canned output keyed by the joined command line.
type fakeRunner struct {
	outputs map[string]string
	fail    map[string]bool
	calls   []string
}

func (f *fakeRunner) key(name string, args []string) string {
	return name + " " + strings.Join(args, " ")
}

func (f *fakeRunner) record(name string, args []string) string {
	k := f.key(name, args)
	f.calls = append(f.calls, k)
	return k
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	return f.result(f.record(name, args))
}

func (f *fakeRunner) RunQuiet(ctx context.Context, name string, args ...string) error {
	return f.result(f.record(name, args))
}

func (f *fakeRunner) RunInteractive(ctx context.Context, name string, args ...string) error {
	return f.result(f.record(name, args))
}

func (f *fakeRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	k := f.record(name, args)
	return f.outputs[k], f.result(k)
}

func (f *fakeRunner) OutputQuiet(ctx context.Context, name string, args ...string) (string, error) {
	k := f.record(name, args)
	return f.outputs[k], f.result(k)
}

func (f *fakeRunner) OutputCombined(ctx context.Context, name string, args ...string) (string, error) {
	k := f.record(name, args)
	return f.outputs[k], f.result(k)
}

func (f *fakeRunner) result(key string) error {
	if f.fail[key] {
		return errors.New("command failed")
	}
	return nil
}

func TestContainerExists(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string]string{
			"docker ps -a --format {{.Names}}": "cage-default\ncage-work\nother\n",
		},
	}
	c := NewClient(runner)
	ctx := context.Background()

	if !c.ContainerExists(ctx, "cage-work") {
		t.Error("cage-work should exist")
	}
	// Exact match only: a prefix of an existing name is not a conflict.
	if c.ContainerExists(ctx, "cage-wo") {
		t.Error("prefix must not match")
	}
	if c.ContainerExists(ctx, "cage-missing") {
		t.Error("cage-missing should not exist")
	}
}

func TestListContainersFiltersPrefix(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string]string{
			"docker ps -a --format {{.Names}}": "cage-default\nunrelated\ncage-work\n",
		},
	}
	c := NewClient(runner)

	names, err := c.ListContainers(context.Background(), "cage-")
	if err != nil {
		t.Fatalf("ListContainers() error: %v", err)
	}
	if len(names) != 2 || names[0] != "cage-default" || names[1] != "cage-work" {
		t.Errorf("ListContainers() = %v", names)
	}
}

func TestVolumeExists(t *testing.T) {
	runner := &fakeRunner{
		fail: map[string]bool{
			"docker volume inspect missing": true,
		},
	}
	c := NewClient(runner)
	ctx := context.Background()

	if !c.VolumeExists(ctx, "present") {
		t.Error("present volume reported missing")
	}
	if c.VolumeExists(ctx, "missing") {
		t.Error("missing volume reported present")
	}
}

func TestCreateVolumeError(t *testing.T) {
	runner := &fakeRunner{
		fail: map[string]bool{
			"docker volume create vol": true,
		},
	}
	c := NewClient(runner)

	if err := c.CreateVolume(context.Background(), "vol"); err == nil {
		t.Error("expected error from failed volume create")
	}
}

func TestRunModes(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{}}
	c := NewClient(runner)
	ctx := context.Background()

	if err := c.RunInteractive(ctx, []string{"--rm", "img"}); err != nil {
		t.Fatal(err)
	}
	if err := c.RunDetached(ctx, []string{"--rm", "img", "sleep", "infinity"}); err != nil {
		t.Fatal(err)
	}

	if runner.calls[0] != "docker run -it --rm img" {
		t.Errorf("interactive call = %q", runner.calls[0])
	}
	if runner.calls[1] != "docker run -d --rm img sleep infinity" {
		t.Errorf("detached call = %q", runner.calls[1])
	}
}

func TestBuildImageFailureIncludesOutput(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string]string{
			"docker build -t cage .": "step 1/3\nstep 2/3\nERROR: base image not found",
		},
		fail: map[string]bool{
			"docker build -t cage .": true,
		},
	}
	c := NewClient(runner)

	err := c.BuildImage(context.Background(), "cage", ".")
	if err == nil {
		t.Fatal("expected error from failed build")
	}
	if !strings.Contains(err.Error(), "ERROR: base image not found") {
		t.Errorf("build error does not carry the build output: %v", err)
	}
}

func TestTail(t *testing.T) {
	if got := tail("a\nb\nc\n", 2); got != "b\nc" {
		t.Errorf("tail = %q, want %q", got, "b\nc")
	}
	if got := tail("a\nb", 5); got != "a\nb" {
		t.Errorf("tail = %q, want %q", got, "a\nb")
	}
}
