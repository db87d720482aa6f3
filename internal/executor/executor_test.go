package executor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"testing"
)

func TestDryRunSkipsExecution(t *testing.T) {
	e := New(true, false)

	// A command that would fail loudly if actually executed.
	if err := e.Run(context.Background(), "definitely-not-a-real-binary"); err != nil {
		t.Errorf("dry-run Run() should not execute, got error: %v", err)
	}

	out, err := e.Output(context.Background(), "definitely-not-a-real-binary")
	if err != nil {
		t.Errorf("dry-run Output() should not execute, got error: %v", err)
	}
	if out != "" {
		t.Errorf("dry-run Output() should return empty string, got %q", out)
	}
}

func TestOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on POSIX echo")
	}

	e := New(false, false)
	out, err := e.Output(context.Background(), "echo", "hello")
	if err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if strings.TrimSpace(out) != "hello" {
		t.Errorf("Output() = %q, want 'hello'", out)
	}
}

func TestRunMissingBinary(t *testing.T) {
	e := New(false, false)
	err := e.RunQuiet(context.Background(), "definitely-not-a-real-binary")
	if err == nil {
		t.Error("expected error for missing binary")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"not an exec error", errors.New("boom"), -1},
		{"wrapped non-exec", fmt.Errorf("outer: %w", errors.New("inner")), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExitCodeFromProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on POSIX sh")
	}

	err := exec.Command("sh", "-c", "exit 7").Run()
	if got := ExitCode(err); got != 7 {
		t.Errorf("ExitCode() = %d, want 7", got)
	}
}
