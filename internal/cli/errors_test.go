package cli

import (
	"errors"
	"fmt"
	"testing"

	"cage/internal/credential"
	"cage/internal/session"
)

func TestExitStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"generic", errors.New("boom"), ExitGeneric},
		{"conflict", fmt.Errorf("launch: %w", session.ErrSessionExists), ExitConflict},
		{"storage", fmt.Errorf("wipe: %w", session.ErrVolume), ExitStorage},
		{"credential", fmt.Errorf("gate: %w", credential.ErrPrecondition), ExitCredential},
		{"workload status", &session.ExitError{Code: 42}, 42},
		{"aborted", ErrAborted, ExitGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitStatus(tt.err); got != tt.want {
				t.Errorf("ExitStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
