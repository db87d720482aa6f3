// Package history provides launch history tracking with BoltDB. The log
// records operator actions on the host only; no session state lives here.
package history

import (
	"fmt"
	"strings"
	"time"
)

// Operation represents the type of session operation.
type Operation string

const (
	OpLaunch Operation = "launch"
	OpStop   Operation = "stop"
	OpWipe   Operation = "wipe"
)

// Entry represents a single operation in the history.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Operation Operation `json:"operation"`
	Profile   string    `json:"profile"`
	Detached  bool      `json:"detached,omitempty"`
	Ports     []int     `json:"ports,omitempty"`
	GitAccess bool      `json:"git_access,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// NewEntry creates a new history entry for a profile operation.
func NewEntry(op Operation, profile string) *Entry {
	return &Entry{
		ID:        generateID(),
		Timestamp: time.Now(),
		Operation: op,
		Profile:   profile,
		Success:   false, // Updated after the operation completes
	}
}

// MarkSuccess marks the entry as successful.
func (e *Entry) MarkSuccess() {
	e.Success = true
}

// MarkFailed marks the entry as failed with an error message.
func (e *Entry) MarkFailed(err error) {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
}

// FormatTime returns a human-readable timestamp.
func (e *Entry) FormatTime() string {
	return e.Timestamp.Format("2006-01-02 15:04:05")
}

// Summary returns a brief summary of the operation.
func (e *Entry) Summary() string {
	status := "success"
	if !e.Success {
		status = "failed"
	}

	var extras []string
	if e.Detached {
		extras = append(extras, "detached")
	}
	if e.GitAccess {
		extras = append(extras, "git")
	}
	if len(e.Ports) > 0 {
		extras = append(extras, fmt.Sprintf("ports=%v", e.Ports))
	}

	s := e.FormatTime() + " " + string(e.Operation) + " " + e.Profile
	if len(extras) > 0 {
		s += " (" + strings.Join(extras, ", ") + ")"
	}
	return s + " [" + status + "]"
}

// generateID generates a unique ID for the entry.
func generateID() string {
	return time.Now().Format("20060102150405.000000")
}
