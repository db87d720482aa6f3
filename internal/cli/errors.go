package cli

import (
	"errors"

	"cage/internal/credential"
	"cage/internal/session"
)

// ErrAborted is returned when the user aborts an operation.
var ErrAborted = errors.New("operation aborted by user")

// Exit status classes for scripting around the launcher.
const (
	ExitGeneric    = 1
	ExitConflict   = 2
	ExitStorage    = 3
	ExitCredential = 4
)

// ExitStatus maps an error to the process exit status. An interactive
// session's own exit status passes through unchanged.
func ExitStatus(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *session.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	switch {
	case errors.Is(err, session.ErrSessionExists):
		return ExitConflict
	case errors.Is(err, session.ErrVolume):
		return ExitStorage
	case errors.Is(err, credential.ErrPrecondition):
		return ExitCredential
	}
	return ExitGeneric
}
