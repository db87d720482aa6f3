package main

import (
	"errors"
	"os"

	"cage/internal/cli"
	"cage/internal/session"
	"cage/internal/ui"
)

func main() {
	err := cli.Execute()
	if err == nil {
		return
	}

	// A workload's own exit status is not a launcher error.
	var exitErr *session.ExitError
	if !errors.As(err, &exitErr) {
		ui.ErrorMsg("%v", err)
	}
	os.Exit(cli.ExitStatus(err))
}
