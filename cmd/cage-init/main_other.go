//go:build !linux

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "[cage-init] fatal: only runs inside a Linux container")
	os.Exit(1)
}
