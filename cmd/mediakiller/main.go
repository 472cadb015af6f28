package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"mediakiller/internal/services"
)

func main() {
	cmd := newRootCommand()
	os.Exit(exitCode(cmd.Execute()))
}

// exitStatus ends the process with a specific code after the command has
// already reported why.
type exitStatus struct {
	code int
}

func (e exitStatus) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var status exitStatus
	if errors.As(err, &status) {
		return status.code
	}
	if errors.Is(err, services.ErrForceStopped) {
		fmt.Fprintln(os.Stderr, err)
		return 130
	}
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
	}
	return 1
}
