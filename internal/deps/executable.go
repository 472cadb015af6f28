package deps

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"mediakiller/internal/services"
)

// ResolveExecutable finds command on PATH (or at the given path) and checks
// that the current user may run it. Failures wrap services.ErrEnvironment.
func ResolveExecutable(command string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", services.Wrap(services.ErrEnvironment, "deps", "resolve", "no executable configured", nil)
	}
	resolved, err := exec.LookPath(command)
	if err != nil {
		if errors.Is(err, exec.ErrDot) {
			resolved = command
		} else {
			return "", services.Wrap(services.ErrEnvironment, "deps", "resolve", fmt.Sprintf("%q not found", command), err)
		}
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", services.Wrap(services.ErrEnvironment, "deps", "resolve", resolved, err)
	}
	if !isExecutable(info) {
		return "", services.Wrap(services.ErrEnvironment, "deps", "resolve", fmt.Sprintf("%s is not executable", resolved), nil)
	}
	if err := canExecute(resolved); err != nil {
		return "", services.Wrap(services.ErrEnvironment, "deps", "resolve", fmt.Sprintf("%s is not executable", resolved), err)
	}
	return resolved, nil
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

func rootCause(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
