//go:build !windows

package deps

import "golang.org/x/sys/unix"

// canExecute asks the kernel rather than trusting mode bits, so ACLs and
// noexec mounts are honored.
func canExecute(path string) error {
	return unix.Access(path, unix.X_OK)
}
