//go:build !windows

package ffmpeg

import (
	"errors"
	"io"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// configureProcess starts the encoder in its own process group so signals
// reach any helpers it spawns and not the parent.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// interruptProcess asks the encoder group to stop with SIGTERM.
func interruptProcess(cmd *exec.Cmd, _ io.Writer) error {
	return signalGroup(cmd, unix.SIGTERM)
}

// killProcess force-kills the encoder group.
func killProcess(cmd *exec.Cmd) error {
	return signalGroup(cmd, unix.SIGKILL)
}

func signalGroup(cmd *exec.Cmd, sig unix.Signal) error {
	if cmd.Process == nil {
		return nil
	}
	err := unix.Kill(-cmd.Process.Pid, sig)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}
