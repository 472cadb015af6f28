//go:build windows

package ffmpeg

import (
	"io"
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// configureProcess creates a new process group; CTRL_BREAK can only be
// delivered to a group.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: windows.CREATE_NEW_PROCESS_GROUP}
}

// interruptProcess sends ffmpeg's quit key and a CTRL_BREAK to the group.
func interruptProcess(cmd *exec.Cmd, stdin io.Writer) error {
	if cmd.Process == nil {
		return nil
	}
	if stdin != nil {
		_, _ = io.WriteString(stdin, "q")
	}
	return windows.GenerateConsoleCtrlEvent(windows.CTRL_BREAK_EVENT, uint32(cmd.Process.Pid))
}

func killProcess(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
