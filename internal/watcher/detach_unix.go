//go:build unix

package watcher

import (
	"os/exec"
	"syscall"
)

// detach runs cmd in a new session so it survives the parent's terminal.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
