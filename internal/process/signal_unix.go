//go:build !windows

package process

import (
	"errors"
	"syscall"
)

// forceKill sends SIGKILL to a Unix process
func forceKill(pid int) error {
	return syscall.Kill(pid, syscall.SIGKILL)
}

// Exists reports whether a process with the given pid exists (EPERM counts as existing).
func Exists(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
