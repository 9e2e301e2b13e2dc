//go:build !windows

package process

import (
	"syscall"
)

// DetachedAttrs starts the child in a new session (setsid) so it is detached
// from the controlling terminal and keeps running after the panel exits.
func DetachedAttrs() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}

// HiddenAttrs returns attributes for short-lived helper commands. Nothing is
// needed on Unix.
func HiddenAttrs() *syscall.SysProcAttr {
	return nil
}
