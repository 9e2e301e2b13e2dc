//go:build windows

package process

import (
	"syscall"
)

// Windows creation flags
const (
	CREATE_NEW_PROCESS_GROUP = 0x00000200
	CREATE_NO_WINDOW         = 0x08000000
)

// DetachedAttrs puts the child in its own process group without a console
// window so it is not torn down together with the panel.
func DetachedAttrs() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		CreationFlags: CREATE_NEW_PROCESS_GROUP | CREATE_NO_WINDOW,
		HideWindow:    true,
	}
}

// HiddenAttrs keeps helper commands (netstat, npm, openclaw) from flashing a
// console window when the panel runs as a GUI backend.
func HiddenAttrs() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		CreationFlags: CREATE_NO_WINDOW,
		HideWindow:    true,
	}
}
