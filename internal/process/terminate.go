package process

import "fmt"

// Terminator forcefully ends an OS process. No grace period is given and no
// signal ladder is walked; graceful shutdown is the service's own business.
type Terminator interface {
	Kill(pid int) error
}

// OSTerminator kills with SIGKILL on Unix and TerminateProcess on Windows.
type OSTerminator struct{}

func (OSTerminator) Kill(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	if err := forceKill(pid); err != nil {
		return fmt.Errorf("kill pid %d: %w", pid, err)
	}
	return nil
}
