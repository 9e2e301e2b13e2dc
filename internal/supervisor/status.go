package supervisor

import "fmt"

// Status is the derived view of the service. PID is nil when not running.
// The optional resource fields are only filled by Details.
type Status struct {
	Running       bool     `json:"running"`
	PID           *int     `json:"pid"`
	Port          int      `json:"port"`
	UptimeSeconds *uint64  `json:"uptime_seconds"`
	MemoryMB      *float64 `json:"memory_mb"`
	CPUPercent    *float64 `json:"cpu_percent"`
}

// ListenerPID returns the listener pid, or 0 when not running.
func (s Status) ListenerPID() int {
	if s.PID == nil {
		return 0
	}
	return *s.PID
}

// KillReport aggregates a KillAll run.
type KillReport struct {
	Port     int            `json:"port"`
	PIDs     []int          `json:"pids"`
	Killed   int            `json:"killed"`
	Failed   int            `json:"failed"`
	Failures map[int]string `json:"failures,omitempty"`
}

// Message is the user-facing summary of the report.
func (r KillReport) Message() string {
	switch {
	case len(r.PIDs) == 0:
		return fmt.Sprintf("No processes found on port %d", r.Port)
	case r.Failed == 0:
		return fmt.Sprintf("Killed %d process(es) on port %d", r.Killed, r.Port)
	default:
		return fmt.Sprintf("Killed %d, failed to kill %d process(es) on port %d", r.Killed, r.Failed, r.Port)
	}
}

// StoppedMessage is reported after a successful Stop.
const StoppedMessage = "Service stopped"

func StartedMessage(pid int) string   { return fmt.Sprintf("Service started, PID: %d", pid) }
func RestartedMessage(pid int) string { return fmt.Sprintf("Service restarted, PID: %d", pid) }
