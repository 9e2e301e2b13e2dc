package client

import "time"

// Status mirrors GET /status and GET /status/details.
type Status struct {
	Running       bool     `json:"running"`
	PID           *int     `json:"pid"`
	Port          int      `json:"port"`
	UptimeSeconds *uint64  `json:"uptime_seconds"`
	MemoryMB      *float64 `json:"memory_mb"`
	CPUPercent    *float64 `json:"cpu_percent"`
}

// ListenerPID returns the pid, or 0 when the service is not running.
func (s Status) ListenerPID() int {
	if s.PID == nil {
		return 0
	}
	return *s.PID
}

// KillReport is the per-pid outcome of POST /kill-all.
type KillReport struct {
	Port     int            `json:"port"`
	PIDs     []int          `json:"pids"`
	Killed   int            `json:"killed"`
	Failed   int            `json:"failed"`
	Failures map[int]string `json:"failures,omitempty"`
}

type Skill struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Path        string `json:"path"`
}

// SystemInfo mirrors GET /system.
type SystemInfo struct {
	OS                string  `json:"os"`
	OSVersion         string  `json:"os_version"`
	Arch              string  `json:"arch"`
	OpenclawInstalled bool    `json:"openclaw_installed"`
	OpenclawVersion   *string `json:"openclaw_version"`
	NodeVersion       *string `json:"node_version"`
	ConfigDir         string  `json:"config_dir"`
}

type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Port       int       `json:"port"`
	PID        int       `json:"pid"`
	Outcome    string    `json:"outcome"`
	Message    string    `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type killResponse struct {
	Message string     `json:"message"`
	Report  KillReport `json:"report"`
}

type logsResponse struct {
	Lines []string `json:"lines"`
}

type installRequest struct {
	Name string `json:"name"`
}

type installResponse struct {
	Message string `json:"message"`
	Output  string `json:"output"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}
