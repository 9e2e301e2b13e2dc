package supervisor

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrAlreadyRunning is returned by Start when the port already has a listener.
	ErrAlreadyRunning = errors.New("Service is already running")
	// ErrBusy is returned when another mutating operation is in flight.
	ErrBusy = errors.New("another service operation is in progress")
)

// ExecutableNotFoundError means the CLI could not be located. Hint tells the
// user how to install it.
type ExecutableNotFoundError struct {
	Name string
	Hint string
}

func (e *ExecutableNotFoundError) Error() string {
	if e.Hint == "" {
		return e.Name + " command not found"
	}
	return e.Name + " command not found, " + e.Hint
}

// SpawnError means the OS refused to start the detached service process.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string { return "Failed to start service: " + e.Err.Error() }
func (e *SpawnError) Unwrap() error { return e.Err }

// StartTimeoutError means the port never gained a listener within the poll
// budget. The spawned process is left alone.
type StartTimeoutError struct {
	Op     string // "start" or "restart"
	Port   int
	Waited time.Duration
}

func (e *StartTimeoutError) Error() string {
	op := e.Op
	if op == "" {
		op = "start"
	}
	return fmt.Sprintf("Service %s timeout (%s), please check openclaw logs", op, seconds(e.Waited))
}

// StopFailedError means the port still had a listener after the graceful and
// forced stop commands.
type StopFailedError struct {
	Port int
	PID  int
}

func (e *StopFailedError) Error() string {
	return fmt.Sprintf("Unable to stop service, PID: %d", e.PID)
}

// RestartStopTimeoutError means the stop phase of a restart did not free the
// port within its poll budget. The start phase is not attempted.
type RestartStopTimeoutError struct {
	Port   int
	PID    int
	Waited time.Duration
}

func (e *RestartStopTimeoutError) Error() string {
	return fmt.Sprintf("Failed to stop service: port %d still in use after %s", e.Port, seconds(e.Waited))
}

// CommandError reports a synchronous CLI invocation that could not run or
// exited non-zero.
type CommandError struct {
	Op       string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Failed to %s: %v", e.Op, e.Err)
	}
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = fmt.Sprintf("exit status %d", e.ExitCode)
	}
	return fmt.Sprintf("Failed to %s: %s", e.Op, msg)
}

func (e *CommandError) Unwrap() error { return e.Err }

// seconds renders whole seconds as "15s" and fractions as "1.5s".
func seconds(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", int64(d/time.Second))
	}
	return d.String()
}
