package supervisor

import (
	"errors"
	"fmt"
	"time"
)

// DefaultPort is the fixed gateway port.
const DefaultPort = 18789

// DefaultLogLines is used when Logs is asked for n <= 0 lines.
const DefaultLogLines = 100

// Policy holds the timing budget of lifecycle operations.
type Policy struct {
	StartPollInterval   time.Duration `mapstructure:"start_poll_interval"`
	StartAttempts       int           `mapstructure:"start_attempts"`
	StopSettle          time.Duration `mapstructure:"stop_settle"`
	RestartPollInterval time.Duration `mapstructure:"restart_poll_interval"`
	RestartAttempts     int           `mapstructure:"restart_attempts"`
	CommandTimeout      time.Duration `mapstructure:"command_timeout"`
}

// DefaultPolicy: start polls 15 x 1s, stop settles 500ms, restart waits for
// the port to free 10 x 500ms.
func DefaultPolicy() Policy {
	return Policy{
		StartPollInterval:   time.Second,
		StartAttempts:       15,
		StopSettle:          500 * time.Millisecond,
		RestartPollInterval: 500 * time.Millisecond,
		RestartAttempts:     10,
		CommandTimeout:      30 * time.Second,
	}
}

func (p Policy) Validate() error {
	var errs []error
	if p.StartPollInterval <= 0 {
		errs = append(errs, fmt.Errorf("start_poll_interval must be positive"))
	}
	if p.StartAttempts < 1 {
		errs = append(errs, fmt.Errorf("start_attempts must be >= 1"))
	}
	if p.StopSettle < 0 {
		errs = append(errs, fmt.Errorf("stop_settle must not be negative"))
	}
	if p.RestartPollInterval <= 0 {
		errs = append(errs, fmt.Errorf("restart_poll_interval must be positive"))
	}
	if p.RestartAttempts < 1 {
		errs = append(errs, fmt.Errorf("restart_attempts must be >= 1"))
	}
	if p.CommandTimeout <= 0 {
		errs = append(errs, fmt.Errorf("command_timeout must be positive"))
	}
	return errors.Join(errs...)
}

// startBudget is the wall-clock the start poll may take.
func (p Policy) startBudget() time.Duration {
	return time.Duration(p.StartAttempts) * p.StartPollInterval
}

func (p Policy) restartStopBudget() time.Duration {
	return time.Duration(p.RestartAttempts) * p.RestartPollInterval
}

// Commands are the CLI argument lists for each lifecycle step.
type Commands struct {
	Start     []string `mapstructure:"start_args"`
	Stop      []string `mapstructure:"stop_args"`
	ForceStop []string `mapstructure:"force_stop_args"`
	Logs      []string `mapstructure:"logs_args"`
}

func DefaultCommands() Commands {
	return Commands{
		Start:     []string{"gateway", "start"},
		Stop:      []string{"gateway", "stop"},
		ForceStop: []string{"gateway", "stop", "--force"},
		Logs:      []string{"logs", "--lines"},
	}
}
