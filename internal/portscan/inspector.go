// Package portscan answers "which processes listen on this TCP port" without
// any cooperation from those processes. Each strategy reads the OS socket
// table its own way and returns the same normalized result: process ids.
package portscan

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
)

// Inspector finds the processes holding a listening TCP socket on a port.
// Probe failures never surface as errors: a probe that cannot run reports
// no listener.
type Inspector interface {
	// Probe returns the first listener found. Order is whatever the OS
	// emits, so callers must not read meaning into "first".
	Probe(ctx context.Context, port int) (pid int, ok bool)
	// FindAll returns every distinct listener pid.
	FindAll(ctx context.Context, port int) []int
}

// Strategy names an inspector implementation.
type Strategy string

const (
	StrategyAuto        Strategy = "auto"
	StrategyLsof        Strategy = "lsof"
	StrategyNetstat     Strategy = "netstat"
	StrategySocketTable Strategy = "socket-table"
)

// New returns the inspector for strategy. StrategyAuto selects netstat on
// Windows, lsof when it is on PATH, and the gopsutil socket table otherwise.
func New(strategy Strategy, logger *slog.Logger) (Inspector, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch strategy {
	case "", StrategyAuto:
		if runtime.GOOS == "windows" {
			return NewNetstat(logger), nil
		}
		if _, err := exec.LookPath("lsof"); err == nil {
			return NewLsof(logger), nil
		}
		logger.Debug("lsof not found, using socket table inspector")
		return NewSocketTable(logger), nil
	case StrategyLsof:
		return NewLsof(logger), nil
	case StrategyNetstat:
		return NewNetstat(logger), nil
	case StrategySocketTable:
		return NewSocketTable(logger), nil
	default:
		return nil, fmt.Errorf("unknown inspector strategy %q", strategy)
	}
}

// ValidStrategy reports whether s names a known strategy.
func ValidStrategy(s string) bool {
	switch Strategy(s) {
	case "", StrategyAuto, StrategyLsof, StrategyNetstat, StrategySocketTable:
		return true
	}
	return false
}

// outputFunc runs a probe tool and returns its stdout.
type outputFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func first(pids []int) (int, bool) {
	if len(pids) == 0 {
		return 0, false
	}
	return pids[0], true
}
