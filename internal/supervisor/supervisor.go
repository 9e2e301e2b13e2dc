// Package supervisor drives the externally owned openclaw gateway through
// start, stop and restart using the only signal it exposes: whether some
// process listens on its port. Every operation re-derives state from a fresh
// probe; nothing about the service is cached between calls.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/loykin/clawpanel/internal/history"
	"github.com/loykin/clawpanel/internal/metrics"
	"github.com/loykin/clawpanel/internal/process"
	"github.com/loykin/clawpanel/internal/runner"
)

// Inspector finds listeners on a TCP port.
type Inspector interface {
	Probe(ctx context.Context, port int) (int, bool)
	FindAll(ctx context.Context, port int) []int
}

// CommandRunner invokes the service CLI.
type CommandRunner interface {
	Locate() (string, bool)
	Run(ctx context.Context, args ...string) (runner.Result, error)
	SpawnDetached(args ...string) error
}

// Options wires a Supervisor. Inspector, Terminator and Runner are required.
type Options struct {
	Port        int
	Binary      string // logical executable name, used in messages
	InstallHint string
	Commands    Commands
	Policy      Policy

	Inspector  Inspector
	Terminator process.Terminator
	Runner     CommandRunner
	History    history.Sink
	Logger     *slog.Logger

	// Sleep waits d or until ctx is done. Tests replace it to avoid real waits.
	Sleep func(ctx context.Context, d time.Duration) error
	// Stats samples a running listener for Details.
	Stats func(ctx context.Context, pid int) (process.Stats, error)
}

// Supervisor manages exactly one service identified by its port.
type Supervisor struct {
	port        int
	binary      string
	installHint string
	cmds        Commands
	policy      Policy

	insp    Inspector
	term    process.Terminator
	run     CommandRunner
	sink    history.Sink
	logger  *slog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
	stats   func(ctx context.Context, pid int) (process.Stats, error)
	gate    sync.Mutex
	nowFunc func() time.Time
}

func New(opts Options) (*Supervisor, error) {
	if opts.Inspector == nil || opts.Terminator == nil || opts.Runner == nil {
		return nil, errors.New("supervisor: inspector, terminator and runner are required")
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.Port < 1 || opts.Port > 65535 {
		return nil, fmt.Errorf("supervisor: invalid port %d", opts.Port)
	}
	if opts.Policy == (Policy{}) {
		opts.Policy = DefaultPolicy()
	}
	if err := opts.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("supervisor: %w", err)
	}
	def := DefaultCommands()
	if len(opts.Commands.Start) == 0 {
		opts.Commands.Start = def.Start
	}
	if len(opts.Commands.Stop) == 0 {
		opts.Commands.Stop = def.Stop
	}
	if len(opts.Commands.ForceStop) == 0 {
		opts.Commands.ForceStop = def.ForceStop
	}
	if len(opts.Commands.Logs) == 0 {
		opts.Commands.Logs = def.Logs
	}
	if opts.Binary == "" {
		opts.Binary = "openclaw"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepCtx
	}
	if opts.Stats == nil {
		opts.Stats = process.ReadStats
	}
	return &Supervisor{
		port:        opts.Port,
		binary:      opts.Binary,
		installHint: opts.InstallHint,
		cmds:        opts.Commands,
		policy:      opts.Policy,
		insp:        opts.Inspector,
		term:        opts.Terminator,
		run:         opts.Runner,
		sink:        opts.History,
		logger:      opts.Logger.With("port", opts.Port),
		sleep:       opts.Sleep,
		stats:       opts.Stats,
		nowFunc:     time.Now,
	}, nil
}

// Port returns the managed port.
func (s *Supervisor) Port() int { return s.port }

// Status is a single probe of the port. It has no side effects beyond the
// service-up gauge.
func (s *Supervisor) Status(ctx context.Context) Status {
	pid, ok := s.insp.Probe(ctx, s.port)
	metrics.SetServiceUp(s.port, ok)
	st := Status{Running: ok, Port: s.port}
	if ok {
		st.PID = &pid
	}
	return st
}

// Details is Status plus uptime, memory and CPU of the listener when running.
// A failed sample leaves those fields empty.
func (s *Supervisor) Details(ctx context.Context) Status {
	st := s.Status(ctx)
	if !st.Running {
		return st
	}
	pid := st.ListenerPID()
	ps, err := s.stats(ctx, pid)
	if err != nil {
		s.logger.Debug("read listener stats", "pid", pid, "error", err)
		return st
	}
	if !ps.StartedAt.IsZero() {
		up := uint64(ps.Uptime / time.Second)
		st.UptimeSeconds = &up
	}
	mem, cpu := ps.MemoryMB, ps.CPUPercent
	st.MemoryMB = &mem
	st.CPUPercent = &cpu
	return st
}

// Start spawns the service and waits for the port to gain a listener. With
// ErrAlreadyRunning the returned pid is the existing listener.
func (s *Supervisor) Start(ctx context.Context) (pid int, err error) {
	if !s.gate.TryLock() {
		return 0, ErrBusy
	}
	defer s.gate.Unlock()

	began := s.nowFunc()
	defer func() { s.record(ctx, history.EventStart, began, pid, err, StartedMessage(pid)) }()

	s.logger.Info("starting service")
	if cur, running := s.insp.Probe(ctx, s.port); running {
		s.logger.Info("service already running", "pid", cur)
		return cur, ErrAlreadyRunning
	}
	return s.spawnAndWait(ctx, "start")
}

// spawnAndWait is the start phase shared by Start and Restart.
func (s *Supervisor) spawnAndWait(ctx context.Context, op string) (int, error) {
	path, ok := s.run.Locate()
	if !ok {
		s.logger.Info("executable not found", "name", s.binary)
		return 0, &ExecutableNotFoundError{Name: s.binary, Hint: s.installHint}
	}
	s.logger.Debug("resolved executable", "path", path)

	if err := s.run.SpawnDetached(s.cmds.Start...); err != nil {
		return 0, &SpawnError{Err: err}
	}

	s.logger.Info("waiting for port to listen")
	for i := 1; i <= s.policy.StartAttempts; i++ {
		if err := s.sleep(ctx, s.policy.StartPollInterval); err != nil {
			return 0, fmt.Errorf("%s cancelled: %w", op, err)
		}
		if pid, ok := s.insp.Probe(ctx, s.port); ok {
			s.logger.Info("service listening", "op", op, "attempt", i, "pid", pid)
			return pid, nil
		}
		if i%3 == 0 {
			s.logger.Debug("still waiting", "op", op, "attempt", i)
		}
	}
	// the spawned child is deliberately left running for diagnosis
	s.logger.Warn("port never became ready", "op", op, "waited", s.policy.startBudget())
	return 0, &StartTimeoutError{Op: op, Port: s.port, Waited: s.policy.startBudget()}
}

// Stop asks the service to stop, escalating once to the forced variant of
// the stop command. It never kills processes itself; see KillAll.
func (s *Supervisor) Stop(ctx context.Context) (err error) {
	if !s.gate.TryLock() {
		return ErrBusy
	}
	defer s.gate.Unlock()

	began := s.nowFunc()
	var pid int
	defer func() { s.record(ctx, history.EventStop, began, pid, err, StoppedMessage) }()

	s.logger.Info("stopping service")
	if pid, err = s.stopCommands(ctx, true); err != nil {
		return err
	}
	if pid != 0 {
		s.logger.Warn("service still listening after forced stop", "pid", pid)
		return &StopFailedError{Port: s.port, PID: pid}
	}
	s.logger.Info("service stopped")
	return nil
}

// stopCommands runs graceful stop, settles, probes, and if the port is still
// held runs the forced stop and settles again. With probeAfterForce it
// returns the listener remaining after the forced stop (0 when clear).
func (s *Supervisor) stopCommands(ctx context.Context, probeAfterForce bool) (int, error) {
	if err := s.invoke(ctx, s.cmds.Stop); err != nil {
		return 0, err
	}
	if err := s.sleep(ctx, s.policy.StopSettle); err != nil {
		return 0, fmt.Errorf("stop cancelled: %w", err)
	}
	if _, running := s.insp.Probe(ctx, s.port); !running {
		return 0, nil
	}

	s.logger.Info("service still running, trying force stop")
	if err := s.invoke(ctx, s.cmds.ForceStop); err != nil {
		return 0, err
	}
	if err := s.sleep(ctx, s.policy.StopSettle); err != nil {
		return 0, fmt.Errorf("stop cancelled: %w", err)
	}
	if !probeAfterForce {
		return 0, nil
	}
	pid, _ := s.insp.Probe(ctx, s.port)
	return pid, nil
}

// invoke runs a stop command. A non-zero exit is logged only, since the
// exit code does not tell whether the port was freed. A command that could
// not run at all is returned as a CommandError.
func (s *Supervisor) invoke(ctx context.Context, args []string) error {
	cctx, cancel := context.WithTimeout(ctx, s.policy.CommandTimeout)
	defer cancel()
	res, err := s.run.Run(cctx, args...)
	if err != nil {
		s.logger.Warn("command failed to run", "args", args, "error", err)
		return &CommandError{Op: "stop service", Args: args, Err: err}
	}
	if !res.Success {
		s.logger.Debug("command exited non-zero", "args", args, "exit_code", res.ExitCode, "stderr", strings.TrimSpace(res.Stderr))
	}
	return nil
}

// Restart stops the service if it is running, waits for the port to free,
// then runs the same start phase as Start.
func (s *Supervisor) Restart(ctx context.Context) (pid int, err error) {
	if !s.gate.TryLock() {
		return 0, ErrBusy
	}
	defer s.gate.Unlock()

	began := s.nowFunc()
	defer func() { s.record(ctx, history.EventRestart, began, pid, err, RestartedMessage(pid)) }()

	s.logger.Info("restarting service")
	if cur, running := s.insp.Probe(ctx, s.port); running {
		s.logger.Info("service is running, stopping first", "pid", cur)
		if _, err := s.stopCommands(ctx, false); err != nil {
			return 0, err
		}
		if err := s.waitPortFree(ctx); err != nil {
			return 0, err
		}
	} else {
		s.logger.Info("service was not running")
	}
	return s.spawnAndWait(ctx, "restart")
}

func (s *Supervisor) waitPortFree(ctx context.Context) error {
	var last int
	for i := 1; i <= s.policy.RestartAttempts; i++ {
		pid, running := s.insp.Probe(ctx, s.port)
		if !running {
			s.logger.Info("port freed", "after", time.Duration(i)*s.policy.RestartPollInterval)
			return nil
		}
		last = pid
		if i == s.policy.RestartAttempts {
			break
		}
		if err := s.sleep(ctx, s.policy.RestartPollInterval); err != nil {
			return fmt.Errorf("restart cancelled: %w", err)
		}
	}
	s.logger.Warn("port still in use", "pid", last, "waited", s.policy.restartStopBudget())
	return &RestartStopTimeoutError{Port: s.port, PID: last, Waited: s.policy.restartStopBudget()}
}

// Logs returns up to n lines of service logs as produced by the CLI.
func (s *Supervisor) Logs(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		n = DefaultLogLines
	}
	args := append(append([]string{}, s.cmds.Logs...), strconv.Itoa(n))
	cctx, cancel := context.WithTimeout(ctx, s.policy.CommandTimeout)
	defer cancel()

	res, err := s.run.Run(cctx, args...)
	if err != nil {
		return nil, &CommandError{Op: "read logs", Args: args, Err: err}
	}
	if !res.Success {
		return nil, &CommandError{Op: "read logs", Args: args, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return splitLines(res.Stdout), nil
}

// KillAll force-kills every listener on the port. Each pid is attempted
// independently; one failure never prevents the others.
func (s *Supervisor) KillAll(ctx context.Context) (rep KillReport, err error) {
	if !s.gate.TryLock() {
		return KillReport{Port: s.port}, ErrBusy
	}
	defer s.gate.Unlock()

	began := s.nowFunc()
	defer func() { s.record(ctx, history.EventKillAll, began, 0, err, rep.Message()) }()

	rep = KillReport{Port: s.port}
	rep.PIDs = s.insp.FindAll(ctx, s.port)
	if len(rep.PIDs) == 0 {
		s.logger.Info("kill all: no processes found")
		return rep, nil
	}
	s.logger.Info("kill all: found processes", "count", len(rep.PIDs), "pids", rep.PIDs)

	for _, pid := range rep.PIDs {
		if kerr := s.term.Kill(pid); kerr != nil {
			s.logger.Warn("kill all: failed to kill", "pid", pid, "error", kerr)
			if rep.Failures == nil {
				rep.Failures = make(map[int]string)
			}
			rep.Failures[pid] = kerr.Error()
			rep.Failed++
			metrics.IncKillAttempt(string(history.OutcomeFailed))
			continue
		}
		s.logger.Info("kill all: killed", "pid", pid)
		rep.Killed++
		metrics.IncKillAttempt(string(history.OutcomeOK))
	}
	s.logger.Info("kill all: done", "killed", rep.Killed, "failed", rep.Failed)
	return rep, nil
}

// record reports a finished mutating operation to metrics and history.
// Sink failures are logged, never returned.
func (s *Supervisor) record(ctx context.Context, typ history.EventType, began time.Time, pid int, err error, okMsg string) {
	outcome := history.OutcomeOK
	msg := okMsg
	if err != nil {
		outcome = history.OutcomeFailed
		msg = err.Error()
	}
	metrics.ObserveOperation(string(typ), string(outcome), s.nowFunc().Sub(began))
	if s.sink == nil {
		return
	}
	e := history.Event{
		Type:       typ,
		OccurredAt: s.nowFunc().UTC(),
		Port:       s.port,
		PID:        pid,
		Outcome:    outcome,
		Message:    msg,
	}
	// the operation context may already be cancelled; history still gets written
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if serr := s.sink.Send(hctx, e); serr != nil {
		s.logger.Warn("history sink failed", "event", typ, "error", serr)
	}
}

func splitLines(out string) []string {
	out = strings.TrimSuffix(out, "\n")
	if out == "" {
		return []string{}
	}
	lines := strings.Split(out, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
