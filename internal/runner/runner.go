// Package runner locates the openclaw CLI and invokes it, either
// synchronously with captured output or as a detached long-running child.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/loykin/clawpanel/internal/env"
	"github.com/loykin/clawpanel/internal/process"
)

// Result is the captured outcome of a synchronous invocation. A non-zero
// exit is reported here, not as an error.
type Result struct {
	Success  bool   `json:"success"`
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

type Config struct {
	Name       string   // logical executable name, e.g. "openclaw"
	SearchDirs []string // extra directories probed after PATH
	Env        *env.Env // environment for invocations; nil means OS env
	SpawnLog   string   // append-mode file for detached stdout/stderr; empty discards
	Logger     *slog.Logger
}

// Runner invokes one external executable.
type Runner struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	resolved string

	lookPath func(string) (string, error)
	npmRoot  func(ctx context.Context) string
}

func New(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Env != nil {
		// snapshot once so concurrent invocations only read it
		cfg.Env.FromOS()
	}
	return &Runner{
		cfg:      cfg,
		logger:   logger,
		lookPath: exec.LookPath,
		npmRoot:  npmGlobalBin,
	}
}

// Locate resolves the executable path. "Not found" is a normal outcome.
func (r *Runner) Locate() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolved != "" {
		if fileExists(r.resolved) {
			return r.resolved, true
		}
		r.resolved = ""
	}
	p, ok := r.locate()
	if ok {
		r.resolved = p
	}
	return p, ok
}

func (r *Runner) locate() (string, bool) {
	if p, err := r.lookPath(r.cfg.Name); err == nil {
		if abs, err := filepath.Abs(p); err == nil {
			return abs, true
		}
		return p, true
	}
	for _, dir := range append(append([]string{}, r.cfg.SearchDirs...), defaultSearchDirs()...) {
		for _, cand := range candidateNames(r.cfg.Name) {
			p := filepath.Join(dir, cand)
			if fileExists(p) {
				return p, true
			}
		}
	}
	// npm global prefix last: it costs a subprocess
	if dir := r.npmRoot(context.Background()); dir != "" {
		for _, cand := range candidateNames(r.cfg.Name) {
			p := filepath.Join(dir, cand)
			if fileExists(p) {
				return p, true
			}
		}
	}
	return "", false
}

// Run invokes the executable synchronously and captures its output. The
// returned error covers only failures to execute at all.
func (r *Runner) Run(ctx context.Context, args ...string) (Result, error) {
	path, ok := r.Locate()
	if !ok {
		return Result{}, &NotFoundError{Name: r.cfg.Name}
	}
	r.logger.Debug("run", "cmd", path, "args", args)
	return r.exec(ctx, "", path, args...)
}

// SpawnDetached starts the executable in its own session/process group with
// no pipes back to the caller, so it outlives the panel. Success only means
// the OS accepted the exec request.
func (r *Runner) SpawnDetached(args ...string) error {
	path, ok := r.Locate()
	if !ok {
		return &NotFoundError{Name: r.cfg.Name}
	}
	// #nosec G204 -- resolved executable with configured arguments, no shell
	cmd := exec.Command(path, args...)
	cmd.SysProcAttr = process.DetachedAttrs()
	cmd.Stdin = nil
	if r.cfg.Env != nil {
		cmd.Env = r.cfg.Env.Merge(nil)
	}
	var logFile *os.File
	if r.cfg.SpawnLog != "" {
		if err := os.MkdirAll(filepath.Dir(r.cfg.SpawnLog), 0o750); err != nil {
			return fmt.Errorf("spawn log dir: %w", err)
		}
		f, err := os.OpenFile(r.cfg.SpawnLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open spawn log: %w", err)
		}
		logFile = f
		cmd.Stdout = f
		cmd.Stderr = f
	}
	if err := cmd.Start(); err != nil {
		if logFile != nil {
			_ = logFile.Close()
		}
		return err
	}
	r.logger.Info("spawned detached", "cmd", path, "args", args, "pid", cmd.Process.Pid)
	// the child keeps its own copy of the log fd
	if logFile != nil {
		_ = logFile.Close()
	}
	// reap when it exits so no zombie lingers while the panel is alive
	go func() { _ = cmd.Wait() }()
	return nil
}

func (r *Runner) exec(ctx context.Context, dir, program string, args ...string) (Result, error) {
	var e []string
	if r.cfg.Env != nil {
		e = r.cfg.Env.Merge(nil)
	}
	return run(ctx, dir, e, program, args...)
}

// Exec runs an arbitrary program synchronously in dir (empty = current
// directory) with the OS environment. Used for helper tools such as npx.
func Exec(ctx context.Context, dir, program string, args ...string) (Result, error) {
	return run(ctx, dir, nil, program, args...)
}

func run(ctx context.Context, dir string, environ []string, program string, args ...string) (Result, error) {
	// #nosec G204 -- callers pass fixed program names and validated arguments
	cmd := exec.CommandContext(ctx, program, args...)
	cmd.SysProcAttr = process.HiddenAttrs()
	cmd.Dir = dir
	if environ != nil {
		cmd.Env = environ
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Stdin = nil

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		res.Success = true
		return res, nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		res.ExitCode = ee.ExitCode()
		return res, nil
	}
	return res, fmt.Errorf("exec %s: %w", filepath.Base(program), err)
}

// NotFoundError reports that the executable could not be located.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return e.Name + " command not found"
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}
