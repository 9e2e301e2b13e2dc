// Package clawpanel is the embeddable backend of the openclaw control panel.
// A Panel supervises the openclaw gateway on its fixed port and manages the
// skills and configuration that live under the openclaw home directory.
package clawpanel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/loykin/clawpanel/internal/config"
	"github.com/loykin/clawpanel/internal/env"
	"github.com/loykin/clawpanel/internal/history"
	"github.com/loykin/clawpanel/internal/history/factory"
	"github.com/loykin/clawpanel/internal/metrics"
	"github.com/loykin/clawpanel/internal/openclaw"
	"github.com/loykin/clawpanel/internal/portscan"
	"github.com/loykin/clawpanel/internal/process"
	"github.com/loykin/clawpanel/internal/runner"
	"github.com/loykin/clawpanel/internal/skills"
	"github.com/loykin/clawpanel/internal/supervisor"
	"github.com/loykin/clawpanel/internal/sysinfo"
)

// Re-export the records callers see so embedders need not import internal packages.

type Config = config.Config

type Status = supervisor.Status

type KillReport = supervisor.KillReport

type Skill = skills.Skill

type Overview = openclaw.Overview

type Event = history.Event

type Sample = metrics.Sample

type SystemInfo = sysinfo.Info

// Options overrides collaborators built from Config. Zero fields use the
// real implementations.
type Options struct {
	Logger     *slog.Logger
	Inspector  supervisor.Inspector
	Terminator process.Terminator
	Runner     supervisor.CommandRunner
	History    history.Sink
}

// Panel is the operation surface of the control panel.
type Panel struct {
	cfg     *config.Config
	logger  *slog.Logger
	sup     *supervisor.Supervisor
	skills  *skills.Manager
	sink    history.Sink
	gateway *metrics.GatewayCollector
	system  *sysinfo.Collector
}

// New wires a Panel from c. A nil c uses defaults.
func New(c *config.Config, opts Options) (*Panel, error) {
	if c == nil {
		c = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	insp := opts.Inspector
	if insp == nil {
		pi, err := portscan.New(portscan.Strategy(c.Service.Inspector), logger)
		if err != nil {
			return nil, err
		}
		insp = pi
	}
	term := opts.Terminator
	if term == nil {
		term = process.OSTerminator{}
	}
	run := opts.Runner
	if run == nil {
		pairs, err := c.ServiceEnv()
		if err != nil {
			return nil, fmt.Errorf("service env: %w", err)
		}
		run = runner.New(runner.Config{
			Name:       c.Service.Binary,
			SearchDirs: c.Service.SearchDirs,
			Env:        env.FromPairs(pairs).WithPath(c.Service.SearchDirs...),
			SpawnLog:   c.Service.SpawnLog,
			Logger:     logger.With("component", "runner"),
		})
	}
	sink := opts.History
	if sink == nil && c.History.Enabled {
		s, err := factory.NewSinkFromDSN(c.History.DSN)
		if err != nil {
			return nil, fmt.Errorf("history sink: %w", err)
		}
		sink = s
	}

	sup, err := supervisor.New(supervisor.Options{
		Port:        c.Service.Port,
		Binary:      c.Service.Binary,
		InstallHint: c.Service.InstallHint,
		Commands:    c.Service.Commands(),
		Policy:      c.Policy,
		Inspector:   insp,
		Terminator:  term,
		Runner:      run,
		History:     sink,
		Logger:      logger.With("component", "supervisor"),
	})
	if err != nil {
		_ = history.Close(sink)
		return nil, err
	}
	return &Panel{
		cfg:     c,
		logger:  logger,
		sup:     sup,
		skills:  skills.NewManager(c.Paths.Home, logger),
		sink:    sink,
		gateway: metrics.NewGatewayCollector(c.Metrics.Gateway, logger),
		system:  sysinfo.NewCollector(run, c.Paths.Home, logger),
	}, nil
}

// Config returns the configuration the panel was built from.
func (p *Panel) Config() *config.Config { return p.cfg }

// Port returns the supervised port.
func (p *Panel) Port() int { return p.sup.Port() }

func (p *Panel) Status(ctx context.Context) Status { return p.sup.Status(ctx) }

func (p *Panel) StatusDetails(ctx context.Context) Status { return p.sup.Details(ctx) }

// Start returns "Service started, PID: N".
func (p *Panel) Start(ctx context.Context) (string, error) {
	pid, err := p.sup.Start(ctx)
	if err != nil {
		return "", err
	}
	return supervisor.StartedMessage(pid), nil
}

func (p *Panel) Stop(ctx context.Context) (string, error) {
	if err := p.sup.Stop(ctx); err != nil {
		return "", err
	}
	return supervisor.StoppedMessage, nil
}

// Restart returns "Service restarted, PID: N".
func (p *Panel) Restart(ctx context.Context) (string, error) {
	pid, err := p.sup.Restart(ctx)
	if err != nil {
		return "", err
	}
	return supervisor.RestartedMessage(pid), nil
}

// Logs returns the last n lines of the service log.
func (p *Panel) Logs(ctx context.Context, n int) ([]string, error) { return p.sup.Logs(ctx, n) }

func (p *Panel) KillAll(ctx context.Context) (KillReport, error) { return p.sup.KillAll(ctx) }

// KillAllOnPort is KillAll rendered as a message.
func (p *Panel) KillAllOnPort(ctx context.Context) (string, error) {
	rep, err := p.sup.KillAll(ctx)
	if err != nil {
		return "", err
	}
	return rep.Message(), nil
}

func (p *Panel) Skills() ([]Skill, error) { return p.skills.List() }

// InstallSkill returns the installer output.
func (p *Panel) InstallSkill(ctx context.Context, name string) (string, error) {
	return p.skills.Install(ctx, name)
}

func (p *Panel) UninstallSkill(id string) (string, error) {
	if err := p.skills.Uninstall(id); err != nil {
		return "", err
	}
	return "Skill uninstalled successfully", nil
}

func (p *Panel) ClawhubInstalled(ctx context.Context) (bool, error) {
	return p.skills.ClawhubInstalled(ctx)
}

func (p *Panel) InstallClawhub(ctx context.Context) (string, error) {
	if err := p.skills.InstallClawhub(ctx); err != nil {
		return "", err
	}
	return "Clawhub installed successfully", nil
}

func (p *Panel) UninstallClawhub(ctx context.Context) (string, error) {
	if err := p.skills.UninstallClawhub(ctx); err != nil {
		return "", err
	}
	return "Clawhub uninstalled successfully", nil
}

// OpenClawOverview summarizes openclaw.json. A missing file is an empty overview.
func (p *Panel) OpenClawOverview() (Overview, error) {
	oc, err := openclaw.Load(p.cfg.Paths.OpenClawConfig())
	if err != nil {
		return Overview{}, err
	}
	return oc.Overview(), nil
}

// History returns recent lifecycle events when the configured sink can be queried.
func (p *Panel) History(ctx context.Context, limit int) ([]Event, error) {
	return history.Recent(ctx, p.sink, limit)
}

// SystemInfo reports the OS, whether openclaw and node are available and
// the openclaw config directory.
func (p *Panel) SystemInfo(ctx context.Context) SystemInfo { return p.system.Collect(ctx) }

// Samples returns recorded gateway resource samples, oldest first.
func (p *Panel) Samples(limit int) []Sample { return p.gateway.History(limit) }

// Gateway exposes the resource collector so callers can register and start it.
func (p *Panel) Gateway() *metrics.GatewayCollector { return p.gateway }

// StartSampling runs the gateway collector against the supervised port
// until ctx is done or Close is called.
func (p *Panel) StartSampling(ctx context.Context) {
	p.gateway.Start(ctx, func(ctx context.Context) (int, bool) {
		st := p.sup.Status(ctx)
		return st.ListenerPID(), st.Running
	})
}

// Close stops sampling and releases the history sink.
func (p *Panel) Close() error {
	p.gateway.Stop()
	return history.Close(p.sink)
}

// WriteDefaultConfig writes a commented starter config to path unless it exists.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(config.Sample), 0o600)
}
