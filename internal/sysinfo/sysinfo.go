// Package sysinfo reports the host and toolchain facts the panel shows on its
// settings page: OS, architecture, whether openclaw and node are available,
// and where the openclaw configuration lives.
package sysinfo

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/loykin/clawpanel/internal/runner"
)

// Info describes the machine the panel runs on. Versions are nil when the
// tool is missing or its version could not be read.
type Info struct {
	OS                string  `json:"os"`
	OSVersion         string  `json:"os_version"`
	Arch              string  `json:"arch"`
	OpenclawInstalled bool    `json:"openclaw_installed"`
	OpenclawVersion   *string `json:"openclaw_version"`
	NodeVersion       *string `json:"node_version"`
	ConfigDir         string  `json:"config_dir"`
}

// ServiceCLI is the part of the openclaw runner needed here.
type ServiceCLI interface {
	Locate() (string, bool)
	Run(ctx context.Context, args ...string) (runner.Result, error)
}

// ExecFunc runs program with args in dir.
type ExecFunc func(ctx context.Context, dir, program string, args ...string) (runner.Result, error)

// HostFunc returns OS name and version.
type HostFunc func(ctx context.Context) (os, version string, err error)

type Collector struct {
	cli       ServiceCLI
	configDir string
	logger    *slog.Logger
	timeout   time.Duration

	exec ExecFunc
	host HostFunc
}

func NewCollector(cli ServiceCLI, configDir string, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		cli:       cli,
		configDir: configDir,
		logger:    logger.With("component", "sysinfo"),
		timeout:   10 * time.Second,
		exec:      runner.Exec,
		host:      hostInfo,
	}
}

// Collect gathers Info. Missing tools are reported, never returned as errors.
func (c *Collector) Collect(ctx context.Context) Info {
	info := Info{
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		ConfigDir: c.configDir,
	}
	if name, osVer, err := c.host(ctx); err != nil {
		c.logger.Debug("host info unavailable", "error", err)
	} else {
		if name != "" {
			info.OS = name
		}
		info.OSVersion = osVer
	}

	if _, ok := c.cli.Locate(); ok {
		info.OpenclawInstalled = true
		cctx, cancel := context.WithTimeout(ctx, c.timeout)
		res, err := c.cli.Run(cctx, "--version")
		cancel()
		info.OpenclawVersion = version(res, err)
	}

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	res, err := c.exec(cctx, "", "node", "--version")
	cancel()
	info.NodeVersion = version(res, err)
	return info
}

// version is the first non-empty stdout line of a successful run.
func version(res runner.Result, err error) *string {
	if err != nil || !res.Success {
		return nil
	}
	for _, ln := range strings.Split(res.Stdout, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			return &ln
		}
	}
	return nil
}

func hostInfo(ctx context.Context) (string, string, error) {
	hi, err := host.InfoWithContext(ctx)
	if err != nil {
		return "", "", err
	}
	v := hi.PlatformVersion
	if v == "" {
		v = hi.KernelVersion
	}
	return hi.OS, v, nil
}
