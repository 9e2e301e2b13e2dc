package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/clawpanel/internal/logger"
	"github.com/loykin/clawpanel/internal/metrics"
	"github.com/loykin/clawpanel/internal/portscan"
	"github.com/loykin/clawpanel/internal/supervisor"
)

// EnvPrefix prefixes environment overrides, e.g. CLAWPANEL_SERVICE_PORT.
const EnvPrefix = "CLAWPANEL"

// DefaultInstallHint is appended to "openclaw command not found".
const DefaultInstallHint = "please install it via npm install -g openclaw"

// Config represents the top-level TOML structure.
type Config struct {
	Service ServiceConfig     `mapstructure:"service"`
	Policy  supervisor.Policy `mapstructure:"policy"`
	Paths   PathsConfig       `mapstructure:"paths"`
	Log     logger.Config     `mapstructure:"log"`
	Server  ServerConfig      `mapstructure:"server"`
	Metrics MetricsConfig     `mapstructure:"metrics"`
	History HistoryConfig     `mapstructure:"history"`

	// File is the config file that was read, empty when running on defaults.
	File string `mapstructure:"-"`
}

type ServiceConfig struct {
	Port        int      `mapstructure:"port"`
	Binary      string   `mapstructure:"binary"`
	SearchDirs  []string `mapstructure:"search_dirs"`
	StartArgs   []string `mapstructure:"start_args"`
	StopArgs    []string `mapstructure:"stop_args"`
	ForceArgs   []string `mapstructure:"force_stop_args"`
	LogsArgs    []string `mapstructure:"logs_args"`
	InstallHint string   `mapstructure:"install_hint"`
	SpawnLog    string   `mapstructure:"spawn_log"`
	Env         []string `mapstructure:"env"`
	EnvFiles    []string `mapstructure:"env_files"`
	Inspector   string   `mapstructure:"inspector"`
}

// Commands converts the argument lists into supervisor commands.
func (s ServiceConfig) Commands() supervisor.Commands {
	return supervisor.Commands{Start: s.StartArgs, Stop: s.StopArgs, ForceStop: s.ForceArgs, Logs: s.LogsArgs}
}

type PathsConfig struct {
	Home string `mapstructure:"home"`
}

// SkillsDir is where installed skills live.
func (p PathsConfig) SkillsDir() string { return filepath.Join(p.Home, "skills") }

// OpenClawConfig is the openclaw.json path.
func (p PathsConfig) OpenClawConfig() string { return filepath.Join(p.Home, "openclaw.json") }

type ServerConfig struct {
	Listen   string `mapstructure:"listen"`
	BasePath string `mapstructure:"base_path"`
	// Token, when set, is required as a bearer token on every API request.
	Token string `mapstructure:"token"`
}

type MetricsConfig struct {
	Enabled bool                  `mapstructure:"enabled"`
	Listen  string                `mapstructure:"listen"`
	Gateway metrics.GatewayConfig `mapstructure:"gateway"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

func setDefaults(v *viper.Viper) {
	def := supervisor.DefaultCommands()
	pol := supervisor.DefaultPolicy()

	v.SetDefault("service.port", supervisor.DefaultPort)
	v.SetDefault("service.binary", "openclaw")
	v.SetDefault("service.search_dirs", []string{})
	v.SetDefault("service.start_args", def.Start)
	v.SetDefault("service.stop_args", def.Stop)
	v.SetDefault("service.force_stop_args", def.ForceStop)
	v.SetDefault("service.logs_args", def.Logs)
	v.SetDefault("service.install_hint", DefaultInstallHint)
	v.SetDefault("service.spawn_log", "")
	v.SetDefault("service.env", []string{})
	v.SetDefault("service.env_files", []string{})
	v.SetDefault("service.inspector", string(portscan.StrategyAuto))

	v.SetDefault("policy.start_poll_interval", pol.StartPollInterval)
	v.SetDefault("policy.start_attempts", pol.StartAttempts)
	v.SetDefault("policy.stop_settle", pol.StopSettle)
	v.SetDefault("policy.restart_poll_interval", pol.RestartPollInterval)
	v.SetDefault("policy.restart_attempts", pol.RestartAttempts)
	v.SetDefault("policy.command_timeout", pol.CommandTimeout)

	v.SetDefault("paths.home", "~/.openclaw")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", logger.DefaultMaxSizeMB)
	v.SetDefault("log.max_backups", logger.DefaultMaxBackups)
	v.SetDefault("log.max_age_days", logger.DefaultMaxAgeDays)
	v.SetDefault("log.compress", false)
	v.SetDefault("log.color", true)
	v.SetDefault("log.show_time", false)

	v.SetDefault("server.listen", "127.0.0.1:18790")
	v.SetDefault("server.base_path", "/api")
	v.SetDefault("server.token", "")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", "127.0.0.1:18791")
	v.SetDefault("metrics.gateway.enabled", false)
	v.SetDefault("metrics.gateway.interval", 5*time.Second)
	v.SetDefault("metrics.gateway.max_history", 120)

	v.SetDefault("history.enabled", false)
	v.SetDefault("history.dsn", "")
}

// Load reads the optional TOML file at path on top of defaults and applies
// CLAWPANEL_* environment overrides. An empty path loads defaults only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	c.File = path
	if err := c.normalize(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c, err := Load("")
	if err != nil {
		// defaults are static; failing here is a programming error
		panic(err)
	}
	return c
}

func (c *Config) normalize() error {
	home, err := ExpandHome(c.Paths.Home)
	if err != nil {
		return err
	}
	c.Paths.Home = home
	if c.Service.SpawnLog, err = ExpandHome(c.Service.SpawnLog); err != nil {
		return err
	}
	if c.Log.File, err = ExpandHome(c.Log.File); err != nil {
		return err
	}
	for i, d := range c.Service.SearchDirs {
		if c.Service.SearchDirs[i], err = ExpandHome(d); err != nil {
			return err
		}
	}
	if c.History.Enabled && c.History.DSN == "" {
		c.History.DSN = "sqlite://" + filepath.Join(c.Paths.Home, "clawpanel-history.db")
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") {
		c.Server.BasePath = "/" + c.Server.BasePath
	}
	return nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		errs = append(errs, fmt.Errorf("service.port %d out of range 1..65535", c.Service.Port))
	}
	if strings.TrimSpace(c.Service.Binary) == "" {
		errs = append(errs, errors.New("service.binary must not be empty"))
	}
	if len(c.Service.StartArgs) == 0 || len(c.Service.StopArgs) == 0 || len(c.Service.ForceArgs) == 0 || len(c.Service.LogsArgs) == 0 {
		errs = append(errs, errors.New("service start/stop/force_stop/logs args must not be empty"))
	}
	if !portscan.ValidStrategy(c.Service.Inspector) {
		errs = append(errs, fmt.Errorf("service.inspector %q is not one of auto, lsof, netstat, socket-table", c.Service.Inspector))
	}
	if err := c.Policy.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("policy: %w", err))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	if c.Paths.Home == "" {
		errs = append(errs, errors.New("paths.home must not be empty"))
	}
	return errors.Join(errs...)
}

// ServiceEnv returns env_files contents followed by the inline env list, so
// inline entries win.
func (c *Config) ServiceEnv() ([]string, error) {
	var out []string
	for _, p := range c.Service.EnvFiles {
		pairs, err := LoadEnvFile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, pairs...)
	}
	return append(out, c.Service.Env...), nil
}

// LoadEnvFile parses a simple .env file and returns "KEY=VALUE" entries in file order.
func LoadEnvFile(path string) ([]string, error) {
	p, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(filepath.Clean(p))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		if i := strings.IndexByte(line, '='); i > 0 {
			k := strings.TrimSpace(line[:i])
			v := strings.Trim(strings.TrimSpace(line[i+1:]), `"'`)
			out = append(out, k+"="+v)
		}
	}
	return out, nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, `~\`) {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}
