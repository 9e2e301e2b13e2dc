package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/loykin/clawpanel/internal/config"
	"github.com/loykin/clawpanel/internal/logger"
)

func printJSON(w io.Writer, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	_, _ = fmt.Fprintln(w, string(b))
}

// loadConfig reads --config and applies --log-level.
func loadConfig(gf *GlobalFlags) (*config.Config, error) {
	cfg, err := config.Load(gf.ConfigPath)
	if err != nil {
		return nil, err
	}
	if gf.LogLevel != "" {
		if _, err := logger.ParseLevel(gf.LogLevel); err != nil {
			return nil, err
		}
		cfg.Log.Level = gf.LogLevel
	}
	return cfg, nil
}

// newLogger builds the process logger and installs it as slog's default.
func newLogger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	l, closer, err := logger.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(l)
	return l, closer, nil
}
