package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/loykin/clawpanel"
	"github.com/loykin/clawpanel/internal/config"
	"github.com/loykin/clawpanel/internal/metrics"
	"github.com/loykin/clawpanel/internal/server"
)

func createServeCommand(gf *GlobalFlags, f *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the panel HTTP API for the desktop UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.Daemonize {
				pid, err := daemonize(f.LogFile)
				if err != nil {
					return err
				}
				if f.PidFile != "" {
					if err := writePidFile(f.PidFile, pid); err != nil {
						return fmt.Errorf("failed to write PID file: %w", err)
					}
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "clawpanel serve started with PID %d\n", pid)
				return nil
			}
			return runServe(cmd.Context(), gf, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.Listen, "listen", "", "override server.listen")
	fl.StringVar(&f.BasePath, "base-path", "", "override server.base_path")
	fl.StringVar(&f.MetricsListen, "metrics-listen", "", "enable Prometheus metrics on this address")
	fl.BoolVar(&f.Daemonize, "daemonize", false, "run in the background")
	fl.StringVar(&f.PidFile, "pidfile", "", "write the server PID here")
	fl.StringVar(&f.LogFile, "logfile", "", "stdout/stderr of the daemonized server")
	return cmd
}

func applyServeFlags(cfg *config.Config, f *ServeFlags) {
	if f.Listen != "" {
		cfg.Server.Listen = f.Listen
	}
	if f.BasePath != "" {
		cfg.Server.BasePath = f.BasePath
	}
	if f.MetricsListen != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Listen = f.MetricsListen
	}
}

// runServe blocks until ctx is cancelled (SIGINT/SIGTERM from main).
func runServe(ctx context.Context, gf *GlobalFlags, f *ServeFlags) error {
	cfg, err := loadConfig(gf)
	if err != nil {
		return err
	}
	applyServeFlags(cfg, f)
	l, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	panel, err := clawpanel.New(cfg, clawpanel.Options{Logger: l})
	if err != nil {
		return err
	}
	defer func() { _ = panel.Close() }()

	if f.PidFile != "" {
		if err := writePidFile(f.PidFile, os.Getpid()); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = removePidFile(f.PidFile) }()
	}

	var msrv *http.Server
	if cfg.Metrics.Enabled {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		if err := panel.Gateway().RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
			return fmt.Errorf("register gateway metrics: %w", err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		msrv = &http.Server{Addr: cfg.Metrics.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := msrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				l.Error("metrics server stopped", "error", err)
			}
		}()
		l.Info("metrics listening", "addr", cfg.Metrics.Listen)
	}
	panel.StartSampling(ctx)

	srv, err := server.NewServer(cfg.Server, panel, l)
	if err != nil {
		return err
	}
	l.Info("panel API listening", "addr", cfg.Server.Listen, "base_path", cfg.Server.BasePath,
		"auth", cfg.Server.Token != "", "port", panel.Port())

	<-ctx.Done()
	l.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if msrv != nil {
		_ = msrv.Shutdown(sctx)
	}
	return srv.Shutdown(sctx)
}
