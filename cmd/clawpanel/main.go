package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	// Ctrl-C cancels an in-flight start or restart poll
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := buildRoot().ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags are shared by every subcommand.
type GlobalFlags struct {
	ConfigPath string
	APIUrl     string // when set, operations go to a running `clawpanel serve`
	APITimeout time.Duration
	APIToken   string
	LogLevel   string
}

func buildRoot() *cobra.Command { return buildRootWith(nil) }

// buildRootWith lets tests supply the operation backend.
func buildRootWith(open func() (ops, error)) *cobra.Command {
	gf := &GlobalFlags{}
	c := &command{global: gf, open: open}

	root := createRootCommand(gf)
	root.AddCommand(
		createStatusCommand(c, &StatusFlags{}),
		createStartCommand(c),
		createStopCommand(c),
		createRestartCommand(c),
		createLogsCommand(c, &LogsFlags{}),
		createKillAllCommand(c),
		createSkillsCommand(c),
		createClawhubCommand(c),
		createOpenClawCommand(c),
		createHistoryCommand(c, &HistoryFlags{}),
		createSystemCommand(c),
		createServeCommand(gf, &ServeFlags{}),
		createInitCommand(),
	)
	return root
}

func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "clawpanel",
		Short: "Control panel backend for the openclaw gateway",
		Long: `clawpanel starts, stops and inspects the openclaw gateway on its
fixed port, and manages openclaw skills and configuration.

Examples:
  clawpanel status --detailed
  clawpanel restart
  clawpanel logs --lines 50
  clawpanel serve                                   # HTTP API for the desktop UI
  clawpanel status --api-url=http://127.0.0.1:18790/api`,
		SilenceUsage: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	pf.StringVar(&flags.APIUrl, "api-url", "", "send operations to a running clawpanel serve at this URL")
	pf.StringVar(&flags.APIToken, "api-token", os.Getenv("CLAWPANEL_SERVER_TOKEN"), "bearer token for --api-url")
	pf.DurationVar(&flags.APITimeout, "api-timeout", 60*time.Second, "HTTP timeout for --api-url")
	pf.StringVar(&flags.LogLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	return root
}
