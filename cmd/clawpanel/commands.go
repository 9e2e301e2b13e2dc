package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/loykin/clawpanel"
	"github.com/loykin/clawpanel/pkg/client"
)

type command struct {
	global *GlobalFlags
	open   func() (ops, error)
}

// ops returns the remote client when --api-url is set, otherwise a local Panel.
func (c *command) ops() (ops, error) {
	if c.open != nil {
		return c.open()
	}
	if c.global.APIUrl != "" {
		return remoteOps{c: client.New(client.Config{
			BaseURL: c.global.APIUrl,
			Timeout: c.global.APITimeout,
			Token:   c.global.APIToken,
		})}, nil
	}
	return c.local()
}

func (c *command) local() (localOps, error) {
	cfg, err := loadConfig(c.global)
	if err != nil {
		return localOps{}, err
	}
	l, closer, err := newLogger(cfg)
	if err != nil {
		return localOps{}, err
	}
	p, err := clawpanel.New(cfg, clawpanel.Options{Logger: l})
	if err != nil {
		_ = closer.Close()
		return localOps{}, err
	}
	return localOps{p: p, log: closer}, nil
}

// with opens ops for the duration of fn.
func (c *command) with(fn func(o ops) error) error {
	o, err := c.ops()
	if err != nil {
		return err
	}
	defer func() { _ = o.Close() }()
	return fn(o)
}

func (c *command) message(ctx context.Context, out io.Writer, op func(ops, context.Context) (string, error)) error {
	return c.with(func(o ops) error {
		msg, err := op(o, ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, msg)
		return nil
	})
}

func createStatusCommand(c *command, f *StatusFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the gateway is listening on its port",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.with(func(o ops) error {
				st, err := o.Status(cmd.Context(), f.Detailed)
				if err != nil {
					return err
				}
				printJSON(cmd.OutOrStdout(), st)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&f.Detailed, "detailed", false, "include uptime, memory and cpu")
	return cmd
}

func createStartCommand(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the gateway and wait for it to listen",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.message(cmd.Context(), cmd.OutOrStdout(), ops.Start)
		},
	}
}

func createStopCommand(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the gateway through its own CLI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.message(cmd.Context(), cmd.OutOrStdout(), ops.Stop)
		},
	}
}

func createRestartCommand(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Stop the gateway, wait for the port to free, then start it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.message(cmd.Context(), cmd.OutOrStdout(), ops.Restart)
		},
	}
}

func createKillAllCommand(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "kill-all",
		Short: "Force-kill every process listening on the gateway port",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.message(cmd.Context(), cmd.OutOrStdout(), ops.KillAll)
		},
	}
}

func createLogsCommand(c *command, f *LogsFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the last gateway log lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.Lines < 1 {
				return fmt.Errorf("--lines must be positive")
			}
			return c.with(func(o ops) error {
				lines, err := o.Logs(cmd.Context(), f.Lines)
				if err != nil {
					return err
				}
				for _, l := range lines {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), l)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&f.Lines, "lines", "n", 100, "number of lines")
	return cmd
}

func createSkillsCommand(c *command) *cobra.Command {
	root := &cobra.Command{Use: "skills", Short: "Manage openclaw skills"}
	root.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List installed skills",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.with(func(o ops) error {
					list, err := o.Skills(cmd.Context())
					if err != nil {
						return err
					}
					printJSON(cmd.OutOrStdout(), list)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "install <name>",
			Short: "Install a skill with clawhub",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.message(cmd.Context(), cmd.OutOrStdout(), func(o ops, ctx context.Context) (string, error) {
					return o.InstallSkill(ctx, args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "uninstall <id>",
			Short: "Remove an installed skill directory",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.message(cmd.Context(), cmd.OutOrStdout(), func(o ops, ctx context.Context) (string, error) {
					return o.UninstallSkill(ctx, args[0])
				})
			},
		},
	)
	return root
}

// createClawhubCommand manages the clawhub CLI itself. It always runs locally.
func createClawhubCommand(c *command) *cobra.Command {
	root := &cobra.Command{Use: "clawhub", Short: "Check, install or remove the clawhub CLI"}
	withPanel := func(fn func(p *clawpanel.Panel, cmd *cobra.Command) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			if c.global.APIUrl != "" {
				return errLocalOnly
			}
			l, err := c.local()
			if err != nil {
				return err
			}
			defer func() { _ = l.Close() }()
			return fn(l.p, cmd)
		}
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Report whether clawhub is installed",
			RunE: withPanel(func(p *clawpanel.Panel, cmd *cobra.Command) error {
				ok, err := p.ClawhubInstalled(cmd.Context())
				if err != nil {
					return err
				}
				printJSON(cmd.OutOrStdout(), map[string]bool{"installed": ok})
				return nil
			}),
		},
		&cobra.Command{
			Use:   "install",
			Short: "npm install -g clawhub",
			RunE: withPanel(func(p *clawpanel.Panel, cmd *cobra.Command) error {
				msg, err := p.InstallClawhub(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), msg)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "uninstall",
			Short: "npm uninstall -g clawhub",
			RunE: withPanel(func(p *clawpanel.Panel, cmd *cobra.Command) error {
				msg, err := p.UninstallClawhub(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), msg)
				return nil
			}),
		},
	)
	return root
}

func createOpenClawCommand(c *command) *cobra.Command {
	root := &cobra.Command{Use: "openclaw", Short: "Inspect openclaw.json"}
	root.AddCommand(&cobra.Command{
		Use:   "overview",
		Short: "Show the primary model and configured providers (keys masked)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.with(func(o ops) error {
				ov, err := o.Overview(cmd.Context())
				if err != nil {
					return err
				}
				printJSON(cmd.OutOrStdout(), ov)
				return nil
			})
		},
	})
	return root
}

func createSystemCommand(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "system",
		Short: "Show OS, openclaw and node versions and the config directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.with(func(o ops) error {
				info, err := o.SystemInfo(cmd.Context())
				if err != nil {
					return err
				}
				printJSON(cmd.OutOrStdout(), info)
				return nil
			})
		},
	}
}

func createHistoryCommand(c *command, f *HistoryFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent lifecycle operations (requires a queryable history sink)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.with(func(o ops) error {
				events, err := o.History(cmd.Context(), f.Limit)
				if err != nil {
					return err
				}
				printJSON(cmd.OutOrStdout(), events)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&f.Limit, "limit", 20, "maximum number of events")
	return cmd
}

func createInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init <path>",
		Short: "Write a starter config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clawpanel.WriteDefaultConfig(args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "wrote", args[0])
			return nil
		},
	}
}
