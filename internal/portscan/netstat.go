package portscan

import (
	"context"
	"log/slog"
)

// Netstat inspects listeners by dumping `netstat -ano` and filtering rows.
// It is the default on Windows where no lsof-style tool exists.
type Netstat struct {
	logger *slog.Logger
	output outputFunc
}

func NewNetstat(logger *slog.Logger) *Netstat {
	return &Netstat{logger: logger, output: commandOutput}
}

func (n *Netstat) Probe(ctx context.Context, port int) (int, bool) {
	return first(n.FindAll(ctx, port))
}

func (n *Netstat) FindAll(ctx context.Context, port int) []int {
	out, err := n.output(ctx, "netstat", "-ano")
	if err != nil {
		n.logger.Debug("netstat probe failed", "port", port, "error", err)
		return nil
	}
	return parseNetstatPIDs(string(out), port)
}
