package portscan

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strconv"
)

// Lsof inspects listeners with `lsof -t -nP -iTCP:<port> -sTCP:LISTEN`.
type Lsof struct {
	logger *slog.Logger
	output outputFunc
}

func NewLsof(logger *slog.Logger) *Lsof {
	return &Lsof{logger: logger, output: commandOutput}
}

func (l *Lsof) Probe(ctx context.Context, port int) (int, bool) {
	return first(l.FindAll(ctx, port))
}

func (l *Lsof) FindAll(ctx context.Context, port int) []int {
	// only the numeric port is interpolated; no shell is involved
	out, err := l.output(ctx, "lsof", "-t", "-nP", "-iTCP:"+strconv.Itoa(port), "-sTCP:LISTEN")
	if err != nil {
		// lsof exits 1 when nothing matches; that is the common "no listener" path
		var ee *exec.ExitError
		if !errors.As(err, &ee) {
			l.logger.Debug("lsof probe failed", "port", port, "error", err)
		}
		return nil
	}
	return parseLsofPIDs(string(out))
}
