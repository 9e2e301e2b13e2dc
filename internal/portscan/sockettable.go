package portscan

import (
	"context"
	"log/slog"

	gopsnet "github.com/shirou/gopsutil/v4/net"
)

// SocketTable reads the kernel socket table through gopsutil. It needs no
// external tool, which makes it the fallback when lsof is not installed.
type SocketTable struct {
	logger      *slog.Logger
	connections func(ctx context.Context) ([]gopsnet.ConnectionStat, error)
}

func NewSocketTable(logger *slog.Logger) *SocketTable {
	return &SocketTable{
		logger: logger,
		connections: func(ctx context.Context) ([]gopsnet.ConnectionStat, error) {
			return gopsnet.ConnectionsWithContext(ctx, "tcp")
		},
	}
}

func (s *SocketTable) Probe(ctx context.Context, port int) (int, bool) {
	return first(s.FindAll(ctx, port))
}

func (s *SocketTable) FindAll(ctx context.Context, port int) []int {
	conns, err := s.connections(ctx)
	if err != nil {
		s.logger.Debug("socket table probe failed", "port", port, "error", err)
		return nil
	}
	var pids []int
	seen := make(map[int]struct{})
	for _, c := range conns {
		if c.Status != "LISTEN" || int(c.Laddr.Port) != port || c.Pid <= 0 {
			continue
		}
		pid := int(c.Pid)
		if _, dup := seen[pid]; dup {
			continue
		}
		seen[pid] = struct{}{}
		pids = append(pids, pid)
	}
	return pids
}
