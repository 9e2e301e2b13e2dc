package process

import (
	"context"
	"errors"
	"fmt"
	"time"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// ErrGone is returned by ReadStats when the pid no longer exists.
var ErrGone = errors.New("process no longer exists")

// Stats is a point-in-time resource snapshot of one process.
type Stats struct {
	StartedAt  time.Time
	Uptime     time.Duration
	MemoryMB   float64
	CPUPercent float64
}

// ReadStats samples start time, resident memory and CPU usage for pid.
// Memory and CPU come from gopsutil; the start time prefers the native
// lookup in StartTime and falls back to gopsutil's create time.
func ReadStats(ctx context.Context, pid int) (Stats, error) {
	if pid <= 0 {
		return Stats{}, fmt.Errorf("invalid pid %d", pid)
	}
	if !Exists(pid) {
		return Stats{}, fmt.Errorf("pid %d: %w", pid, ErrGone)
	}
	p, err := gopsproc.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return Stats{}, fmt.Errorf("open pid %d: %w", pid, err)
	}

	var st Stats
	st.StartedAt = StartTime(pid)
	if st.StartedAt.IsZero() {
		if ms, err := p.CreateTimeWithContext(ctx); err == nil && ms > 0 {
			st.StartedAt = time.UnixMilli(ms)
		}
	}
	if !st.StartedAt.IsZero() {
		st.Uptime = time.Since(st.StartedAt)
	}
	if mem, err := p.MemoryInfoWithContext(ctx); err == nil && mem != nil {
		st.MemoryMB = float64(mem.RSS) / 1024 / 1024
	}
	if cpu, err := p.CPUPercentWithContext(ctx); err == nil {
		st.CPUPercent = cpu
	}
	return st, nil
}
