//go:build !windows

package process

import (
	"bufio"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	gopsproc "github.com/shirou/gopsutil/v4/process"
	sysconf "github.com/tklauser/go-sysconf"
)

// StartTime returns the process start time using platform-native methods.
// Returns the zero time when unavailable or on error.
func StartTime(pid int) time.Time {
	if pid <= 0 {
		return time.Time{}
	}
	var secs int64
	switch runtime.GOOS {
	case "linux":
		secs = startUnixLinux(pid)
	default:
		// Darwin/BSD via gopsutil (sysctl under the hood)
		p, err := gopsproc.NewProcess(int32(pid))
		if err != nil {
			return time.Time{}
		}
		ms, err := p.CreateTime()
		if err != nil || ms <= 0 {
			return time.Time{}
		}
		return time.UnixMilli(ms)
	}
	if secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0)
}

// startUnixLinux reads /proc to compute a stable start time without spawning external processes.
func startUnixLinux(pid int) int64 {
	// starttime is field 22 of /proc/[pid]/stat, in clock ticks since boot
	b, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
	if err != nil {
		return 0
	}
	startTicks := parseStatStartTicks(string(b))
	if startTicks <= 0 {
		return 0
	}

	btime := readBootTime()
	if btime == 0 {
		return 0
	}

	clk, err := sysconf.Sysconf(sysconf.SC_CLK_TCK)
	if err != nil || clk <= 0 {
		clk = 100
	}

	return btime + (startTicks / clk)
}

// parseStatStartTicks extracts field 22 from a /proc/[pid]/stat line.
// The comm field may contain spaces, so parsing starts after the last ") ".
func parseStatStartTicks(line string) int64 {
	end := strings.LastIndex(line, ") ")
	if end == -1 {
		return 0
	}
	parts := strings.Fields(line[end+2:])
	// parts[0] is state (field 3); starttime is field 22 => index 19
	if len(parts) < 20 {
		return 0
	}
	v, err := strconv.ParseInt(parts[19], 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func readBootTime() int64 {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return 0
	}
	defer func() { _ = f.Close() }()
	s := bufio.NewScanner(f)
	for s.Scan() {
		text := s.Text()
		if strings.HasPrefix(text, "btime ") {
			if bt, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(text, "btime ")), 10, 64); err == nil {
				return bt
			}
		}
	}
	return 0
}
