package portscan

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"testing"

	gopsnet "github.com/shirou/gopsutil/v4/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedOutput(out string, err error) outputFunc {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(out), err
	}
}

func TestLsofInspector(t *testing.T) {
	var gotArgs []string
	l := NewLsof(quietLogger())
	l.output = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = append([]string{name}, args...)
		return []byte("111\n222\n111\n"), nil
	}

	assert.Equal(t, []int{111, 222}, l.FindAll(context.Background(), 18789))
	assert.Equal(t, []string{"lsof", "-t", "-nP", "-iTCP:18789", "-sTCP:LISTEN"}, gotArgs)

	pid, ok := l.Probe(context.Background(), 18789)
	require.True(t, ok)
	assert.Equal(t, 111, pid)
}

func TestLsofInspectorNoListener(t *testing.T) {
	l := NewLsof(quietLogger())
	l.output = fixedOutput("", &exec.ExitError{})

	pid, ok := l.Probe(context.Background(), 18789)
	assert.False(t, ok)
	assert.Zero(t, pid)
	assert.Empty(t, l.FindAll(context.Background(), 18789))
}

func TestLsofInspectorToolMissing(t *testing.T) {
	l := NewLsof(quietLogger())
	l.output = fixedOutput("", exec.ErrNotFound)

	_, ok := l.Probe(context.Background(), 18789)
	assert.False(t, ok)
}

func TestNetstatInspector(t *testing.T) {
	n := NewNetstat(quietLogger())
	n.output = fixedOutput(netstatSample, nil)

	assert.Equal(t, []int{4242, 5151}, n.FindAll(context.Background(), 18789))
	pid, ok := n.Probe(context.Background(), 18789)
	require.True(t, ok)
	assert.Equal(t, 4242, pid)
}

func TestNetstatInspectorFailure(t *testing.T) {
	n := NewNetstat(quietLogger())
	n.output = fixedOutput("", errors.New("boom"))

	assert.Empty(t, n.FindAll(context.Background(), 18789))
	_, ok := n.Probe(context.Background(), 18789)
	assert.False(t, ok)
}

func TestSocketTableInspector(t *testing.T) {
	s := NewSocketTable(quietLogger())
	s.connections = func(ctx context.Context) ([]gopsnet.ConnectionStat, error) {
		return []gopsnet.ConnectionStat{
			{Status: "LISTEN", Laddr: gopsnet.Addr{IP: "0.0.0.0", Port: 18789}, Pid: 10},
			{Status: "ESTABLISHED", Laddr: gopsnet.Addr{IP: "127.0.0.1", Port: 18789}, Pid: 11},
			{Status: "LISTEN", Laddr: gopsnet.Addr{IP: "::", Port: 18789}, Pid: 10},
			{Status: "LISTEN", Laddr: gopsnet.Addr{IP: "0.0.0.0", Port: 80}, Pid: 12},
			{Status: "LISTEN", Laddr: gopsnet.Addr{IP: "::1", Port: 18789}, Pid: 13},
			{Status: "LISTEN", Laddr: gopsnet.Addr{IP: "0.0.0.0", Port: 18789}, Pid: 0},
		}, nil
	}

	assert.Equal(t, []int{10, 13}, s.FindAll(context.Background(), 18789))
}

func TestSocketTableInspectorFailure(t *testing.T) {
	s := NewSocketTable(quietLogger())
	s.connections = func(ctx context.Context) ([]gopsnet.ConnectionStat, error) {
		return nil, errors.New("permission denied")
	}
	_, ok := s.Probe(context.Background(), 18789)
	assert.False(t, ok)
}

func TestNewStrategies(t *testing.T) {
	for _, s := range []Strategy{StrategyLsof, StrategyNetstat, StrategySocketTable, StrategyAuto, ""} {
		insp, err := New(s, nil)
		require.NoError(t, err, s)
		require.NotNil(t, insp, s)
	}

	_, err := New("bogus", nil)
	assert.Error(t, err)
	assert.False(t, ValidStrategy("bogus"))
	assert.True(t, ValidStrategy("socket-table"))
}
