package process

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires Unix-like environment")
	}
}

func TestOSTerminatorKillsChild(t *testing.T) {
	requireUnix(t)
	// #nosec G204
	cmd := exec.Command("/bin/sh", "-c", "sleep 30")
	require.NoError(t, cmd.Start())
	pid := cmd.Process.Pid

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	require.NoError(t, OSTerminator{}.Kill(pid))

	select {
	case err := <-done:
		require.Error(t, err, "killed child must not exit cleanly")
	case <-time.After(5 * time.Second):
		t.Fatalf("child %d still running after Kill", pid)
	}
	assert.False(t, Exists(pid))

	_, err := ReadStats(context.Background(), pid)
	assert.ErrorIs(t, err, ErrGone)
}

func TestOSTerminatorRejectsInvalidPID(t *testing.T) {
	assert.Error(t, OSTerminator{}.Kill(0))
	assert.Error(t, OSTerminator{}.Kill(-5))
}

func TestExistsCurrentProcess(t *testing.T) {
	assert.True(t, Exists(os.Getpid()))
	assert.False(t, Exists(0))
}

func TestStartTimeCurrentProcess(t *testing.T) {
	requireUnix(t)
	st := StartTime(os.Getpid())
	if st.IsZero() {
		t.Skip("process start time unavailable on this platform")
	}
	assert.True(t, st.Before(time.Now().Add(time.Second)))
	assert.True(t, StartTime(0).IsZero())
}

func TestReadStatsCurrentProcess(t *testing.T) {
	st, err := ReadStats(context.Background(), os.Getpid())
	require.NoError(t, err)
	assert.Greater(t, st.MemoryMB, 0.0)
	assert.GreaterOrEqual(t, st.CPUPercent, 0.0)

	_, err = ReadStats(context.Background(), 0)
	assert.Error(t, err)
}
