package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loykin/clawpanel/internal/history"
)

func TestSQLiteSink_FileRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	sink, err := New("sqlite://" + dbPath)
	require.NoError(t, err)
	defer func() { assert.NoError(t, sink.Close()) }()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, sink.Send(ctx, history.Event{
		Type: history.EventStart, OccurredAt: base, Port: 18789, PID: 4242,
		Outcome: history.OutcomeOK, Message: "Service started, PID: 4242",
	}))
	require.NoError(t, sink.Send(ctx, history.Event{
		Type: history.EventStop, OccurredAt: base.Add(time.Minute), Port: 18789, PID: 4242,
		Outcome: history.OutcomeFailed, Message: "Unable to stop service, PID: 4242",
	}))

	events, err := sink.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, history.EventStop, events[0].Type)
	assert.Equal(t, history.OutcomeFailed, events[0].Outcome)
	assert.Equal(t, 4242, events[1].PID)
	assert.Equal(t, "Service started, PID: 4242", events[1].Message)
}

func TestSQLiteSink_ReopenKeepsRows(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	sink, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, sink.Send(context.Background(), history.Event{Type: history.EventKillAll, OccurredAt: time.Now(), Port: 18789, Outcome: history.OutcomeOK}))
	require.NoError(t, sink.Close())

	sink, err = New(dbPath)
	require.NoError(t, err)
	defer func() { _ = sink.Close() }()
	events, err := sink.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestSQLiteSink_InMemory(t *testing.T) {
	sink, err := New(":memory:")
	require.NoError(t, err)
	defer func() { _ = sink.Close() }()

	require.NoError(t, sink.Send(context.Background(), history.Event{Type: history.EventRestart, OccurredAt: time.Now(), Port: 18789, PID: 7, Outcome: history.OutcomeOK}))
	events, err := sink.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, history.EventRestart, events[0].Type)
}

func TestSQLiteSink_ContextCancellation(t *testing.T) {
	sink, err := New(":memory:")
	require.NoError(t, err)
	defer func() { _ = sink.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// a cancelled context may or may not fail depending on driver timing; it must not panic
	if err := sink.Send(ctx, history.Event{Type: history.EventStart, OccurredAt: time.Now()}); err != nil {
		t.Logf("send with cancelled context: %v", err)
	}
}

func TestNew_EmptyDSN(t *testing.T) {
	_, err := New("  ")
	assert.Error(t, err)
}
