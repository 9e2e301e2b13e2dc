package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/loykin/clawpanel/internal/history"
)

func TestPostgresSink_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	defer func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate PostgreSQL container: %v", err)
		}
	}()

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sink, err := New(connStr)
	require.NoError(t, err)
	defer func() { assert.NoError(t, sink.Close()) }()

	for _, e := range []history.Event{
		{Type: history.EventStart, OccurredAt: time.Now().UTC(), Port: 18789, PID: 4242, Outcome: history.OutcomeOK, Message: "Service started, PID: 4242"},
		{Type: history.EventKillAll, OccurredAt: time.Now().UTC(), Port: 18789, Outcome: history.OutcomeOK, Message: "Killed 1 process(es) on port 18789"},
	} {
		require.NoError(t, sink.Send(ctx, e))
	}

	var n int
	require.NoError(t, sink.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+history.TableName+" WHERE port = $1", 18789).Scan(&n))
	assert.Equal(t, 2, n)

	got, err := sink.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, history.EventKillAll, got[0].Type)
}

func TestNew_EmptyDSN(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
