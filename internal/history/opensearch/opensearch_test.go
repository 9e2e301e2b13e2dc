package opensearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loykin/clawpanel/internal/history"
)

func TestOpenSearchSink_Send(t *testing.T) {
	var (
		gotMethod, gotPath, gotType string
		gotBody                     []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"_id":"x","result":"created"}`))
	}))
	defer server.Close()

	sink := New(server.URL+"/", "clawpanel-history")
	err := sink.Send(context.Background(), history.Event{
		Type: history.EventRestart, OccurredAt: time.Now().UTC(), Port: 18789, PID: 99,
		Outcome: history.OutcomeOK, Message: "Service restarted, PID: 99",
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/clawpanel-history/_doc", gotPath)
	assert.Equal(t, "application/json", gotType)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &doc))
	assert.Equal(t, "restart", doc["type"])
	assert.Equal(t, float64(99), doc["pid"])
	assert.Equal(t, "Service restarted, PID: 99", doc["message"])
}

func TestOpenSearchSink_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	err := New(server.URL, "idx").Send(context.Background(), history.Event{Type: history.EventStop})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestOpenSearchSink_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	assert.Error(t, New(url, "idx").Send(context.Background(), history.Event{Type: history.EventStart}))
}
