package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loykin/clawpanel/internal/config"
	"github.com/loykin/clawpanel/internal/history"
	"github.com/loykin/clawpanel/internal/metrics"
	"github.com/loykin/clawpanel/internal/openclaw"
	"github.com/loykin/clawpanel/internal/skills"
	"github.com/loykin/clawpanel/internal/supervisor"
	"github.com/loykin/clawpanel/internal/sysinfo"
)

type fakeBackend struct {
	status    supervisor.Status
	opErr     error
	opMsg     string
	logLines  int
	logs      []string
	logsErr   error
	kill      supervisor.KillReport
	skillList []skills.Skill
	installed string
	skillErr  error
	overview  openclaw.Overview
	events    []history.Event
	histErr   error
	samples   []metrics.Sample
	system    sysinfo.Info
}

func (f *fakeBackend) Status(context.Context) supervisor.Status        { return f.status }
func (f *fakeBackend) StatusDetails(context.Context) supervisor.Status { return f.status }
func (f *fakeBackend) Start(context.Context) (string, error)           { return f.opMsg, f.opErr }
func (f *fakeBackend) Stop(context.Context) (string, error)            { return f.opMsg, f.opErr }
func (f *fakeBackend) Restart(context.Context) (string, error)         { return f.opMsg, f.opErr }
func (f *fakeBackend) Logs(_ context.Context, n int) ([]string, error) {
	f.logLines = n
	return f.logs, f.logsErr
}
func (f *fakeBackend) KillAll(context.Context) (supervisor.KillReport, error) { return f.kill, f.opErr }
func (f *fakeBackend) Skills() ([]skills.Skill, error)                        { return f.skillList, f.skillErr }
func (f *fakeBackend) InstallSkill(_ context.Context, name string) (string, error) {
	f.installed = name
	return "ok\n", f.skillErr
}
func (f *fakeBackend) UninstallSkill(id string) (string, error) {
	return "Skill uninstalled successfully", f.skillErr
}
func (f *fakeBackend) OpenClawOverview() (openclaw.Overview, error) { return f.overview, nil }
func (f *fakeBackend) History(context.Context, int) ([]history.Event, error) {
	return f.events, f.histErr
}
func (f *fakeBackend) Samples(int) []metrics.Sample            { return f.samples }
func (f *fakeBackend) SystemInfo(context.Context) sysinfo.Info { return f.system }

func setupRouter(t *testing.T, b Backend, base string) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewRouter(b, base, nil).Handler()
}

func doReq(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestStatus(t *testing.T) {
	b := &fakeBackend{status: supervisor.Status{Running: true, PID: intPtr(4242), Port: 18789}}
	h := setupRouter(t, b, "/api")

	rec := doReq(t, h, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[map[string]any](t, rec)
	assert.Equal(t, true, got["running"])
	assert.Equal(t, float64(4242), got["pid"])
	assert.Nil(t, got["uptime_seconds"])

	rec = doReq(t, h, http.MethodGet, "/api/status/details", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doReq(t, h, http.MethodGet, "/status", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLifecycleMessages(t *testing.T) {
	b := &fakeBackend{opMsg: "Service started, PID: 7"}
	h := setupRouter(t, b, "")
	for _, p := range []string{"/start", "/stop", "/restart"} {
		rec := doReq(t, h, http.MethodPost, p, nil)
		require.Equal(t, http.StatusOK, rec.Code, p)
		assert.Equal(t, "Service started, PID: 7", decode[messageResp](t, rec).Message)
	}
}

func TestLifecycleErrorCodes(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{supervisor.ErrAlreadyRunning, http.StatusConflict},
		{supervisor.ErrBusy, http.StatusConflict},
		{&supervisor.ExecutableNotFoundError{Name: "openclaw", Hint: "install it"}, http.StatusPreconditionFailed},
		{&supervisor.StartTimeoutError{Op: "start", Port: 18789, Waited: 15 * time.Second}, http.StatusGatewayTimeout},
		{&supervisor.RestartStopTimeoutError{Port: 18789, PID: 9, Waited: 5 * time.Second}, http.StatusGatewayTimeout},
		{&supervisor.StopFailedError{Port: 18789, PID: 9}, http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", context.Canceled), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		h := setupRouter(t, &fakeBackend{opErr: c.err}, "")
		rec := doReq(t, h, http.MethodPost, "/start", nil)
		assert.Equal(t, c.code, rec.Code, c.err.Error())
		assert.Equal(t, c.err.Error(), decode[errorResp](t, rec).Error)
	}
}

func TestKillAll(t *testing.T) {
	b := &fakeBackend{kill: supervisor.KillReport{Port: 18789, PIDs: []int{1, 2}, Killed: 2}}
	h := setupRouter(t, b, "")
	rec := doReq(t, h, http.MethodPost, "/kill-all", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[killResp](t, rec)
	assert.Equal(t, "Killed 2 process(es) on port 18789", got.Message)
	assert.Equal(t, []int{1, 2}, got.Report.PIDs)
}

func TestLogs(t *testing.T) {
	b := &fakeBackend{logs: []string{"a", "b"}}
	h := setupRouter(t, b, "")

	rec := doReq(t, h, http.MethodGet, "/logs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, supervisor.DefaultLogLines, b.logLines)
	assert.Equal(t, []string{"a", "b"}, decode[logsResp](t, rec).Lines)

	rec = doReq(t, h, http.MethodGet, "/logs?lines=20", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, b.logLines)

	for _, q := range []string{"0", "-3", "abc"} {
		rec = doReq(t, h, http.MethodGet, "/logs?lines="+q, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}

	b.logsErr = errors.New("Failed to read logs: exit status 1")
	rec = doReq(t, h, http.MethodGet, "/logs", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSkills(t *testing.T) {
	b := &fakeBackend{skillList: []skills.Skill{{ID: "weather", Name: "Weather", Path: "/x"}}}
	h := setupRouter(t, b, "")

	rec := doReq(t, h, http.MethodGet, "/skills", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]skills.Skill](t, rec), 1)

	rec = doReq(t, h, http.MethodPost, "/skills/install", installReq{Name: "weather"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "weather", b.installed)
	assert.Equal(t, "ok\n", decode[installResp](t, rec).Output)

	rec = doReq(t, h, http.MethodPost, "/skills/install", installReq{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/skills/install", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doReq(t, h, http.MethodDelete, "/skills/weather", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Skill uninstalled successfully", decode[messageResp](t, rec).Message)

	rec = doReq(t, h, http.MethodDelete, "/skills/a..b", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	b.skillErr = fmt.Errorf("%w: /x/ghost", skills.ErrNotFound)
	rec = doReq(t, h, http.MethodDelete, "/skills/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	b.skillErr = fmt.Errorf("%w: %q", skills.ErrInvalidName, "-x")
	rec = doReq(t, h, http.MethodPost, "/skills/install", installReq{Name: "-x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOverview(t *testing.T) {
	b := &fakeBackend{overview: openclaw.Overview{PrimaryModel: "a/b", ConfiguredProviders: []openclaw.ConfiguredProvider{}, AvailableModels: []string{"a/b"}}}
	h := setupRouter(t, b, "/api")
	rec := doReq(t, h, http.MethodGet, "/api/openclaw/overview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a/b", decode[openclaw.Overview](t, rec).PrimaryModel)
}

func TestSystemInfo(t *testing.T) {
	node := "v22.4.0"
	b := &fakeBackend{system: sysinfo.Info{OS: "darwin", OSVersion: "15.1", Arch: "arm64", NodeVersion: &node, ConfigDir: "/Users/u/.openclaw"}}
	h := setupRouter(t, b, "/api")
	rec := doReq(t, h, http.MethodGet, "/api/system", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[map[string]any](t, rec)
	assert.Equal(t, "/Users/u/.openclaw", got["config_dir"])
	assert.Equal(t, false, got["openclaw_installed"])
	assert.Nil(t, got["openclaw_version"])
	assert.Equal(t, "v22.4.0", got["node_version"])
}

func TestHistory(t *testing.T) {
	b := &fakeBackend{}
	h := setupRouter(t, b, "")

	rec := doReq(t, h, http.MethodGet, "/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	b.histErr = history.ErrNotQueryable
	rec = doReq(t, h, http.MethodGet, "/history?limit=5", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = doReq(t, h, http.MethodGet, "/history?limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSamples(t *testing.T) {
	b := &fakeBackend{samples: []metrics.Sample{{PID: 3, CPUPercent: 1.5}}}
	h := setupRouter(t, b, "")
	rec := doReq(t, h, http.MethodGet, "/status/samples?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]metrics.Sample](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].PID)
}

func TestNewServer(t *testing.T) {
	srv, err := NewServer(config.ServerConfig{Listen: "127.0.0.1:0", BasePath: "/api"}, &fakeBackend{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, srv.WriteTimeout)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, srv.Shutdown(ctx))
}

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewRouter(&fakeBackend{}, "/api", nil).WithToken("s3cret").Handler()

	rec := doReq(t, h, http.MethodGet, "/api/status", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	for _, hdr := range []string{"Bearer wrong", "s3cret", "Basic s3cret"} {
		req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
		req.Header.Set("Authorization", hdr)
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, hdr)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func intPtr(v int) *int { return &v }
