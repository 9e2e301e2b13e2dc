package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/clawpanel/internal/config"
	"github.com/loykin/clawpanel/internal/history"
	"github.com/loykin/clawpanel/internal/metrics"
	"github.com/loykin/clawpanel/internal/openclaw"
	"github.com/loykin/clawpanel/internal/skills"
	"github.com/loykin/clawpanel/internal/supervisor"
	"github.com/loykin/clawpanel/internal/sysinfo"
)

// Backend is the operation surface the panel exposes over HTTP.
type Backend interface {
	Status(ctx context.Context) supervisor.Status
	StatusDetails(ctx context.Context) supervisor.Status
	Start(ctx context.Context) (string, error)
	Stop(ctx context.Context) (string, error)
	Restart(ctx context.Context) (string, error)
	Logs(ctx context.Context, lines int) ([]string, error)
	KillAll(ctx context.Context) (supervisor.KillReport, error)

	Skills() ([]skills.Skill, error)
	InstallSkill(ctx context.Context, name string) (string, error)
	UninstallSkill(id string) (string, error)
	OpenClawOverview() (openclaw.Overview, error)
	SystemInfo(ctx context.Context) sysinfo.Info

	History(ctx context.Context, limit int) ([]history.Event, error)
	Samples(limit int) []metrics.Sample
}

// Router provides embeddable HTTP handlers for the panel.
// Endpoints, all relative to basePath:
//
//	GET    /status              single port probe
//	GET    /status/details      probe plus uptime, memory and cpu
//	POST   /start | /stop | /restart | /kill-all
//	GET    /logs?lines=N
//	GET    /skills
//	POST   /skills/install      body: {"name": "..."}
//	DELETE /skills/:id
//	GET    /openclaw/overview
//	GET    /system              host, openclaw and node versions, config dir
//	GET    /history?limit=N
//	GET    /status/samples?limit=N
//
// basePath may be empty or start with '/'; no trailing slash. With a token
// set every route requires "Authorization: Bearer <token>".
type Router struct {
	b        Backend
	basePath string
	token    string
	logger   *slog.Logger
}

func NewRouter(b Backend, basePath string, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{b: b, basePath: sanitizeBase(basePath), logger: logger.With("component", "http")}
}

// WithToken enables bearer-token authentication.
func (r *Router) WithToken(token string) *Router {
	r.token = token
	return r
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery(), r.accessLog)
	group := g.Group(r.basePath, bearerAuth(r.token))
	group.GET("/status", r.handleStatus)
	group.GET("/status/details", r.handleDetails)
	group.GET("/status/samples", r.handleSamples)
	group.POST("/start", r.lifecycle(r.b.Start))
	group.POST("/stop", r.lifecycle(r.b.Stop))
	group.POST("/restart", r.lifecycle(r.b.Restart))
	group.POST("/kill-all", r.handleKillAll)
	group.GET("/logs", r.handleLogs)
	group.GET("/skills", r.handleSkills)
	group.POST("/skills/install", r.handleInstallSkill)
	group.DELETE("/skills/:id", r.handleUninstallSkill)
	group.GET("/openclaw/overview", r.handleOverview)
	group.GET("/system", r.handleSystem)
	group.GET("/history", r.handleHistory)
	return g
}

// NewServer starts a standalone HTTP server for cfg. Lifecycle operations
// can take the whole start budget, so the write timeout is generous.
func NewServer(cfg config.ServerConfig, b Backend, logger *slog.Logger) (*http.Server, error) {
	r := NewRouter(b, cfg.BasePath, logger).WithToken(cfg.Token)
	addr := cfg.Listen
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("http server stopped", "addr", addr, "error", err)
		}
	}()
	return server, nil
}

type errorResp struct {
	Error string `json:"error"`
}

type messageResp struct {
	Message string `json:"message"`
}

type logsResp struct {
	Lines []string `json:"lines"`
}

type killResp struct {
	Message string                `json:"message"`
	Report  supervisor.KillReport `json:"report"`
}

type installReq struct {
	Name string `json:"name"`
}

type installResp struct {
	Message string `json:"message"`
	Output  string `json:"output"`
}

const (
	maxLogLines = 10000
	maxHistory  = 1000
)

func (r *Router) accessLog(c *gin.Context) {
	began := time.Now()
	c.Next()
	r.logger.Debug("request", "method", c.Request.Method, "path", c.Request.URL.Path,
		"status", c.Writer.Status(), "duration", time.Since(began))
}

func (r *Router) handleStatus(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.b.Status(c.Request.Context()))
}

func (r *Router) handleDetails(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.b.StatusDetails(c.Request.Context()))
}

func (r *Router) lifecycle(op func(context.Context) (string, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		msg, err := op(c.Request.Context())
		if err != nil {
			r.fail(c, err)
			return
		}
		writeJSON(c, http.StatusOK, messageResp{Message: msg})
	}
}

func (r *Router) handleKillAll(c *gin.Context) {
	rep, err := r.b.KillAll(c.Request.Context())
	if err != nil {
		r.fail(c, err)
		return
	}
	writeJSON(c, http.StatusOK, killResp{Message: rep.Message(), Report: rep})
}

func (r *Router) handleLogs(c *gin.Context) {
	n, ok := parseCount(c.Query("lines"), supervisor.DefaultLogLines, maxLogLines)
	if !ok {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "lines must be a positive integer"})
		return
	}
	lines, err := r.b.Logs(c.Request.Context(), n)
	if err != nil {
		r.fail(c, err)
		return
	}
	writeJSON(c, http.StatusOK, logsResp{Lines: lines})
}

func (r *Router) handleSkills(c *gin.Context) {
	list, err := r.b.Skills()
	if err != nil {
		r.fail(c, err)
		return
	}
	writeJSON(c, http.StatusOK, list)
}

func (r *Router) handleInstallSkill(c *gin.Context) {
	var req installReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if req.Name == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "name required"})
		return
	}
	out, err := r.b.InstallSkill(c.Request.Context(), req.Name)
	if err != nil {
		r.fail(c, err)
		return
	}
	writeJSON(c, http.StatusOK, installResp{Message: "Skill installed successfully", Output: out})
}

func (r *Router) handleUninstallSkill(c *gin.Context) {
	id := c.Param("id")
	if !isSafeName(id) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid skill id: allowed [A-Za-z0-9._-] and no '..'"})
		return
	}
	msg, err := r.b.UninstallSkill(id)
	if err != nil {
		r.fail(c, err)
		return
	}
	writeJSON(c, http.StatusOK, messageResp{Message: msg})
}

func (r *Router) handleOverview(c *gin.Context) {
	ov, err := r.b.OpenClawOverview()
	if err != nil {
		r.fail(c, err)
		return
	}
	writeJSON(c, http.StatusOK, ov)
}

func (r *Router) handleSystem(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.b.SystemInfo(c.Request.Context()))
}

func (r *Router) handleHistory(c *gin.Context) {
	n, ok := parseCount(c.Query("limit"), 50, maxHistory)
	if !ok {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "limit must be a positive integer"})
		return
	}
	events, err := r.b.History(c.Request.Context(), n)
	if err != nil {
		r.fail(c, err)
		return
	}
	if events == nil {
		events = []history.Event{}
	}
	writeJSON(c, http.StatusOK, events)
}

func (r *Router) handleSamples(c *gin.Context) {
	n, ok := parseCount(c.Query("limit"), 0, maxHistory)
	if !ok {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "limit must be a positive integer"})
		return
	}
	samples := r.b.Samples(n)
	if samples == nil {
		samples = []metrics.Sample{}
	}
	writeJSON(c, http.StatusOK, samples)
}

func (r *Router) fail(c *gin.Context, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		r.logger.Warn("request failed", "path", c.Request.URL.Path, "status", code, "error", err)
	}
	writeJSON(c, code, errorResp{Error: err.Error()})
}

// statusFor maps backend errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		notFound *supervisor.ExecutableNotFoundError
		startTO  *supervisor.StartTimeoutError
		stopTO   *supervisor.RestartStopTimeoutError
	)
	switch {
	case errors.Is(err, supervisor.ErrBusy), errors.Is(err, supervisor.ErrAlreadyRunning):
		return http.StatusConflict
	case errors.As(err, &notFound):
		return http.StatusPreconditionFailed
	case errors.As(err, &startTO), errors.As(err, &stopTO):
		return http.StatusGatewayTimeout
	case errors.Is(err, skills.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, skills.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, history.ErrNotQueryable):
		return http.StatusNotImplemented
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
