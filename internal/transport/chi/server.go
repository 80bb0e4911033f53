package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchagent/internal/domain"
	"github.com/kailas-cloud/searchagent/internal/domain/run"
	"github.com/kailas-cloud/searchagent/internal/metrics"
	"github.com/kailas-cloud/searchagent/internal/schedule"
	healthuc "github.com/kailas-cloud/searchagent/internal/usecase/health"
	"github.com/kailas-cloud/searchagent/internal/usecase/notify"
	"github.com/kailas-cloud/searchagent/internal/version"
)

// RunTrigger starts runs on demand.
type RunTrigger interface {
	Trigger(modify func(*notify.RunConfig)) error
	Running() bool
	Next() time.Time
}

// LastRunReader returns the latest run summary.
type LastRunReader interface {
	Last(ctx context.Context) (run.Summary, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server serves the daemon's operational HTTP API.
type Server struct {
	runs   RunTrigger
	last   LastRunReader
	health HealthChecker
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(runs RunTrigger, last LastRunReader, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{runs: runs, last: last, health: health, logger: logger}
}

// Router builds the chi router with the middleware stack.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(recoverJSON(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLog(s.logger, "/health", "/metrics"))
	r.Use(BearerAuth(apiKeys, "/health", "/metrics"))
	r.Use(metrics.Middleware("/metrics"))

	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Route("/runs", func(r chi.Router) {
		r.Post("/", s.TriggerRun)
		r.Get("/last", s.LastRun)
		r.Get("/status", s.RunStatus)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})
	return r
}

// TriggerRunRequest is the optional body of POST /runs. Omitted fields keep the configured defaults.
type TriggerRunRequest struct {
	DryRun   *bool  `json:"dry_run,omitempty"`
	SendMail *bool  `json:"send_mail,omitempty"`
	OnlyUser string `json:"only_user,omitempty"`
}

// TriggerRun handles POST /runs.
func (s *Server) TriggerRun(w http.ResponseWriter, r *http.Request) {
	var req TriggerRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	err := s.runs.Trigger(func(c *notify.RunConfig) {
		if req.DryRun != nil {
			c.DryRun = *req.DryRun
		}
		if req.SendMail != nil {
			c.SendNotifications = *req.SendMail
		}
		if req.OnlyUser != "" {
			c.OnlyPrincipalEmail = req.OnlyUser
		}
		c.Progress = nil
	})
	switch {
	case errors.Is(err, schedule.ErrRunInProgress):
		writeError(w, http.StatusConflict, codeRunInProgress, "a run is already in progress")
	case errors.Is(err, schedule.ErrStopped):
		writeError(w, http.StatusServiceUnavailable, codeUnavailable, "scheduler is shutting down")
	case err != nil:
		s.logger.Error("Trigger run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
	default:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	}
}

// LastRun handles GET /runs/last.
func (s *Server) LastRun(w http.ResponseWriter, r *http.Request) {
	summary, err := s.last.Last(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "no run recorded yet")
			return
		}
		s.logger.Error("Read last run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// RunStatusResponse is the body of GET /runs/status.
type RunStatusResponse struct {
	Running bool       `json:"running"`
	NextRun *time.Time `json:"next_run,omitempty"`
}

// RunStatus handles GET /runs/status.
func (s *Server) RunStatus(w http.ResponseWriter, _ *http.Request) {
	resp := RunStatusResponse{Running: s.runs.Running()}
	if next := s.runs.Next(); !next.IsZero() {
		resp.NextRun = &next
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  healthuc.Status                 `json:"status"`
	Checks  map[string]healthuc.CheckResult `json:"checks"`
	Version string                          `json:"version"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  report.Status,
		Checks:  report.Checks,
		Version: version.Version,
	})
}
