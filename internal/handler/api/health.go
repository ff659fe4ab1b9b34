package api

import (
	"context"
	"net/http"
	"time"

	"FinEnrich/internal/domain/models"
	xhttp "FinEnrich/pkg/http"

	"github.com/labstack/echo/v4"
)

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// HealthStatus is the /health payload.
type HealthStatus struct {
	Status  string             `json:"status"`
	Checks  map[string]string  `json:"checks,omitempty"`
	LastRun *models.RunSummary `json:"last_run,omitempty"`
	NextRun *time.Time         `json:"next_run,omitempty"`
}

// HealthHandler reports dependency health and scheduling state.
type HealthHandler struct {
	checks  map[string]HealthCheck
	runs    RunService
	next    func() time.Time
	timeout time.Duration
}

// NewHealthHandler creates the handler. next may be nil when scheduling is disabled.
func NewHealthHandler(runs RunService, next func() time.Time, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, runs: runs, next: next, timeout: 2 * time.Second}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
}

func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	st := HealthStatus{Status: "ok"}
	if len(h.checks) > 0 {
		st.Checks = make(map[string]string, len(h.checks))
	}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			st.Status = "degraded"
			st.Checks[name] = err.Error()
			continue
		}
		st.Checks[name] = "ok"
	}
	if h.runs != nil {
		st.LastRun, _ = h.runs.Last()
	}
	if h.next != nil {
		if n := h.next(); !n.IsZero() {
			st.NextRun = &n
		}
	}

	if st.Status != "ok" {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, st)
	}
	return xhttp.SuccessResponse(c, st)
}
