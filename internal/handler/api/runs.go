package api

import (
	"context"

	"FinEnrich/internal/domain/models"
	"FinEnrich/internal/usecase"
	xhttp "FinEnrich/pkg/http"
	xlogger "FinEnrich/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RunService is the part of the runner the HTTP layer needs.
type RunService interface {
	TriggerAsync(ctx context.Context, trigger models.Trigger) (models.RunSummary, error)
	Last() (*models.RunSummary, []models.EnrichedRecord)
}

// RunsHandler exposes manual triggering and the last run result.
type RunsHandler struct {
	logger *xlogger.Logger
	runs   RunService
}

func NewRunsHandler(logger *xlogger.Logger, runs RunService) *RunsHandler {
	return &RunsHandler{logger: logger, runs: runs}
}

func (h *RunsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/runs", h.Trigger)
	g.GET("/runs/last", h.Last)
}

// Trigger starts a run in the background. 409 when one is already active.
func (h *RunsHandler) Trigger(c echo.Context) error {
	sum, err := h.runs.TriggerAsync(c.Request().Context(), models.TriggerManual)
	if err != nil {
		if usecase.IsInProgress(err) {
			return xhttp.AppErrorResponse(c, xhttp.ConflictError("a pipeline run is already in progress"))
		}
		h.logger.Error("trigger run failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not start pipeline run").WithError(err))
	}
	h.logger.Info("manual run accepted", xlogger.String("run_id", sum.ID))
	return xhttp.AcceptedResponse(c, sum)
}

// Last returns the latest finished run, optionally with up to limit records.
func (h *RunsHandler) Last(c echo.Context) error {
	req := &models.LastRunRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	sum, records := h.runs.Last()
	if sum == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no pipeline run has finished yet"))
	}

	res := models.LastRunResponse{Summary: sum}
	if req.Records {
		if len(records) > req.Limit {
			records = records[:req.Limit]
		}
		res.Records = records
	}
	return xhttp.SuccessResponse(c, res)
}
