package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"FinEnrich/internal/domain/models"
	"FinEnrich/internal/handler/api"
	"FinEnrich/internal/usecase"
	"FinEnrich/pkg/config"
	xhttp "FinEnrich/pkg/http"
	applogger "FinEnrich/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	runner     *usecase.Runner
	scheduler  *usecase.Scheduler
	httpServer *xhttp.Server
	hub        *api.RunEventsHub
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	runner *usecase.Runner,
	scheduler *usecase.Scheduler,
	httpServer *xhttp.Server,
	hub *api.RunEventsHub,
) *App {
	if logger == nil {
		logger = applogger.Nop()
	}
	return &App{
		cfg:        cfg,
		logger:     logger,
		runner:     runner,
		scheduler:  scheduler,
		httpServer: httpServer,
		hub:        hub,
	}
}

// Run starts the HTTP server and scheduler and blocks until ctx is done,
// a termination signal arrives or the HTTP server fails.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var serveErr <-chan error
	if a.cfg.Server.Enabled && a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		serveErr = a.httpServer.Errors()
	}

	if a.cfg.Schedule.Enabled {
		if err := a.scheduler.Start(a.cfg.Schedule.Cron); err != nil {
			_ = a.shutdown()
			return fmt.Errorf("scheduler: %w", err)
		}
		a.logger.Info("next scheduled run", applogger.Time("at", a.scheduler.Next()))
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-serveErr:
		runErr = err
	}

	if err := a.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// RunOnce executes a single pipeline run and returns its summary.
func (a *App) RunOnce(ctx context.Context) (*models.RunSummary, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := a.runner.Trigger(ctx, models.TriggerCLI)
	if err != nil {
		return sum, err
	}
	a.logger.Info("run finished",
		applogger.String("run_id", sum.ID),
		applogger.Int("enriched", sum.Enriched),
		applogger.Duration("duration", sum.Duration()),
	)
	return sum, nil
}

// shutdown gracefully stops all services. In-flight runs are awaited before the server closes.
func (a *App) shutdown() error {
	a.logger.Info("shutting down...")

	if a.cfg.Schedule.Enabled {
		a.scheduler.Stop()
	}
	a.runner.Wait()

	if a.hub != nil {
		a.hub.Close()
	}

	var errs []error
	if a.cfg.Server.Enabled && a.httpServer != nil {
		if err := a.httpServer.Stop(context.Background()); err != nil {
			a.logger.Error("http shutdown error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}
