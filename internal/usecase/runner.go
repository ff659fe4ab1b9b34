package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"FinEnrich/internal/domain/models"
	drepo "FinEnrich/internal/domain/repository"
	applogger "FinEnrich/pkg/logger"

	"github.com/google/uuid"
)

const runLockKey = "pipeline:run"

// RunObserver is notified when a run starts and when it finishes.
type RunObserver interface {
	OnRun(summary models.RunSummary)
}

// RunnerOption configures Runner.
type RunnerOption func(*Runner)

// Runner serializes pipeline runs behind a RunLock and keeps the latest result.
type Runner struct {
	pipeline   *Pipeline
	lock       drepo.RunLock
	lockTTL    time.Duration
	runTimeout time.Duration
	logger     *applogger.Logger

	mu          sync.RWMutex
	last        *models.RunSummary
	lastRecords []models.EnrichedRecord
	observers   []RunObserver

	wg sync.WaitGroup
}

// NewRunner creates a Runner.
func NewRunner(pipeline *Pipeline, lock drepo.RunLock, opts ...RunnerOption) *Runner {
	r := &Runner{
		pipeline:   pipeline,
		lock:       lock,
		lockTTL:    30 * time.Minute,
		runTimeout: 10 * time.Minute,
		logger:     applogger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithLockTTL sets how long the run lock survives a crashed holder.
func WithLockTTL(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.lockTTL = d
		}
	}
}

// WithRunTimeout bounds background runs.
func WithRunTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.runTimeout = d
		}
	}
}

// WithRunnerLogger sets the logger.
func WithRunnerLogger(l *applogger.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// Subscribe registers an observer for run events.
func (r *Runner) Subscribe(o RunObserver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// Trigger runs the pipeline synchronously. Returns ErrRunInProgress if another run holds the lock.
func (r *Runner) Trigger(ctx context.Context, trigger models.Trigger) (*models.RunSummary, error) {
	if err := r.acquire(ctx); err != nil {
		return nil, err
	}
	return r.execute(ctx, r.started(trigger))
}

// TriggerAsync takes the lock and runs the pipeline in the background. It returns
// the summary of the run as it starts.
func (r *Runner) TriggerAsync(ctx context.Context, trigger models.Trigger) (models.RunSummary, error) {
	if err := r.acquire(ctx); err != nil {
		return models.RunSummary{}, err
	}
	start := r.started(trigger)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		runCtx, cancel := context.WithTimeout(context.Background(), r.runTimeout)
		defer cancel()
		_, _ = r.execute(runCtx, start)
	}()
	return start, nil
}

// Wait blocks until background runs have finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Last returns the most recent finished run and its records.
func (r *Runner) Last() (*models.RunSummary, []models.EnrichedRecord) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return nil, nil
	}
	s := *r.last
	return &s, r.lastRecords
}

func (r *Runner) acquire(ctx context.Context) error {
	ok, err := r.lock.TryLock(ctx, runLockKey, r.lockTTL)
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return models.ErrRunInProgress
	}
	return nil
}

func (r *Runner) started(trigger models.Trigger) models.RunSummary {
	return models.RunSummary{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Status:    models.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
}

func (r *Runner) execute(ctx context.Context, start models.RunSummary) (*models.RunSummary, error) {
	defer func() {
		// unlock must outlive a cancelled run context
		uctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.lock.Unlock(uctx, runLockKey); err != nil {
			r.logger.Warn("release run lock failed", applogger.Error(err))
		}
	}()

	r.notify(start)

	records, sum, err := r.pipeline.RunWithID(ctx, start.ID, start.Trigger)

	r.mu.Lock()
	r.last = sum
	if err == nil {
		r.lastRecords = records
	}
	r.mu.Unlock()

	r.notify(*sum)
	return sum, err
}

func (r *Runner) notify(s models.RunSummary) {
	r.mu.RLock()
	obs := append([]RunObserver(nil), r.observers...)
	r.mu.RUnlock()
	for _, o := range obs {
		o.OnRun(s)
	}
}

// IsInProgress reports whether err means the lock was already held.
func IsInProgress(err error) bool {
	return errors.Is(err, models.ErrRunInProgress)
}
