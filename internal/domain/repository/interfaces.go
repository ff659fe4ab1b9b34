package repository

import (
	"context"
	"time"

	"FinEnrich/internal/domain/models"
)

// SourceReader loads the raw input table in source order.
type SourceReader interface {
	Ingest(ctx context.Context) ([]models.RawRecord, error)
}

// Sink accepts the full enriched batch of a run.
type Sink interface {
	Name() string
	Write(ctx context.Context, records []models.EnrichedRecord) (int, error)
}

// RunLock prevents overlapping runs.
type RunLock interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

type Metrics interface {
	RecordRows(stage string, n int)
	RecordFetch(source string, degraded bool, seconds float64)
	RecordSinkWrite(sink string, n int, err error)
	RecordRun(trigger string, status string, seconds float64)
	RecordImpactScore(symbol string, score float64)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordRows(string, int) {}
func (NopMetrics) RecordFetch(string, bool, float64) {}
func (NopMetrics) RecordSinkWrite(string, int, error) {}
func (NopMetrics) RecordRun(string, string, float64) {}
func (NopMetrics) RecordImpactScore(string, float64) {}
