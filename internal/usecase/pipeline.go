package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FinEnrich/internal/domain/models"
	drepo "FinEnrich/internal/domain/repository"
	"FinEnrich/internal/services/cleaning"
	applogger "FinEnrich/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// PipelineOption configures Pipeline.
type PipelineOption func(*Pipeline)

// Pipeline drives one ingest, clean, enrich, merge and write pass.
type Pipeline struct {
	source   drepo.SourceReader
	cleaner  *cleaning.Cleaner
	enricher *Enricher
	merger   *Merger
	sinks    []drepo.Sink

	batchSize int
	workers   int
	fxBase    string
	fxQuote   string

	metrics drepo.Metrics
	logger  *applogger.Logger
}

// NewPipeline creates a Pipeline. Defaults: batch of 100 rows, 4 workers, USD/INR.
func NewPipeline(
	source drepo.SourceReader,
	cleaner *cleaning.Cleaner,
	enricher *Enricher,
	merger *Merger,
	sinks []drepo.Sink,
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		source:    source,
		cleaner:   cleaner,
		enricher:  enricher,
		merger:    merger,
		sinks:     sinks,
		batchSize: 100,
		workers:   4,
		fxBase:    "USD",
		fxQuote:   "INR",
		metrics:   drepo.NopMetrics{},
		logger:    applogger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithBatchSize limits how many cleaned rows are enriched. 0 means all rows.
func WithBatchSize(n int) PipelineOption {
	return func(p *Pipeline) {
		if n >= 0 {
			p.batchSize = n
		}
	}
}

// WithWorkers bounds how many rows are enriched concurrently.
func WithWorkers(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithFXPair sets the currency pair looked up once per run.
func WithFXPair(base, quote string) PipelineOption {
	return func(p *Pipeline) {
		p.fxBase = base
		p.fxQuote = quote
	}
}

// WithPipelineMetrics sets the metrics sink.
func WithPipelineMetrics(m drepo.Metrics) PipelineOption {
	return func(p *Pipeline) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithPipelineLogger sets the logger.
func WithPipelineLogger(l *applogger.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// Sinks returns the configured sink names in write order.
func (p *Pipeline) Sinks() []string {
	names := make([]string, len(p.sinks))
	for i, s := range p.sinks {
		names[i] = s.Name()
	}
	return names
}

// Run executes one pass under a fresh run id. The returned summary is never nil.
// A non-nil error is fatal and means no sink was written.
func (p *Pipeline) Run(ctx context.Context, trigger models.Trigger) ([]models.EnrichedRecord, *models.RunSummary, error) {
	return p.RunWithID(ctx, uuid.NewString(), trigger)
}

// RunWithID is Run with a caller-chosen run id.
func (p *Pipeline) RunWithID(ctx context.Context, id string, trigger models.Trigger) ([]models.EnrichedRecord, *models.RunSummary, error) {
	sum := &models.RunSummary{
		ID:        id,
		Trigger:   trigger,
		Status:    models.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	log := p.logger.With(applogger.String("run_id", sum.ID), applogger.String("trigger", string(trigger)))
	log.Info("pipeline run started")

	records, err := p.run(ctx, sum, log)

	sum.FinishedAt = time.Now().UTC()
	if err != nil {
		sum.Status = models.RunStatusFailed
		sum.Error = err.Error()
		log.Error("pipeline run failed", applogger.Error(err), applogger.Duration("duration_ms", sum.Duration()))
	} else {
		sum.Status = models.RunStatusSucceeded
		log.Info("pipeline run completed",
			applogger.Int("records", len(records)),
			applogger.Any("degraded", sum.Degraded),
			applogger.Duration("duration_ms", sum.Duration()),
		)
	}
	p.metrics.RecordRun(string(trigger), string(sum.Status), sum.Duration().Seconds())

	return records, sum, err
}

func (p *Pipeline) run(ctx context.Context, sum *models.RunSummary, log *applogger.Logger) ([]models.EnrichedRecord, error) {
	raw, err := p.source.Ingest(ctx)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	sum.Ingested = len(raw)
	p.metrics.RecordRows("ingested", len(raw))

	table, rep, err := p.cleaner.Clean(raw)
	sum.Clean = rep
	if err != nil {
		return nil, fmt.Errorf("clean: %w", err)
	}
	sum.Cleaned = table.Len()
	p.metrics.RecordRows("cleaned", table.Len())
	p.metrics.RecordRows("dropped", rep.Dropped())
	log.Info("dataset cleaned",
		applogger.Int("input", rep.Input),
		applogger.Int("output", rep.Output),
		applogger.Int("missing_key", rep.MissingKey),
		applogger.Int("duplicates", rep.Duplicates),
		applogger.Int("bad_date", rep.BadDate),
		applogger.Int("outliers", rep.Outliers),
	)

	rows := table.Head(p.batchSize)

	degraded := newDegradedCounter()
	fx := p.enricher.FetchFXRate(ctx, p.fxBase, p.fxQuote)
	degraded.observe(SourceFX, fx.Err)

	out := make([]models.EnrichedRecord, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, row := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = p.enrichRow(gctx, row, fx.Value, degraded)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("enrich: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("enrich: %w", err)
	}

	sum.Enriched = len(out)
	sum.Degraded = degraded.snapshot()
	p.metrics.RecordRows("enriched", len(out))
	for _, r := range out {
		p.metrics.RecordImpactScore(r.Symbol, r.ImpactScore)
	}

	sum.Sinks = p.writeSinks(ctx, out, log)
	return out, nil
}

// enrichRow fans out the three per-symbol lookups and merges once all have returned.
func (p *Pipeline) enrichRow(ctx context.Context, row models.CleanRecord, fx *float64, degraded *degradedCounter) models.EnrichedRecord {
	var (
		wg        sync.WaitGroup
		quote     models.Result[models.LiveQuote]
		news      models.Result[[]models.NewsItem]
		sentiment models.Result[models.Sentiment]
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		quote = p.enricher.FetchLiveQuote(ctx, row.Symbol)
	}()
	go func() {
		defer wg.Done()
		news = p.enricher.FetchNews(ctx, row.Symbol)
	}()
	go func() {
		defer wg.Done()
		sentiment = p.enricher.FetchSentiment(ctx, row.Symbol)
	}()
	wg.Wait()

	degraded.observe(SourceQuote, quote.Err)
	degraded.observe(SourceNews, news.Err)
	degraded.observe(SourceSentiment, sentiment.Err)

	return p.merger.Merge(row, quote.Value, news.Value, sentiment.Value, fx)
}

// writeSinks hands the batch to every sink concurrently. Failures are recorded, never propagated.
func (p *Pipeline) writeSinks(ctx context.Context, records []models.EnrichedRecord, log *applogger.Logger) []models.SinkOutcome {
	outcomes := make([]models.SinkOutcome, len(p.sinks))
	var wg sync.WaitGroup
	for i, s := range p.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			n, err := s.Write(ctx, records)
			outcomes[i] = models.SinkOutcome{Sink: s.Name(), Written: n}
			p.metrics.RecordSinkWrite(s.Name(), n, err)
			if err != nil {
				err = &models.SinkError{Sink: s.Name(), Err: err}
				outcomes[i].Error = err.Error()
				log.Error("sink write failed", applogger.String("sink", s.Name()), applogger.Error(err))
				return
			}
			log.Info("sink write completed",
				applogger.String("sink", s.Name()),
				applogger.Int("written", n),
				applogger.Duration("duration_ms", time.Since(start)),
			)
		}()
	}
	wg.Wait()
	return outcomes
}

type degradedCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func newDegradedCounter() *degradedCounter {
	return &degradedCounter{counts: map[string]int{}}
}

func (d *degradedCounter) observe(source string, err error) {
	if err == nil {
		return
	}
	d.mu.Lock()
	d.counts[source]++
	d.mu.Unlock()
}

func (d *degradedCounter) snapshot() map[string]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.counts) == 0 {
		return nil
	}
	out := make(map[string]int, len(d.counts))
	for k, v := range d.counts {
		out[k] = v
	}
	return out
}
