package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FinEnrich/internal/domain/models"
	drepo "FinEnrich/internal/domain/repository"
	dsvc "FinEnrich/internal/domain/service"
	applogger "FinEnrich/pkg/logger"

	"golang.org/x/time/rate"
)

// Enrichment sources, used as metric and log labels.
const (
	SourceQuote     = "quote"
	SourceNews      = "news"
	SourceSentiment = "sentiment"
	SourceFX        = "fx"
)

var errNotConfigured = errors.New("provider not configured")

// EnricherOption configures Enricher.
type EnricherOption func(*Enricher)

// Enricher wraps each provider with a timeout, a rate limit and a default value.
// None of its Fetch methods ever return a bare error.
type Enricher struct {
	quote     dsvc.QuoteProvider
	news      dsvc.NewsProvider
	sentiment dsvc.SentimentProvider
	fx        dsvc.FXProvider

	timeout   time.Duration
	newsLimit int
	limiters  map[string]*rate.Limiter

	metrics drepo.Metrics
	logger  *applogger.Logger
}

// NewEnricher creates an Enricher. Nil providers degrade every call for their source.
func NewEnricher(
	quote dsvc.QuoteProvider,
	news dsvc.NewsProvider,
	sentiment dsvc.SentimentProvider,
	fx dsvc.FXProvider,
	opts ...EnricherOption,
) *Enricher {
	e := &Enricher{
		quote:     quote,
		news:      news,
		sentiment: sentiment,
		fx:        fx,
		timeout:   10 * time.Second,
		newsLimit: 3,
		limiters:  map[string]*rate.Limiter{},
		metrics:   drepo.NopMetrics{},
		logger:    applogger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithFetchTimeout bounds every provider call.
func WithFetchTimeout(d time.Duration) EnricherOption {
	return func(e *Enricher) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithNewsLimit caps the number of headlines per symbol.
func WithNewsLimit(n int) EnricherOption {
	return func(e *Enricher) {
		if n > 0 {
			e.newsLimit = n
		}
	}
}

// WithRateLimit throttles calls to source at rps with the given burst. rps <= 0 disables the limit.
func WithRateLimit(source string, rps float64, burst int) EnricherOption {
	return func(e *Enricher) {
		if rps <= 0 {
			delete(e.limiters, source)
			return
		}
		if burst < 1 {
			burst = 1
		}
		e.limiters[source] = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithEnricherMetrics sets the metrics sink.
func WithEnricherMetrics(m drepo.Metrics) EnricherOption {
	return func(e *Enricher) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithEnricherLogger sets the logger.
func WithEnricherLogger(l *applogger.Logger) EnricherOption {
	return func(e *Enricher) {
		if l != nil {
			e.logger = l
		}
	}
}

// FetchLiveQuote returns the latest quote, or an empty quote on failure.
func (e *Enricher) FetchLiveQuote(ctx context.Context, symbol string) models.Result[models.LiveQuote] {
	return fetch(ctx, e, SourceQuote, symbol, models.LiveQuote{}, func(ctx context.Context) (models.LiveQuote, error) {
		if e.quote == nil {
			return models.LiveQuote{}, errNotConfigured
		}
		return e.quote.LatestQuote(ctx, symbol)
	})
}

// FetchNews returns up to the configured number of headlines, or an empty slice on failure.
func (e *Enricher) FetchNews(ctx context.Context, symbol string) models.Result[[]models.NewsItem] {
	res := fetch(ctx, e, SourceNews, symbol, []models.NewsItem{}, func(ctx context.Context) ([]models.NewsItem, error) {
		if e.news == nil {
			return nil, errNotConfigured
		}
		return e.news.Headlines(ctx, symbol, e.newsLimit)
	})
	if res.Value == nil {
		res.Value = []models.NewsItem{}
	}
	if len(res.Value) > e.newsLimit {
		res.Value = res.Value[:e.newsLimit]
	}
	return res
}

// FetchSentiment returns the sentiment summary, or a zero score with absent components on failure.
func (e *Enricher) FetchSentiment(ctx context.Context, symbol string) models.Result[models.Sentiment] {
	return fetch(ctx, e, SourceSentiment, symbol, models.Sentiment{}, func(ctx context.Context) (models.Sentiment, error) {
		if e.sentiment == nil {
			return models.Sentiment{}, errNotConfigured
		}
		return e.sentiment.Sentiment(ctx, symbol)
	})
}

// FetchFXRate returns the base/quote rate, or nil on failure. Called once per run.
func (e *Enricher) FetchFXRate(ctx context.Context, base, quote string) models.Result[*float64] {
	return fetch(ctx, e, SourceFX, base+quote, nil, func(ctx context.Context) (*float64, error) {
		if e.fx == nil {
			return nil, errNotConfigured
		}
		r, err := e.fx.Rate(ctx, base, quote)
		if err != nil {
			return nil, err
		}
		return models.Float64Ptr(r), nil
	})
}

type outcome[T any] struct {
	v   T
	err error
}

// fetch runs call under the per-call timeout. A provider that ignores its context
// still cannot hold the caller past the deadline.
func fetch[T any](
	ctx context.Context,
	e *Enricher,
	source, symbol string,
	def T,
	call func(context.Context) (T, error),
) models.Result[T] {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res := invoke(ctx, e.limiters[source], def, call)
	if res.Err != nil {
		res.Err = &models.FetchError{Source: source, Symbol: symbol, Err: res.Err}
	}

	e.metrics.RecordFetch(source, res.IsDegraded(), time.Since(start).Seconds())
	if res.IsDegraded() {
		e.logger.Warn("fetch degraded",
			applogger.String("source", source),
			applogger.String("symbol", symbol),
			applogger.Duration("duration_ms", time.Since(start)),
			applogger.Error(res.Err),
		)
	}
	return res
}

func invoke[T any](ctx context.Context, lim *rate.Limiter, def T, call func(context.Context) (T, error)) models.Result[T] {
	if lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return models.Degraded(def, fmt.Errorf("rate limit: %w", err))
		}
	}

	ch := make(chan outcome[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome[T]{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		v, err := call(ctx)
		ch <- outcome[T]{v: v, err: err}
	}()

	select {
	case o := <-ch:
		if o.err != nil {
			return models.Degraded(def, o.err)
		}
		return models.Ok(o.v)
	case <-ctx.Done():
		return models.Degraded(def, ctx.Err())
	}
}
