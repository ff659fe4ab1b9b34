package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"FinEnrich/internal/domain/models"
)

var errUpstream = errors.New("upstream down")

type fakeQuote struct {
	fn    func(ctx context.Context, symbol string) (models.LiveQuote, error)
	calls atomic.Int32
}

func (f *fakeQuote) LatestQuote(ctx context.Context, symbol string) (models.LiveQuote, error) {
	f.calls.Add(1)
	return f.fn(ctx, symbol)
}

type fakeNews struct {
	fn func(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error)
}

func (f *fakeNews) Headlines(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	return f.fn(ctx, symbol, limit)
}

type fakeSentiment struct {
	fn func(ctx context.Context, symbol string) (models.Sentiment, error)
}

func (f *fakeSentiment) Sentiment(ctx context.Context, symbol string) (models.Sentiment, error) {
	return f.fn(ctx, symbol)
}

type fakeFX struct {
	rate  float64
	err   error
	calls atomic.Int32
}

func (f *fakeFX) Rate(ctx context.Context, base, quote string) (float64, error) {
	f.calls.Add(1)
	return f.rate, f.err
}

type fakeSource struct {
	rows  []models.RawRecord
	err   error
	block chan struct{}
}

func (f *fakeSource) Ingest(ctx context.Context) ([]models.RawRecord, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.rows, f.err
}

type fakeSink struct {
	name string
	err  error

	mu      sync.Mutex
	batches [][]models.EnrichedRecord
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Write(ctx context.Context, records []models.EnrichedRecord) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, records)
	if f.err != nil {
		return 0, f.err
	}
	return len(records), nil
}

func (f *fakeSink) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

type fakeLock struct {
	mu   sync.Mutex
	held map[string]bool
	err  error
}

func newFakeLock() *fakeLock {
	return &fakeLock{held: map[string]bool{}}
}

func (l *fakeLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *fakeLock) Unlock(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

func (l *fakeLock) isHeld(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held[key]
}

type recordingObserver struct {
	mu     sync.Mutex
	events []models.RunSummary
}

func (o *recordingObserver) OnRun(s models.RunSummary) {
	o.mu.Lock()
	o.events = append(o.events, s)
	o.mu.Unlock()
}

func (o *recordingObserver) statuses() []models.RunStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.RunStatus, len(o.events))
	for i, e := range o.events {
		out[i] = e.Status
	}
	return out
}

func priceQuote(price float64) *fakeQuote {
	return &fakeQuote{fn: func(ctx context.Context, symbol string) (models.LiveQuote, error) {
		return models.LiveQuote{LatestPrice: models.Float64Ptr(price), Volume: models.Int64Ptr(42)}, nil
	}}
}

func staticNews(n int) *fakeNews {
	return &fakeNews{fn: func(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
		items := make([]models.NewsItem, n)
		for i := range items {
			items[i] = models.NewsItem{Title: symbol + " headline"}
		}
		return items, nil
	}}
}

func staticSentiment(score float64) *fakeSentiment {
	return &fakeSentiment{fn: func(ctx context.Context, symbol string) (models.Sentiment, error) {
		return models.Sentiment{Score: score, Positive: models.Float64Ptr(0.7)}, nil
	}}
}
