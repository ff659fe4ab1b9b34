package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"FinEnrich/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnricher_FetchLiveQuote(t *testing.T) {
	t.Parallel()

	e := NewEnricher(priceQuote(101.5), nil, nil, nil)
	res := e.FetchLiveQuote(context.Background(), "AAPL")

	require.False(t, res.IsDegraded())
	require.NotNil(t, res.Value.LatestPrice)
	assert.Equal(t, 101.5, *res.Value.LatestPrice)
	assert.Equal(t, int64(42), *res.Value.Volume)
}

func TestEnricher_DegradesOnProviderError(t *testing.T) {
	t.Parallel()

	quote := &fakeQuote{fn: func(ctx context.Context, symbol string) (models.LiveQuote, error) {
		return models.LiveQuote{LatestPrice: models.Float64Ptr(1)}, errUpstream
	}}
	news := &fakeNews{fn: func(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
		return nil, errUpstream
	}}
	sent := &fakeSentiment{fn: func(ctx context.Context, symbol string) (models.Sentiment, error) {
		return models.Sentiment{Score: 9}, errUpstream
	}}
	e := NewEnricher(quote, news, sent, &fakeFX{err: errUpstream})
	ctx := context.Background()

	q := e.FetchLiveQuote(ctx, "AAPL")
	assert.True(t, q.IsDegraded())
	assert.Nil(t, q.Value.LatestPrice)
	assert.Nil(t, q.Value.Volume)

	var fe *models.FetchError
	require.True(t, errors.As(q.Err, &fe))
	assert.Equal(t, SourceQuote, fe.Source)
	assert.Equal(t, "AAPL", fe.Symbol)
	assert.ErrorIs(t, q.Err, errUpstream)

	n := e.FetchNews(ctx, "AAPL")
	assert.True(t, n.IsDegraded())
	assert.NotNil(t, n.Value)
	assert.Empty(t, n.Value)

	s := e.FetchSentiment(ctx, "AAPL")
	assert.True(t, s.IsDegraded())
	assert.Equal(t, 0.0, s.Value.Score)
	assert.Nil(t, s.Value.Positive)

	fx := e.FetchFXRate(ctx, "USD", "INR")
	assert.True(t, fx.IsDegraded())
	assert.Nil(t, fx.Value)
}

func TestEnricher_NilProvidersDegrade(t *testing.T) {
	t.Parallel()

	e := NewEnricher(nil, nil, nil, nil)
	ctx := context.Background()

	assert.ErrorIs(t, e.FetchLiveQuote(ctx, "X").Err, errNotConfigured)
	assert.ErrorIs(t, e.FetchNews(ctx, "X").Err, errNotConfigured)
	assert.ErrorIs(t, e.FetchSentiment(ctx, "X").Err, errNotConfigured)
	assert.ErrorIs(t, e.FetchFXRate(ctx, "USD", "INR").Err, errNotConfigured)
}

func TestEnricher_FetchNewsTruncates(t *testing.T) {
	t.Parallel()

	e := NewEnricher(nil, staticNews(10), nil, nil, WithNewsLimit(3))
	res := e.FetchNews(context.Background(), "AAPL")

	require.False(t, res.IsDegraded())
	assert.Len(t, res.Value, 3)
}

func TestEnricher_TimeoutWithUncooperativeProvider(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)

	quote := &fakeQuote{fn: func(ctx context.Context, symbol string) (models.LiveQuote, error) {
		<-release
		return models.LiveQuote{LatestPrice: models.Float64Ptr(1)}, nil
	}}
	e := NewEnricher(quote, nil, nil, nil, WithFetchTimeout(20*time.Millisecond))

	start := time.Now()
	res := e.FetchLiveQuote(context.Background(), "SLOW")

	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, res.IsDegraded())
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.Nil(t, res.Value.LatestPrice)
}

func TestEnricher_RecoversProviderPanic(t *testing.T) {
	t.Parallel()

	sent := &fakeSentiment{fn: func(ctx context.Context, symbol string) (models.Sentiment, error) {
		panic("boom")
	}}
	e := NewEnricher(nil, nil, sent, nil)

	res := e.FetchSentiment(context.Background(), "AAPL")
	assert.True(t, res.IsDegraded())
	assert.Contains(t, res.Err.Error(), "panic: boom")
}

func TestEnricher_RateLimitDegradesWhenWaitExceedsDeadline(t *testing.T) {
	t.Parallel()

	e := NewEnricher(priceQuote(10), nil, nil, nil,
		WithFetchTimeout(50*time.Millisecond),
		WithRateLimit(SourceQuote, 0.001, 1),
	)
	ctx := context.Background()

	first := e.FetchLiveQuote(ctx, "AAPL")
	require.False(t, first.IsDegraded())

	second := e.FetchLiveQuote(ctx, "AAPL")
	assert.True(t, second.IsDegraded())
	assert.Contains(t, second.Err.Error(), "rate limit")
}

func TestEnricher_FetchFXRate(t *testing.T) {
	t.Parallel()

	fx := &fakeFX{rate: 83.2}
	e := NewEnricher(nil, nil, nil, fx)

	res := e.FetchFXRate(context.Background(), "USD", "INR")
	require.False(t, res.IsDegraded())
	require.NotNil(t, res.Value)
	assert.Equal(t, 83.2, *res.Value)
	assert.Equal(t, int32(1), fx.calls.Load())
}
