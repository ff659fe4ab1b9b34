package usecase

import (
	"math"
	"time"

	"FinEnrich/internal/domain/models"
)

// MergerOption configures Merger.
type MergerOption func(*Merger)

// Merger combines a cleaned row with its enrichment results.
type Merger struct {
	now func() time.Time
}

// NewMerger creates a Merger using the wall clock.
func NewMerger(opts ...MergerOption) *Merger {
	m := &Merger{now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithClock injects the clock used for GeneratedAt.
func WithClock(now func() time.Time) MergerOption {
	return func(m *Merger) {
		if now != nil {
			m.now = now
		}
	}
}

// Merge builds the enriched record. It has no side effects beyond reading the clock.
func (m *Merger) Merge(
	row models.CleanRecord,
	quote models.LiveQuote,
	news []models.NewsItem,
	sentiment models.Sentiment,
	fxRate *float64,
) models.EnrichedRecord {
	if news == nil {
		news = []models.NewsItem{}
	}
	return models.EnrichedRecord{
		Symbol:           row.Symbol,
		Date:             row.Date.Format(models.DateLayout),
		Open:             row.Open,
		Close:            row.Close,
		VolumeFromSource: row.Volume,
		LatestPrice:      quote.LatestPrice,
		LiveVolume:       quote.Volume,
		USDToLocalRate:   fxRate,
		Sentiment:        sentiment,
		News:             news,
		ImpactScore:      ImpactScore(row.Open, quote.LatestPrice),
		GeneratedAt:      m.now().UTC(),
	}
}

// ImpactScore is |latest - open| / open. A missing latest price counts as 0 and
// a zero open is replaced by 1 in the denominator.
func ImpactScore(open float64, latest *float64) float64 {
	price := 0.0
	if latest != nil {
		price = *latest
	}
	denom := math.Abs(open)
	if denom == 0 {
		denom = 1
	}
	return math.Abs(price-open) / denom
}
