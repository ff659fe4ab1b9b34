package service

import (
	"context"

	"FinEnrich/internal/domain/models"
)

// QuoteProvider returns the most recent session close and volume for a symbol.
type QuoteProvider interface {
	LatestQuote(ctx context.Context, symbol string) (models.LiveQuote, error)
}

// NewsProvider returns up to limit recent articles mentioning a symbol.
type NewsProvider interface {
	Headlines(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error)
}

// SentimentProvider returns a sentiment summary for a symbol.
type SentimentProvider interface {
	Sentiment(ctx context.Context, symbol string) (models.Sentiment, error)
}

// FXProvider returns the conversion rate from base to quote currency.
type FXProvider interface {
	Rate(ctx context.Context, base, quote string) (float64, error)
}
