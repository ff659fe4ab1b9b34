package finnhub

import (
	"context"
	"fmt"
	"strings"

	"FinEnrich/internal/domain/models"
	dsvc "FinEnrich/internal/domain/service"
	xhttp "FinEnrich/pkg/http"
)

const DefaultBaseURL = "https://finnhub.io"

// Option configures Client.
type Option func(*Client)

// Client implements SentimentProvider backed by the Finnhub news-sentiment endpoint.
type Client struct {
	http    *xhttp.Client
	baseURL string
	apiKey  string
}

// New creates a Finnhub REST client.
func New(httpClient *xhttp.Client, apiKey string, opts ...Option) dsvc.SentimentProvider {
	c := &Client{http: httpClient, baseURL: DefaultBaseURL, apiKey: apiKey}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithBaseURL overrides the API host.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

type fhSentiment struct {
	Symbol string `json:"symbol"`

	// flat fields, preferred when present
	SentimentScore *float64 `json:"sentiment_score"`
	Positive       *float64 `json:"positive"`
	Negative       *float64 `json:"negative"`
	Neutral        *float64 `json:"neutral"`

	CompanyNewsScore *float64 `json:"companyNewsScore"`
	Sentiment        *struct {
		BullishPercent *float64 `json:"bullishPercent"`
		BearishPercent *float64 `json:"bearishPercent"`
	} `json:"sentiment"`
}

// Sentiment returns the news sentiment summary for symbol.
func (c *Client) Sentiment(ctx context.Context, symbol string) (models.Sentiment, error) {
	if c.apiKey == "" {
		return models.Sentiment{}, fmt.Errorf("finnhub: api key is not configured")
	}

	var resp fhSentiment
	if err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/api/v1/news-sentiment",
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"token":  {c.apiKey},
		},
	}, &resp); err != nil {
		return models.Sentiment{}, fmt.Errorf("finnhub news-sentiment: %w", err)
	}

	return resp.toModel(), nil
}

func (r fhSentiment) toModel() models.Sentiment {
	out := models.Sentiment{
		Positive: r.Positive,
		Negative: r.Negative,
		Neutral:  r.Neutral,
	}
	switch {
	case r.SentimentScore != nil:
		out.Score = *r.SentimentScore
	case r.CompanyNewsScore != nil:
		out.Score = *r.CompanyNewsScore
	}
	if r.Sentiment != nil {
		if out.Positive == nil {
			out.Positive = r.Sentiment.BullishPercent
		}
		if out.Negative == nil {
			out.Negative = r.Sentiment.BearishPercent
		}
	}
	return out
}
