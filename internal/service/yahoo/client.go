package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"FinEnrich/internal/domain/models"
	dsvc "FinEnrich/internal/domain/service"
	xhttp "FinEnrich/pkg/http"
)

const DefaultBaseURL = "https://query1.finance.yahoo.com"

var ErrNoData = errors.New("yahoo: no quote data")

// Option configures Client.
type Option func(*Client)

// Client implements QuoteProvider backed by the Yahoo Finance chart API.
type Client struct {
	http      *xhttp.Client
	baseURL   string
	userAgent string
}

// New creates a Yahoo chart client.
func New(httpClient *xhttp.Client, opts ...Option) dsvc.QuoteProvider {
	c := &Client{
		http:      httpClient,
		baseURL:   DefaultBaseURL,
		userAgent: "Mozilla/5.0 (compatible; FinEnrich/1.0)",
	}
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

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string   `json:"symbol"`
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// LatestQuote returns the close and volume of the most recent daily bar.
func (c *Client) LatestQuote(ctx context.Context, symbol string) (models.LiveQuote, error) {
	var resp chartResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, url.PathEscape(symbol)),
		Headers: map[string]string{"User-Agent": c.userAgent, "Accept": "application/json"},
		QueryParams: map[string][]string{
			"range":    {"1d"},
			"interval": {"1d"},
		},
	}, &resp)
	if err != nil {
		return models.LiveQuote{}, fmt.Errorf("yahoo chart: %w", err)
	}

	if resp.Chart.Error != nil {
		return models.LiveQuote{}, fmt.Errorf("yahoo chart: %s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return models.LiveQuote{}, ErrNoData
	}

	q := resp.Chart.Result[0].Indicators.Quote[0]
	var out models.LiveQuote
	for i := len(q.Close) - 1; i >= 0; i-- {
		if q.Close[i] == nil {
			continue
		}
		out.LatestPrice = models.Float64Ptr(*q.Close[i])
		if i < len(q.Volume) && q.Volume[i] != nil {
			out.Volume = models.Int64Ptr(int64(*q.Volume[i]))
		}
		break
	}
	if out.LatestPrice == nil {
		return models.LiveQuote{}, ErrNoData
	}
	return out, nil
}
