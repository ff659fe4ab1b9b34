package newsapi

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"FinEnrich/internal/domain/models"
	dsvc "FinEnrich/internal/domain/service"
	xhttp "FinEnrich/pkg/http"
)

const DefaultBaseURL = "https://newsapi.org"

// Option configures Client.
type Option func(*Client)

// Client implements NewsProvider backed by NewsAPI /v2/everything.
type Client struct {
	http    *xhttp.Client
	baseURL string
	apiKey  string
}

// New creates a NewsAPI client.
func New(httpClient *xhttp.Client, apiKey string, opts ...Option) dsvc.NewsProvider {
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

type everythingResponse struct {
	Status       string            `json:"status"`
	Code         string            `json:"code"`
	Message      string            `json:"message"`
	TotalResults int               `json:"totalResults"`
	Articles     []models.NewsItem `json:"articles"`
}

// Headlines returns at most limit articles matching symbol. Never returns a nil slice on success.
func (c *Client) Headlines(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("newsapi: api key is not configured")
	}

	params := map[string][]string{
		"q":      {symbol},
		"apiKey": {c.apiKey},
	}
	if limit > 0 {
		params["pageSize"] = []string{strconv.Itoa(limit)}
	}

	var resp everythingResponse
	if err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/v2/everything",
		QueryParams: params,
	}, &resp); err != nil {
		return nil, fmt.Errorf("newsapi everything: %w", err)
	}

	if resp.Status != "" && resp.Status != "ok" {
		return nil, fmt.Errorf("newsapi everything: %s: %s", resp.Code, resp.Message)
	}

	articles := resp.Articles
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	out := make([]models.NewsItem, len(articles))
	copy(out, articles)
	return out, nil
}
