package exchangerate

import (
	"context"
	"fmt"
	"strings"

	dsvc "FinEnrich/internal/domain/service"
	xhttp "FinEnrich/pkg/http"
)

const DefaultBaseURL = "https://api.exchangerate.host"

// Option configures Client.
type Option func(*Client)

// Client implements FXProvider backed by exchangerate.host /latest.
type Client struct {
	http      *xhttp.Client
	baseURL   string
	accessKey string
}

// New creates an exchangerate.host client.
func New(httpClient *xhttp.Client, opts ...Option) dsvc.FXProvider {
	c := &Client{http: httpClient, baseURL: DefaultBaseURL}
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

// WithAccessKey sets the access_key query parameter required by paid plans.
func WithAccessKey(key string) Option {
	return func(c *Client) {
		c.accessKey = key
	}
}

type latestResponse struct {
	Success *bool              `json:"success"`
	Base    string             `json:"base"`
	Rates   map[string]float64 `json:"rates"`
	Error   *struct {
		Code int    `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// Rate returns how many units of quote one unit of base buys.
func (c *Client) Rate(ctx context.Context, base, quote string) (float64, error) {
	params := map[string][]string{
		"base":    {base},
		"symbols": {quote},
	}
	if c.accessKey != "" {
		params["access_key"] = []string{c.accessKey}
	}

	var resp latestResponse
	if err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/latest",
		QueryParams: params,
	}, &resp); err != nil {
		return 0, fmt.Errorf("exchangerate latest: %w", err)
	}

	if resp.Success != nil && !*resp.Success {
		if resp.Error != nil {
			return 0, fmt.Errorf("exchangerate latest: %d: %s", resp.Error.Code, resp.Error.Info)
		}
		return 0, fmt.Errorf("exchangerate latest: request unsuccessful")
	}

	rate, ok := resp.Rates[quote]
	if !ok {
		return 0, fmt.Errorf("exchangerate latest: no rate for %s/%s", base, quote)
	}
	return rate, nil
}
