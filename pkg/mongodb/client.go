package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// ClientOption configures Client.
type ClientOption func(*ClientConfig)

// ClientConfig holds MongoDB connection settings.
type ClientConfig struct {
	URI     string
	AppName string
	Timeout time.Duration
}

// WithURI sets the connection string.
func WithURI(uri string) ClientOption {
	return func(c *ClientConfig) {
		c.URI = uri
	}
}

// WithAppName tags connections in server logs.
func WithAppName(name string) ClientOption {
	return func(c *ClientConfig) {
		c.AppName = name
	}
}

// WithTimeout bounds connect, server selection and the initial ping.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) {
		if d > 0 {
			c.Timeout = d
		}
	}
}

// Client wraps a connected mongo.Client.
type Client struct {
	client *mongo.Client
}

// NewClient connects and pings the primary.
func NewClient(ctx context.Context, opts ...ClientOption) (*Client, error) {
	cfg := ClientConfig{AppName: "finenrich", Timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.URI == "" {
		return nil, errors.New("uri is required")
	}

	co := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(cfg.AppName).
		SetConnectTimeout(cfg.Timeout).
		SetServerSelectionTimeout(cfg.Timeout)

	client, err := mongo.Connect(co)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &Client{client: client}, nil
}

// Collection returns a handle to database.collection.
func (c *Client) Collection(database, collection string) *mongo.Collection {
	return c.client.Database(database).Collection(collection)
}

// Health pings the primary.
func (c *Client) Health(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (c *Client) Close(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Disconnect(ctx)
}
