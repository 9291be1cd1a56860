package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/gocart/storefront/pkg/config"
	"github.com/gocart/storefront/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Client owns a pooled mongo connection bound to one database.
type Client struct {
	raw *mongo.Client
	db  *mongo.Database
}

// New connects, pings and selects the configured database.
func New(ctx context.Context, cfg config.MongoConfig, logg *logger.Logger) (*Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongo database is required")
	}

	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(5 * time.Second)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	raw, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := raw.Ping(ctx, nil); err != nil {
		_ = raw.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "database", cfg.Database), "mongo connection established")
	}
	return &Client{raw: raw, db: raw.Database(cfg.Database)}, nil
}

// Database returns the selected database handle.
func (c *Client) Database() *mongo.Database {
	return c.db
}

// Ping verifies the deployment is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.raw.Ping(ctx, nil)
}

// Close disconnects the pooled client.
func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Disconnect(ctx)
}
