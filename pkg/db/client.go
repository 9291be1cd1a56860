package db

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gocart/storefront/pkg/config"
	"github.com/gocart/storefront/pkg/logger"
)

// Goose dialect names.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

// Client owns the GORM pool behind the SQL cart storage.
type Client struct {
	conn    *gorm.DB
	dialect string
}

// New opens SQLite when useSQLite is set and Postgres otherwise, then applies
// pool limits from cfg.
func New(ctx context.Context, cfg config.DBConfig, useSQLite bool, logg *logger.Logger) (*Client, error) {
	dialector, dialect, err := dialectorFor(cfg, useSQLite)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 newGormLogger(logg, cfg.SlowQueryThreshold),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s connection: %w", dialect, err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}
	configurePool(sqlDB, cfg)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	logg.Info(logg.WithField(ctx, "dialect", dialect), "database connection established")
	return &Client{conn: conn, dialect: dialect}, nil
}

func dialectorFor(cfg config.DBConfig, useSQLite bool) (gorm.Dialector, string, error) {
	if useSQLite {
		if cfg.SQLitePath == "" {
			return nil, "", fmt.Errorf("sqlite path is required")
		}
		return sqlite.Open(cfg.SQLitePath), DialectSQLite, nil
	}
	if cfg.DSN == "" {
		return nil, "", fmt.Errorf("database DSN is required")
	}
	// Simple protocol keeps pgbouncer in transaction mode happy.
	return postgres.New(postgres.Config{DSN: cfg.DSN, PreferSimpleProtocol: true}), DialectPostgres, nil
}

func configurePool(sqlDB *sql.DB, cfg config.DBConfig) {
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

// NewFromConn wraps an already opened connection.
func NewFromConn(conn *gorm.DB, dialect string) *Client {
	return &Client{conn: conn, dialect: dialect}
}

func (c *Client) DB() *gorm.DB {
	return c.conn
}

// Dialect names the goose dialect matching the open connection.
func (c *Client) Dialect() string {
	return c.dialect
}

// Ping backs the readiness check.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (c *Client) Close() error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
