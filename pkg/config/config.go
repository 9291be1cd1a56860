package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Mongo        MongoConfig
	JWT          JWTConfig
	Cart         CartConfig
	Pricing      PricingConfig
	Backend      BackendConfig
	Geocode      GeocodeConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Cart.validate(); err != nil {
		return nil, err
	}
	if cfg.Cart.Storage == CartStorageSQL && !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if cfg.Cart.Storage == CartStorageMongo && strings.TrimSpace(cfg.Mongo.URI) == "" {
		return nil, fmt.Errorf("%s is required when cart storage is %q", EnvMongoURI, CartStorageMongo)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GOCART_APP_ENV" required:"true"`
	Port         string `envconfig:"GOCART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GOCART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GOCART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN        string `envconfig:"GOCART_DB_DSN"`
	SQLitePath string `envconfig:"GOCART_DB_SQLITE_PATH" default:"gocart.db"`

	LegacyHost     string `envconfig:"GOCART_DB_HOST"`
	LegacyPort     int    `envconfig:"GOCART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GOCART_DB_USER"`
	LegacyPassword string `envconfig:"GOCART_DB_PASSWORD"`
	LegacyName     string `envconfig:"GOCART_DB_NAME"`
	LegacySSLMode  string `envconfig:"GOCART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GOCART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GOCART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GOCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GOCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"GOCART_DB_SLOW_QUERY_THRESHOLD" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GOCART_REDIS_URL"`
	Address      string        `envconfig:"GOCART_REDIS_ADDR"`
	Password     string        `envconfig:"GOCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"GOCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GOCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GOCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GOCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GOCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GOCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type MongoConfig struct {
	URI            string        `envconfig:"GOCART_MONGO_URI"`
	Database       string        `envconfig:"GOCART_MONGO_DATABASE" default:"gocart"`
	ConnectTimeout time.Duration `envconfig:"GOCART_MONGO_CONNECT_TIMEOUT" default:"10s"`
	MaxPoolSize    uint64        `envconfig:"GOCART_MONGO_MAX_POOL_SIZE" default:"100"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GOCART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GOCART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GOCART_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CartConfig struct {
	Storage string `envconfig:"GOCART_CART_STORAGE" default:"redis"`
}

func (c CartConfig) validate() error {
	switch c.Storage {
	case CartStorageRedis, CartStorageSQL, CartStorageMongo, CartStorageMemory:
		return nil
	}
	return fmt.Errorf("%s must be one of redis|sql|mongo|memory, got %q", EnvCartStorage, c.Storage)
}

// PricingConfig holds the storefront's pricing rules. Amounts are decimals in the store currency.
type PricingConfig struct {
	TaxRate               decimal.Decimal `envconfig:"GOCART_PRICING_TAX_RATE" default:"0.08"`
	FreeDeliveryThreshold decimal.Decimal `envconfig:"GOCART_PRICING_FREE_DELIVERY_THRESHOLD" default:"199"`
	DeliveryFee           decimal.Decimal `envconfig:"GOCART_PRICING_DELIVERY_FEE" default:"23"`
}

type BackendConfig struct {
	BaseURL     string        `envconfig:"GOCART_BACKEND_BASE_URL" required:"true"`
	Timeout     time.Duration `envconfig:"GOCART_BACKEND_TIMEOUT" default:"10s"`
	VendorQuery bool          `envconfig:"GOCART_BACKEND_VENDOR_QUERY" default:"false"`

	BreakerMaxRequests      uint32        `envconfig:"GOCART_BACKEND_BREAKER_MAX_REQUESTS" default:"1"`
	BreakerInterval         time.Duration `envconfig:"GOCART_BACKEND_BREAKER_INTERVAL" default:"60s"`
	BreakerOpenTimeout      time.Duration `envconfig:"GOCART_BACKEND_BREAKER_OPEN_TIMEOUT" default:"30s"`
	BreakerFailureThreshold uint32        `envconfig:"GOCART_BACKEND_BREAKER_FAILURES" default:"5"`
}

type GeocodeConfig struct {
	BaseURL   string        `envconfig:"GOCART_GEOCODE_BASE_URL" default:"https://nominatim.openstreetmap.org"`
	UserAgent string        `envconfig:"GOCART_GEOCODE_USER_AGENT" default:"gocart-storefront/1.0"`
	Timeout   time.Duration `envconfig:"GOCART_GEOCODE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GOCART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GOCART_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}
	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}
	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
