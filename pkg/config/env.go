package config

const EnvPrefix = "GOCART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	CartStorageRedis  = "redis"
	CartStorageSQL    = "sql"
	CartStorageMongo  = "mongo"
	CartStorageMemory = "memory"
)

const (
	EnvAppEnv   = "GOCART_APP_ENV"
	EnvPort     = "GOCART_APP_PORT"
	EnvLogLevel = "GOCART_LOG_LEVEL"

	EnvDBDSN  = "GOCART_DB_DSN"
	EnvDBHost = "GOCART_DB_HOST"
	EnvDBUser = "GOCART_DB_USER"
	EnvDBName = "GOCART_DB_NAME"

	EnvRedisURL = "GOCART_REDIS_URL"
	EnvMongoURI = "GOCART_MONGO_URI"

	EnvJWTSecret  = "GOCART_JWT_SECRET"
	EnvJWTIssuer  = "GOCART_JWT_ISSUER"
	EnvJWTExpMins = "GOCART_JWT_EXPIRATION_MINUTES"

	EnvCartStorage = "GOCART_CART_STORAGE"

	EnvPricingTaxRate   = "GOCART_PRICING_TAX_RATE"
	EnvPricingThreshold = "GOCART_PRICING_FREE_DELIVERY_THRESHOLD"
	EnvPricingFee       = "GOCART_PRICING_DELIVERY_FEE"

	EnvBackendBaseURL     = "GOCART_BACKEND_BASE_URL"
	EnvBackendVendorQuery = "GOCART_BACKEND_VENDOR_QUERY"

	EnvUseSQLite = "GOCART_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
