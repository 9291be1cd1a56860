package config

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "prod" {
		t.Fatalf("expected App.Env to be prod, got %q", cfg.App.Env)
	}
	if !cfg.App.IsProd() || cfg.App.IsDev() {
		t.Fatalf("expected prod environment helpers to agree")
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected Redis URL: %q", cfg.Redis.URL)
	}
	if cfg.Backend.Timeout != 10*time.Second {
		t.Fatalf("expected backend timeout 10s, got %v", cfg.Backend.Timeout)
	}
	if cfg.Backend.VendorQuery {
		t.Fatalf("vendor query capability should default to off")
	}
}

func TestLoad_PricingDefaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if !cfg.Pricing.TaxRate.Equal(decimal.RequireFromString("0.08")) {
		t.Fatalf("unexpected tax rate %s", cfg.Pricing.TaxRate)
	}
	if !cfg.Pricing.FreeDeliveryThreshold.Equal(decimal.NewFromInt(199)) {
		t.Fatalf("unexpected threshold %s", cfg.Pricing.FreeDeliveryThreshold)
	}
	if !cfg.Pricing.DeliveryFee.Equal(decimal.NewFromInt(23)) {
		t.Fatalf("unexpected delivery fee %s", cfg.Pricing.DeliveryFee)
	}
}

func TestLoad_PricingOverride(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvPricingTaxRate, "0.18")
	t.Setenv(EnvPricingFee, "40.50")
	t.Setenv(EnvPricingThreshold, "250")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.Pricing.TaxRate.Equal(decimal.RequireFromString("0.18")) {
		t.Fatalf("unexpected tax rate %s", cfg.Pricing.TaxRate)
	}
	if cfg.Pricing.DeliveryFee.String() != "40.5" {
		t.Fatalf("unexpected delivery fee %s", cfg.Pricing.DeliveryFee)
	}
	if !cfg.Pricing.FreeDeliveryThreshold.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("unexpected threshold %s", cfg.Pricing.FreeDeliveryThreshold)
	}
}

func TestLoad_FlagsAndLogLevel(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvBackendVendorQuery, "true")
	t.Setenv(EnvCartStorage, CartStorageSQL)
	t.Setenv(EnvUseSQLite, "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.App.LogLevel != "debug" || !cfg.Backend.VendorQuery || !cfg.FeatureFlags.UseSQLite {
		t.Fatalf("unexpected flags %+v %+v %+v", cfg.App, cfg.Backend, cfg.FeatureFlags)
	}
	if cfg.DB.SlowQueryThreshold != 200*time.Millisecond {
		t.Fatalf("unexpected slow query threshold %s", cfg.DB.SlowQueryThreshold)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RejectsUnknownCartStorage(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvCartStorage, "dynamo")

	if _, err := Load(); err == nil {
		t.Fatal("expected unknown cart storage to fail")
	}
}

func TestLoad_SQLStorageBuildsLegacyDSN(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvCartStorage, CartStorageSQL)
	t.Setenv(EnvDBHost, "db.internal")
	t.Setenv(EnvDBUser, "gocart")
	t.Setenv(EnvDBName, "storefront")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	want := "postgres://gocart@db.internal:5432/storefront?sslmode=disable"
	if cfg.DB.DSN != want {
		t.Fatalf("expected dsn %q, got %q", want, cfg.DB.DSN)
	}
}

func TestLoad_SQLStorageRequiresDatabase(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvCartStorage, CartStorageSQL)

	if _, err := Load(); err == nil {
		t.Fatal("expected missing database settings to fail")
	}
}

func TestLoad_MongoStorageRequiresURI(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvCartStorage, CartStorageMongo)

	if _, err := Load(); err == nil {
		t.Fatal("expected missing mongo uri to fail")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "prod")
	t.Setenv(EnvPort, "8081")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvJWTSecret, "secret")
	t.Setenv(EnvJWTIssuer, "gocart")
	t.Setenv(EnvJWTExpMins, "60")
	t.Setenv(EnvBackendBaseURL, "https://orders.example.test")
	t.Setenv(EnvCartStorage, CartStorageRedis)
}
