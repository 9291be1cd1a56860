package migrate

import (
	"context"
	"fmt"

	"github.com/gocart/storefront/pkg/config"
	"github.com/gocart/storefront/pkg/db"
	"github.com/gocart/storefront/pkg/logger"
)

// MaybeRunDev applies the bundled migrations when auto-migrate is enabled outside production.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg.App.IsProd() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dialect": client.Dialect()})
	logg.Info(ctx, "running goose migrations (auto-run)")

	applied, err := UpEmbedded(ctx, sqlDB, client.Dialect())
	if err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(logg.WithField(ctx, "applied", applied), "goose migrations completed")
	return nil
}
