package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/permanentprinting/storefront-backend/pkg/config"
	"github.com/permanentprinting/storefront-backend/pkg/db"
	"github.com/permanentprinting/storefront-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations at API startup. It only acts in the
// dev environment with STOREFRONT_AUTO_MIGRATE set; elsewhere cmd/migrate is
// the sole path to a schema change.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg == nil || !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	dialect := client.Dialect()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dialect": dialect})
	started := time.Now()
	if err := Up(ctx, sqlDB, dialect); err != nil {
		return fmt.Errorf("auto-migrate up: %w", err)
	}
	logg.Info(logg.WithField(ctx, "elapsed_ms", time.Since(started).Milliseconds()), "schema up to date")
	return nil
}
