package migrate

import (
	"context"

	"github.com/boletera/admin-gateway/pkg/config"
	"github.com/boletera/admin-gateway/pkg/db"
	"github.com/boletera/admin-gateway/pkg/db/models"
	"github.com/boletera/admin-gateway/pkg/logger"
)

// MaybeRunDev auto-migrates the reconciliation schema in dev environments.
// Production deployments run cmd/migrate explicitly.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg == nil || client == nil {
		return nil
	}
	if !cfg.App.IsDev() {
		return nil
	}

	if err := client.DB().WithContext(ctx).AutoMigrate(&models.UnresolvedConfirmation{}); err != nil {
		return err
	}
	if logg != nil {
		logg.Info(ctx, "dev auto-migration applied")
	}
	return nil
}
