package migration

import (
	"strings"

	"github.com/homelet/tenantlink/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		// Versioned migrations target postgres. Other dialects build the
		// schema from the models.
		if !strings.EqualFold(cfg.DBType, "postgres") {
			log.Info("auto migrating non-postgres database",
				zap.String("database_type", cfg.DBType),
			)
			return AutoMigrate(conn)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		return RunMigrations(sqlDB)
	}),
)
