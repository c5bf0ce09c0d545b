package migration

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, log *zap.Logger) error {
		if err := RunMigrations(conn); err != nil {
			return err
		}
		log.Named("migrations").Info("schema up to date", zap.Int("tables", len(Models())))
		return nil
	}),
)
