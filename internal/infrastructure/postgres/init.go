package postgres

import (
	"log"

	"github.com/LavaJover/vaultx-rates-service/internal/config"
	"github.com/LavaJover/vaultx-rates-service/internal/infrastructure/migrate"
	"github.com/LavaJover/vaultx-rates-service/internal/infrastructure/postgres/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func MustInitDB(cfg *config.RatesConfig) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.RatesDB.Dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	if cfg.RatesDB.MigrationsPath != "" {
		if err := migrate.RunMigrations(db, cfg.RatesDB.MigrationsPath); err != nil {
			log.Fatalf("failed to run migrations: %v\n", err)
		}
		return db
	}

	if err := db.AutoMigrate(&models.RateSnapshotModel{}); err != nil {
		log.Fatalf("failed to automigrate: %v\n", err)
	}
	return db
}
