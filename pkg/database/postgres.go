package database

import (
	"fmt"
	"time"

	"github.com/ngandimoun/saydo-ai-sub006/pkg/config"
	"github.com/ngandimoun/saydo-ai-sub006/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// NewPostgresConnection opens the Supabase Postgres database with a bounded pool.
func NewPostgresConnection(cfg *config.Config, log *logger.Logger) (*gorm.DB, error) {
	log.Info("Connecting to Postgres...", "host", cfg.PostgresHost, "url_configured", cfg.DatabaseURL != "")

	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("Postgres connection established")
	return db, nil
}
