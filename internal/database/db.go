package database

import (
	"fmt"

	"aptracker/internal/model"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewConnection initializes a new connection pool using GORM and migrates
// the AP schema.
func NewConnection(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info().Msg("database schema migrated")
	return db, nil
}

// Migrate creates or updates the tables of every persisted model.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Vendor{},
		&model.Invoice{},
		&model.PaymentSchedule{},
		&model.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate models: %w", err)
	}
	return nil
}
