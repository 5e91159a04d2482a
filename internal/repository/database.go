package repository

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yourusername/neoflow/campaign-service/internal/models"
	"github.com/yourusername/neoflow/campaign-service/pkg/logger"
)

// Open connects to PostgreSQL, or to an in-memory SQLite database when
// databaseURL is empty, and migrates the rewards schema.
func Open(databaseURL string) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	if databaseURL == "" {
		logger.Info("No database URL configured, using in-memory SQLite")
		// Use pure Go SQLite (no CGO required)
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize in-memory database: %w", err)
		}

		// every pooled connection to :memory: would be its own database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sql pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	} else {
		logger.Info("Connecting to PostgreSQL database")
		db, err = gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	logger.Info("Database initialized successfully", zap.String("dialect", db.Dialector.Name()))
	return db, nil
}

// Migrate creates or updates the rewards tables.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.RewardAccount{},
		&models.PointsTransaction{},
		&models.DonorEntry{},
		&models.RaiserEntry{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
