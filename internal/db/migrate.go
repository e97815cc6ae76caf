package db

import (
	"context"
	"fmt"

	"github.com/zulandar/bugboard/internal/bug"
	"github.com/zulandar/bugboard/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every GORM model for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Bug{},
		&models.Comment{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedSamples loads the sample bugs into an empty database and returns how
// many were inserted. A database that already holds bugs is left alone.
func SeedSamples(ctx context.Context, db *gorm.DB) (int, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Bug{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("db: seed samples: %w", err)
	}
	if count > 0 {
		return 0, nil
	}
	n, err := bug.NewDBStore(db, nil).Import(ctx, bug.SampleBugs())
	if err != nil {
		return 0, fmt.Errorf("db: seed samples: %w", err)
	}
	return n, nil
}
