package setup

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"clov-canvas/internal/domain"
)

// defaultBackgrounds seeds an empty catalog. URLs are relative to the asset
// base URL.
var defaultBackgrounds = []domain.Background{
	{ID: 1, Title: "Studio", URL: "backgrounds/1.png"},
	{ID: 2, Title: "Beach", URL: "backgrounds/2.png"},
	{ID: 3, Title: "Forest", URL: "backgrounds/3.png"},
	{ID: 4, Title: "City Night", URL: "backgrounds/4.png"},
	{ID: 5, Title: "Space", URL: "backgrounds/5.png"},
}

// MigrateDB creates or updates the schema and seeds the background catalog.
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}

	if err := db.AutoMigrate(&domain.Room{}, &domain.Participant{}, &domain.Background{}); err != nil {
		logrus.Errorf("Failed to auto-migrate tables: %v", err)
		return fmt.Errorf("failed to auto-migrate tables: %w", err)
	}

	if err := seedBackgrounds(db); err != nil {
		return err
	}

	logrus.Info("Database migration completed successfully")
	return nil
}

func seedBackgrounds(db *gorm.DB) error {
	var count int64
	if err := db.Model(&domain.Background{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count backgrounds: %w", err)
	}
	if count > 0 {
		return nil
	}
	if err := db.Create(&defaultBackgrounds).Error; err != nil {
		return fmt.Errorf("failed to seed backgrounds: %w", err)
	}
	logrus.WithField("count", len(defaultBackgrounds)).Info("Seeded background catalog")
	return nil
}
