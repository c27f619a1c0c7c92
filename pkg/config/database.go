package config

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"devscope/internal/models"
)

var DB *gorm.DB

// InitDB opens the postgres connection and migrates the document and
// detection log tables.
func InitDB(cfg DatabaseConfig) error {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.Document{}, &models.DetectionLog{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	DB = db
	log.WithFields(log.Fields{
		"host": cfg.Host,
		"name": cfg.Name,
	}).Info("Database connected")
	return nil
}
