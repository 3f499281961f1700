// internal/database/postgres.go
package database

import (
	"agv-simulator/internal/config"
	"agv-simulator/internal/models"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB 이력 DB 연결 후 테이블 마이그레이션
func NewPostgresDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := db.AutoMigrate(
		&models.OrderRecord{},  // 오더 이력
		&models.ActionRecord{}, // 액션 이력
	); err != nil {
		return nil, fmt.Errorf("failed to migrate history tables: %w", err)
	}

	return db, nil
}
