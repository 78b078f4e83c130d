package database

import (
	"context"
	"database/sql"
	"fmt"

	"seribro_backend/database/migrations"
	"seribro_backend/internal/config"
	"seribro_backend/internal/logger"
	"seribro_backend/internal/models"

	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect открывает GORM поверх postgres и настраивает пул
func Connect(cfg *config.Config) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if cfg.Server.Env == "development" {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		// gorm.ErrDuplicatedKey вместо ошибок драйвера
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.Database.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}

	return db, nil
}

// gooseUpContext - шов для тестов
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate применяет встроенные SQL-миграции через goose
func Migrate(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	logger.Info("✅ Migrations applied")
	return nil
}

// AutoMigrate - режим разработки без goose: схема из моделей.
// Частичный уникальный индекс заявок создается вручную, AutoMigrate его не умеет.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.OTPCode{},
		&models.RevokedToken{},
		&models.Profile{},
		&models.Project{},
		&models.Application{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_applications_active_pair
		ON applications (project_id, student_id) WHERE status <> 'withdrawn'`).Error
	if err != nil {
		return fmt.Errorf("create applications index: %w", err)
	}

	logger.Info("✅ AutoMigrate completed")
	return nil
}
