package database

import (
	"fmt"
	"time"

	"github.com/stroytech/docvault/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func ConnectReturnGormDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DB_HOST, cfg.DB_PORT, cfg.DB_USERNAME, cfg.DB_PASSWORD, cfg.DB_DATABASE)

	// TranslateError maps driver unique-violation errors onto
	// gorm.ErrDuplicatedKey, which the repository race handling relies on.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	idle, err := time.ParseDuration(cfg.MaxIdleTime)
	if err != nil {
		idle = 15 * time.Minute
	}
	sqlDB.SetConnMaxIdleTime(idle)

	return db, nil
}
