package database

import (
	"fmt"
	"time"

	"fitness-booking/pkg/utils"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func gormConfig(debug bool) *gorm.Config {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// OpenSQLite opens an embedded database file; ":memory:" works for tests.
func OpenSQLite(path string, debug bool) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig(debug))
	if err != nil {
		return nil, fmt.Errorf("gorm open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db.DB(): %w", err)
	}
	// sqlite serializes writers anyway
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

func OpenGormPostgres(config utils.DatabaseConfig, debug bool) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(PostgresDSN(config)), gormConfig(debug))
	if err != nil {
		return nil, fmt.Errorf("gorm open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db.DB(): %w", err)
	}
	if config.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(int(config.MaxConns))
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}
