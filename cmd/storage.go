package cmd

import (
	"context"
	"fmt"

	"fitness-booking/internal/data/repository"
	"fitness-booking/pkg/database"
	"fitness-booking/pkg/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpenRepository connects the configured snapshot backend. The returned
// close func releases the connection.
func OpenRepository(ctx context.Context, config *utils.Config, logger *zap.Logger) (*repository.Repository, func(), error) {
	switch config.Storage.Driver {
	case "", "memory":
		logger.Warn("Using in-memory storage, data is lost on restart")
		return repository.NewMemoryRepository(logger), func() {}, nil

	case "postgres":
		db, err := database.InitDB(config.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := repository.EnsureSnapshotSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ensure snapshot schema: %w", err)
		}
		return repository.NewRepository(db, logger), db.Close, nil

	case "sqlite", "gorm_postgres":
		var gdb *gorm.DB
		var err error
		if config.Storage.Driver == "sqlite" {
			gdb, err = database.OpenSQLite(config.Storage.SQLitePath, config.App.Debug)
		} else {
			gdb, err = database.OpenGormPostgres(config.Database, config.App.Debug)
		}
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, nil, err
		}
		repo, err := repository.NewGormRepository(ctx, gdb, logger)
		if err != nil {
			sqlDB.Close()
			return nil, nil, err
		}
		return repo, func() { sqlDB.Close() }, nil
	}

	return nil, nil, fmt.Errorf("unknown storage driver %q", config.Storage.Driver)
}
