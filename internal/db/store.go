package db

import (
	"github.com/rs/zerolog"

	"medbook/internal/config"
	"medbook/internal/repository"
)

// OpenStore connects the configured backend, applies the schema and returns
// its repositories with a close function. DB_DRIVER=memory needs no server.
func OpenStore(cfg *config.Config, logger zerolog.Logger) (repository.Set, func() error, error) {
	if cfg.DBDriver == "memory" {
		logger.Warn().Msg("using in-memory store, data is lost on exit")
		return repository.NewMemoryStore().Set(), func() error { return nil }, nil
	}

	gormDB, err := Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return repository.Set{}, nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return repository.Set{}, nil, err
	}

	if cfg.ResetDB {
		logger.Warn().Msg("RESET_DB=true detected, dropping all tables")
		if err := Reset(gormDB); err != nil {
			return repository.Set{}, nil, err
		}
	}
	if err := Migrate(gormDB); err != nil {
		return repository.Set{}, nil, err
	}
	logger.Info().Str("driver", cfg.DBDriver).Msg("database ready")

	return repository.NewGormSet(gormDB), sqlDB.Close, nil
}
