package repository

import (
	"fmt"

	"go.uber.org/zap"

	"shortly/internal/config"
	"shortly/internal/database"
)

// Open creates the repository selected by cfg.StoreDriver. The postgres
// driver connects and applies the embedded migrations first.
func Open(cfg *config.Config, logger *zap.Logger) (TableRepository, error) {
	switch cfg.StoreDriver {
	case config.DriverFile, "":
		repo, err := NewFileRepository(cfg.StorePath)
		if err != nil {
			return nil, err
		}
		logger.Info("using file store", zap.String("path", cfg.StorePath))
		return repo, nil

	case config.DriverMemory:
		logger.Warn("using in-memory store, links are lost on exit")
		return NewMemoryRepository(), nil

	case config.DriverRedis:
		repo, err := NewRedisRepository(cfg.RedisURL, cfg.RedisTableKey)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to Redis store", zap.String("key", repo.key))
		return repo, nil

	case config.DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the %s store", config.DriverPostgres)
		}

		db, err := database.NewConnection(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(db); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("connected to PostgreSQL store")
		return NewPostgresRepository(db), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
