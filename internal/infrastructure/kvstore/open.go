package kvstore

import (
	"context"
	"fmt"

	"glance/internal/config"
	"glance/internal/ports"

	"github.com/rs/zerolog"
)

// Open builds the backend selected by cfg.Backend
func Open(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (ports.KVStore, error) {
	var (
		store ports.KVStore
		err   error
	)
	switch cfg.Backend {
	case config.BackendFile, "":
		logger.Info().Str("dir", cfg.DataDir).Msg("Using file storage")
		var fs *FileStore
		if fs, err = NewFileStore(cfg.DataDir); err == nil {
			store = fs
		}
	case config.BackendMemory:
		logger.Warn().Msg("Using in-memory storage, data will not survive a restart")
		store = NewMemoryStore()
	case config.BackendRedis:
		logger.Info().Msg("Using redis storage")
		var rs *RedisStore
		if rs, err = NewRedisStore(ctx, cfg.RedisURL, cfg.RedisPrefix); err == nil {
			store = rs
		}
	case config.BackendMongo:
		logger.Info().Str("database", cfg.MongoDatabase).Msg("Using mongodb storage")
		var ms *MongoStore
		if ms, err = NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase); err == nil {
			store = ms
		}
	case config.BackendPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
		logger.Info().Msg("Using postgres storage")
		var ps *PostgresStore
		if ps, err = NewPostgresStore(ctx, cfg.PostgresDSN); err == nil {
			store = ps
		}
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
