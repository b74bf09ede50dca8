package main

import (
	"context"
	"fmt"

	"github.com/BloggingApp/artblog-service/internal/config"
	"github.com/BloggingApp/artblog-service/internal/repository"
	"github.com/BloggingApp/artblog-service/internal/repository/postgres"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// openRepository connects the configured storage driver. The returned func
// releases its connections.
func openRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*repository.Repository, func(), error) {
	if cfg.Storage.Driver == config.DriverMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		return repository.NewMemory(), func() {}, nil
	}

	db, err := postgres.DB(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	logger.Info("Successfully connected to PostgreSQL")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pong, err := rdb.Ping(ctx).Result()
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	logger.Sugar().Infof("Successfully connected to Redis: %s", pong)

	closeAll := func() {
		if err := rdb.Close(); err != nil {
			logger.Sugar().Errorf("failed to close redis client: %s", err.Error())
		}
		db.Close()
	}

	return repository.New(db, rdb, logger), closeAll, nil
}
