package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// SetupRedis connects to the token revocation store. It returns nil, nil when
// Redis is disabled. An unreachable server is an error: logout would otherwise
// silently stop revoking tokens.
func SetupRedis(ctx context.Context, cfg *RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	if cfg == nil {
		return nil, errors.New("redis config is nil")
	}
	if !cfg.Enabled {
		return nil, nil
	}
	if logger == nil {
		return nil, errors.New("logger is nil")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	logger.Info("redis connected", slog.String("addr", cfg.Addr), slog.Int("db", cfg.DB))
	return client, nil
}
