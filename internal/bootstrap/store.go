// Package bootstrap opens the configured storage for the service binaries.
package bootstrap

import (
	"context"
	"fmt"

	"redeemr/rewards-service/internal/config"
	"redeemr/rewards-service/internal/store"
	"redeemr/rewards-service/internal/store/postgres"
	"redeemr/rewards-service/internal/store/redis"
	"redeemr/rewards-service/internal/store/sqlite"

	goredis "github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// OpenStore connects to the configured database, applies the schema and, when
// RESET_TOKEN_BACKEND=redis, moves reset tokens to Redis. Close on the
// returned store releases everything it opened.
func OpenStore(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (store.Store, error) {
	var base store.Store
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		pg := postgres.NewStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("db migrate: %w", err)
		}
		base = pg
	case config.DriverSQLite:
		lite, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite open %s: %w", cfg.SQLitePath, err)
		}
		base = lite
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}
	logger.WithField("driver", cfg.DBDriver).Info("database ready")

	if cfg.ResetTokenBackend != config.ResetBackendRedis {
		return base, nil
	}
	client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		_ = base.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}
	logger.WithField("addr", cfg.RedisAddr).Info("reset tokens stored in redis")
	return &redisBacked{
		Store:  store.WithResetTokens(base, redis.NewResetTokenStore(client)),
		client: client,
	}, nil
}

type redisBacked struct {
	store.Store
	client *goredis.Client
}

func (s *redisBacked) Close() error {
	_ = s.client.Close()
	return s.Store.Close()
}
