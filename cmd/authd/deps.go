package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/redmonkez12/go-auth-service/internal/auth"
	"github.com/redmonkez12/go-auth-service/internal/config"
	"github.com/redmonkez12/go-auth-service/internal/database"
	"github.com/redmonkez12/go-auth-service/internal/logging"
	"github.com/redmonkez12/go-auth-service/internal/ratelimit"
	"github.com/redmonkez12/go-auth-service/internal/user"
)

// newStore builds the configured user store and connects it
func newStore(ctx context.Context, cfg *config.Config, logger *logging.Logger) (user.Store, error) {
	var store user.Store

	switch cfg.Store.Driver {
	case config.StoreMongo:
		client, err := database.NewMongoClient(cfg.Mongo)
		if err != nil {
			return nil, err
		}
		store = user.NewMongoRepository(client, cfg.Mongo.Database, cfg.Mongo.Collection)

	case config.StorePostgres:
		if cfg.Store.AutoMigrate {
			if err := database.RunMigrations(cfg.Database.URL()); err != nil {
				return nil, err
			}
			logger.Info("database migrations applied")
		}

		db, err := database.Open(cfg.Database)
		if err != nil {
			return nil, err
		}
		store = user.NewRepository(db)

	default:
		return nil, fmt.Errorf("unsupported user store %q", cfg.Store.Driver)
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Store.ConnectTimeout)
	defer cancel()

	if err := store.Connect(connectCtx); err != nil {
		// release the pool or client we just opened
		return nil, errors.Join(err, store.Disconnect(context.Background()))
	}

	logger.Info("connected to user store", "driver", cfg.Store.Driver)
	return store, nil
}

// newTokenService builds the configured token format
func newTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	var (
		tokens auth.TokenService
		err    error
	)

	switch cfg.TokenFormat {
	case config.TokenJWT:
		tokens, err = auth.NewJWTService([]byte(cfg.JWTSecret), cfg.TokenIssuer, cfg.TokenDuration)
	case config.TokenPaseto:
		tokens, err = auth.NewPasetoService([]byte(cfg.PasetoKey), cfg.TokenIssuer, cfg.TokenDuration)
	default:
		return nil, fmt.Errorf("unsupported token format %q", cfg.TokenFormat)
	}
	if err != nil {
		return nil, err
	}

	return tokens, nil
}

// newRedis returns a connected client when the redis rate limiter is selected, nil otherwise
func newRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.RateLimit.Backend != config.RateLimitRedis {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

// newLimiter wires the rate limiter and returns a release func for its resources
func newLimiter(ctx context.Context, cfg *config.Config) (ratelimit.Limiter, func(), error) {
	rdb, err := newRedis(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	limiter, err := ratelimit.New(cfg.RateLimit, rdb)
	if err != nil {
		if rdb != nil {
			rdb.Close()
		}
		return nil, nil, err
	}

	release := func() {
		if m, ok := limiter.(*ratelimit.MemoryLimiter); ok {
			m.Close()
		}
		if rdb != nil {
			rdb.Close()
		}
	}

	return limiter, release, nil
}
