// Package ratelimit throttles register and login attempts per client IP.
package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/redmonkez12/go-auth-service/internal/config"
)

// Limiter tracks requests per (purpose, ip) pair.
// Check and Record are split so a request is only counted once it passes
// body decoding.
type Limiter interface {
	// CheckIPRateLimitWithPurpose reports whether ip has exhausted its allowance for purpose
	CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error)
	// RecordIPRequestWithPurpose counts one request from ip for purpose
	RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error
}

// New builds the limiter selected by cfg.Backend. rdb is only used by the
// redis backend and may be nil otherwise.
func New(cfg config.RateLimitConfig, rdb *redis.Client) (Limiter, error) {
	switch cfg.Backend {
	case config.RateLimitRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis rate limiter requires a redis client")
		}
		return NewRedisLimiter(rdb, cfg.MaxRequests, cfg.Window), nil
	case config.RateLimitMemory:
		return NewMemoryLimiter(cfg.MaxRequests, cfg.Window), nil
	case config.RateLimitOff:
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unsupported rate limit backend %q", cfg.Backend)
	}
}

// Noop never limits
type Noop struct{}

func (Noop) CheckIPRateLimitWithPurpose(context.Context, string, string) (bool, error) {
	return false, nil
}

func (Noop) RecordIPRequestWithPurpose(context.Context, string, string) error {
	return nil
}

func key(purpose, ip string) string {
	return fmt.Sprintf("ratelimit:%s:%s", purpose, ip)
}
