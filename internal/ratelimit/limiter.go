package ratelimit

import (
	"context"
	"fmt"
	"time"

	autherrors "github.com/jrsteele09/go-social-auth/internal/errors"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "social-auth:login"

// Config holds the failed-login budget.
type Config struct {
	MaxAttempts   int
	Cooldown      time.Duration
	EnableIPLimit bool // Also count failures per client ip
}

// LoginLimiter counts failed logins in Redis using fixed windows. Once an
// email or ip has MaxAttempts failures inside Cooldown, Check refuses.
type LoginLimiter struct {
	redis  redis.UniversalClient
	config Config
}

func NewLoginLimiter(client redis.UniversalClient, config Config) (*LoginLimiter, error) {
	if client == nil {
		return nil, errors.New("[ratelimit.NewLoginLimiter] redis client is required")
	}
	if config.MaxAttempts <= 0 {
		return nil, errors.New("[ratelimit.NewLoginLimiter] MaxAttempts must be positive")
	}
	if config.Cooldown <= 0 {
		return nil, errors.New("[ratelimit.NewLoginLimiter] Cooldown must be positive")
	}
	return &LoginLimiter{redis: client, config: config}, nil
}

// Check returns errors.ErrRateLimited when the budget for identifier or ip is spent
func (l *LoginLimiter) Check(ctx context.Context, identifier, ip string) error {
	for _, key := range l.keys(identifier, ip) {
		count, err := l.redis.Get(ctx, key).Int64()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return errors.Wrap(err, "[LoginLimiter.Check] Get")
		}
		if count >= int64(l.config.MaxAttempts) {
			return autherrors.ErrRateLimited
		}
	}
	return nil
}

// Fail records a failed attempt. It returns errors.ErrRateLimited once the
// attempt used up the last of the budget.
func (l *LoginLimiter) Fail(ctx context.Context, identifier, ip string) error {
	limited := false
	for _, key := range l.keys(identifier, ip) {
		count, err := l.incrementWithTTL(ctx, key)
		if err != nil {
			return err
		}
		if count >= int64(l.config.MaxAttempts) {
			limited = true
		}
	}
	if limited {
		return autherrors.ErrRateLimited
	}
	return nil
}

// Reset clears the counters after a successful login
func (l *LoginLimiter) Reset(ctx context.Context, identifier, ip string) error {
	if err := l.redis.Del(ctx, l.keys(identifier, ip)...).Err(); err != nil {
		return errors.Wrap(err, "[LoginLimiter.Reset] Del")
	}
	return nil
}

// Attempts returns the failures recorded against identifier in the current window
func (l *LoginLimiter) Attempts(ctx context.Context, identifier string) (int, error) {
	count, err := l.redis.Get(ctx, identifierKey(identifier)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "[LoginLimiter.Attempts] Get")
	}
	return count, nil
}

func (l *LoginLimiter) incrementWithTTL(ctx context.Context, key string) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, errors.Wrap(err, "[LoginLimiter.incrementWithTTL] Incr")
	}
	// The window starts at the first failure.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Cooldown).Err(); err != nil {
			return 0, errors.Wrap(err, "[LoginLimiter.incrementWithTTL] Expire")
		}
	}
	return count, nil
}

func (l *LoginLimiter) keys(identifier, ip string) []string {
	keys := []string{identifierKey(identifier)}
	if l.config.EnableIPLimit && ip != "" {
		keys = append(keys, fmt.Sprintf("%s:ip:%s", keyPrefix, ip))
	}
	return keys
}

func identifierKey(identifier string) string {
	return fmt.Sprintf("%s:id:%s", keyPrefix, identifier)
}
