// Package ratelimit throttles failed logins with fixed-window Redis counters.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/blogapi/internal/common"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport failures talking to Redis.
var ErrRedisUnavailable = errors.New("redis unavailable")

type Config struct {
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
}

// LoginLimiter counts failed logins per login name and per client IP.
type LoginLimiter struct {
	redis  redis.UniversalClient
	config Config
}

func NewLoginLimiter(client redis.UniversalClient, cfg Config) *LoginLimiter {
	return &LoginLimiter{redis: client, config: cfg}
}

func loginKey(login string) string { return "blog:login:user:" + strings.ToLower(login) }
func ipKey(ip string) string       { return "blog:login:ip:" + ip }

func (l *LoginLimiter) keys(login, ip string) []string {
	keys := []string{loginKey(login)}
	if ip != "" {
		keys = append(keys, ipKey(ip))
	}
	return keys
}

// Check returns common.ErrRateLimited once either counter has used up the
// budget of the current window.
func (l *LoginLimiter) Check(ctx context.Context, login, ip string) error {
	for _, key := range l.keys(login, ip) {
		count, err := l.redis.Get(ctx, key).Int64()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if count >= int64(l.config.MaxLoginAttempts) {
			return common.ErrRateLimited
		}
	}
	return nil
}

// Fail records a failed attempt.
func (l *LoginLimiter) Fail(ctx context.Context, login, ip string) error {
	for _, key := range l.keys(login, ip) {
		count, err := l.redis.Incr(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		// the window starts with its first failure
		if count == 1 {
			if err := l.redis.Expire(ctx, key, l.config.LoginCooldownDuration).Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
		}
	}
	return nil
}

// Reset clears the login counter after a successful login. The IP counter
// is left alone so one good account cannot unlock guessing on others.
func (l *LoginLimiter) Reset(ctx context.Context, login string) error {
	if err := l.redis.Del(ctx, loginKey(login)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
