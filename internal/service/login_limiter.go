package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LoginLimiter throttles repeated failed logins per identity using a
// redis counter with a cooldown expiry. When redis is unreachable the
// limiter fails open; password verification remains the gate.
type LoginLimiter struct {
	client      *redis.Client
	maxAttempts int
	cooldown    time.Duration
	logger      *zap.Logger
}

// NewLoginLimiter builds a limiter. A nil client disables throttling.
func NewLoginLimiter(client *redis.Client, maxAttempts int, cooldown time.Duration, logger *zap.Logger) *LoginLimiter {
	return &LoginLimiter{client: client, maxAttempts: maxAttempts, cooldown: cooldown, logger: logger}
}

// Throttled reports whether the identity has exhausted its attempts.
func (l *LoginLimiter) Throttled(ctx context.Context, identity string) bool {
	if l == nil || l.client == nil || l.maxAttempts <= 0 {
		return false
	}
	count, err := l.client.Get(ctx, attemptKey(identity)).Int64()
	if err != nil {
		if err != redis.Nil {
			l.logger.Warn("login limiter unavailable", zap.Error(err))
		}
		return false
	}
	return count >= int64(l.maxAttempts)
}

// RecordFailure counts a failed password attempt, starting the cooldown
// window on the first failure.
func (l *LoginLimiter) RecordFailure(ctx context.Context, identity string) {
	if l == nil || l.client == nil || l.maxAttempts <= 0 {
		return
	}
	key := attemptKey(identity)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn("login limiter unavailable", zap.Error(err))
		return
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.cooldown).Err(); err != nil {
			l.logger.Warn("login limiter unavailable", zap.Error(err))
		}
	}
}

// Reset clears the counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, identity string) {
	if l == nil || l.client == nil {
		return
	}
	if err := l.client.Del(ctx, attemptKey(identity)).Err(); err != nil {
		l.logger.Warn("login limiter unavailable", zap.Error(err))
	}
}

func attemptKey(identity string) string {
	return "login_attempts:" + identity
}
