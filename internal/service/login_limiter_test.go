package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-auth/internal/service"
)

func TestLoginLimiterLifecycle(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close() //nolint:errcheck

	ctx := context.Background()
	limiter := service.NewLoginLimiter(client, 3, time.Minute, zap.NewNop())

	assert.False(t, limiter.Throttled(ctx, "alice@example.com"))

	limiter.RecordFailure(ctx, "alice@example.com")
	limiter.RecordFailure(ctx, "alice@example.com")
	assert.False(t, limiter.Throttled(ctx, "alice@example.com"))

	limiter.RecordFailure(ctx, "alice@example.com")
	assert.True(t, limiter.Throttled(ctx, "alice@example.com"))

	// Independent identities do not share the counter.
	assert.False(t, limiter.Throttled(ctx, "bob@example.com"))

	limiter.Reset(ctx, "alice@example.com")
	assert.False(t, limiter.Throttled(ctx, "alice@example.com"))
}

func TestLoginLimiterCooldownExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close() //nolint:errcheck

	ctx := context.Background()
	limiter := service.NewLoginLimiter(client, 1, time.Minute, zap.NewNop())

	limiter.RecordFailure(ctx, "alice@example.com")
	assert.True(t, limiter.Throttled(ctx, "alice@example.com"))

	mr.FastForward(61 * time.Second)
	assert.False(t, limiter.Throttled(ctx, "alice@example.com"))
}

func TestLoginLimiterDisabled(t *testing.T) {
	ctx := context.Background()

	var nilLimiter *service.LoginLimiter
	assert.False(t, nilLimiter.Throttled(ctx, "alice@example.com"))
	nilLimiter.RecordFailure(ctx, "alice@example.com")
	nilLimiter.Reset(ctx, "alice@example.com")

	disabled := service.NewLoginLimiter(nil, 3, time.Minute, zap.NewNop())
	disabled.RecordFailure(ctx, "alice@example.com")
	assert.False(t, disabled.Throttled(ctx, "alice@example.com"))
}
