package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// bucketScript refills the bucket lazily based on elapsed time and takes one
// token when available. KEYS[1] holds "tokens" and "ts" hash fields.
var bucketScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local refill = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil then
	tokens = capacity
	ts = now
end

local elapsed = math.max(0, now - ts)
tokens = math.min(capacity, tokens + elapsed * refill)

local allowed = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
end

redis.call("HSET", KEYS[1], "tokens", tokens, "ts", now)
redis.call("EXPIRE", KEYS[1], math.ceil(capacity / refill) * 2)
return allowed
`)

// TokenBucket throttles calls per key. Without Redis every call is allowed.
type TokenBucket struct {
	client    *redis.Client
	log       *zap.Logger
	capacity  float64
	refillSec float64
}

func NewTokenBucket(client *redis.Client, log *zap.Logger, capacity, refillPerSec float64) *TokenBucket {
	return &TokenBucket{
		client:    client,
		log:       log.Named("ratelimit.bucket"),
		capacity:  capacity,
		refillSec: refillPerSec,
	}
}

func (b *TokenBucket) Allow(ctx context.Context, key string) (bool, error) {
	if b == nil || b.client == nil {
		return true, nil
	}

	now := float64(time.Now().UnixMilli()) / 1000.0
	res, err := bucketScript.Run(ctx, b.client, []string{"ratelimit:" + key},
		b.capacity, b.refillSec, now).Int()
	if err != nil {
		// Throttling is advisory; a broken Redis must not block payouts.
		b.log.Warn("token bucket check failed, allowing request", zap.String("key", key), zap.Error(err))
		return true, nil
	}
	return res == 1, nil
}
