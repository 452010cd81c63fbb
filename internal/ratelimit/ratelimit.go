package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Limiter is a per-user, per-action token bucket backed by Redis. Bucket
// state lives in a hash and is refilled proportionally to elapsed time; the
// check-and-consume runs as a Lua script so concurrent requests can't
// double-spend a token.
type Limiter struct {
	redis    *redis.Client
	capacity int64
	refill   int64 // tokens added per window
	window   time.Duration
}

func New(redisClient *redis.Client, capacity, refillRate int64) *Limiter {
	return &Limiter{
		redis:    redisClient,
		capacity: capacity,
		refill:   refillRate,
		window:   time.Minute,
	}
}

func key(userID, action string) string {
	return fmt.Sprintf("rate_limit:%s:%s", userID, action)
}

const consumeScript = `
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local elapsed = now - last_refill
	local refill = math.floor((elapsed / window) * refill_rate)
	if refill > 0 then
		tokens = math.min(capacity, tokens + refill)
		last_refill = now
	end

	local allowed = 0
	if tokens > 0 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill', last_refill)
	redis.call('EXPIRE', key, window * 2)
	return allowed
`

const remainingScript = `
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local elapsed = now - last_refill
	local refill = math.floor((elapsed / window) * refill_rate)
	if refill > 0 then
		tokens = math.min(capacity, tokens + refill)
	end

	return tokens
`

// Allow consumes one token if available and reports whether the action may
// proceed.
func (l *Limiter) Allow(ctx context.Context, userID, action string) (bool, error) {
	result, err := l.eval(ctx, consumeScript, userID, action)
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}
	return result == 1, nil
}

// Remaining reports the tokens currently available without consuming one.
func (l *Limiter) Remaining(ctx context.Context, userID, action string) (int64, error) {
	result, err := l.eval(ctx, remainingScript, userID, action)
	if err != nil {
		return 0, fmt.Errorf("failed to get remaining tokens: %w", err)
	}
	return result, nil
}

// Reset clears the bucket for a user action.
func (l *Limiter) Reset(ctx context.Context, userID, action string) error {
	return l.redis.Del(ctx, key(userID, action)).Err()
}

func (l *Limiter) eval(ctx context.Context, script, userID, action string) (int64, error) {
	result, err := l.redis.Eval(ctx, script, []string{key(userID, action)},
		l.capacity, l.refill, int64(l.window.Seconds()), time.Now().Unix()).Result()
	if err != nil {
		return 0, err
	}

	n, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected result type from rate limit script")
	}
	return n, nil
}
