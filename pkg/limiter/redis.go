package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Token bucket evaluated atomically server-side. State is one hash per
// caller holding the token count and the last refill stamp in unix
// microseconds. Idle buckets expire once they would have refilled
// completely anyway, so the keyspace self-cleans.
//
// KEYS[1] = bucket hash
// ARGV[1] = requests per minute
// ARGV[2] = burst capacity
// ARGV[3] = now, unix microseconds
// ARGV[4] = ttl seconds
var tokenBucketScript = redis.NewScript(`
local rpm = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call("HMGET", KEYS[1], "tokens", "stamp")
local tokens = tonumber(state[1])
local stamp = tonumber(state[2])
if not tokens or not stamp then
    tokens = burst
    stamp = now
end

tokens = math.min(burst, tokens + (now - stamp) * rpm / 60000000)

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end

redis.call("HSET", KEYS[1], "tokens", tokens, "stamp", now)
redis.call("EXPIRE", KEYS[1], ARGV[4])
return allowed
`)

// RedisLimiter implements Limiter on a shared Redis instance so the
// allowance holds across service replicas.
type RedisLimiter struct {
	client *redis.Client
	policy Policy
	ttl    int
}

func NewRedisLimiter(addr, password string, db int, policy Policy) *RedisLimiter {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Keep a bucket around until an idle caller would be back at full
	// capacity, with a minute floor for tiny policies.
	ttl := 60
	if policy.RPM > 0 {
		if full := policy.Burst*60/policy.RPM + 1; full > ttl {
			ttl = full
		}
	}
	return &RedisLimiter{client: rdb, policy: policy, ttl: ttl}
}

// Allow consumes one token from the caller's bucket.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	rpm := l.policy.RPM
	if rpm <= 0 {
		rpm = 60
	}

	allowed, err := tokenBucketScript.Run(ctx, l.client,
		[]string{"limiter:" + key},
		rpm, l.policy.Burst, time.Now().UnixMicro(), l.ttl,
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis limiter: %w", err)
	}
	return allowed == 1, nil
}

func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
