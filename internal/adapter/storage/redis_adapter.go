package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "ratelimit:"

// Returns {count, pttl}. The expiry is only set by the hit that opens the
// window, so the window is fixed rather than sliding.
var incrementWindowScript = redis.NewScript(`
local key = KEYS[1]
local window = tonumber(ARGV[1])

local count = redis.call('INCR', key)
if count == 1 then
	redis.call('PEXPIRE', key, window)
end

local ttl = redis.call('PTTL', key)
if ttl < 0 then
	redis.call('PEXPIRE', key, window)
	ttl = window
end

return {count, ttl}
`)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	res, err := incrementWindowScript.Run(ctx, r.client, []string{rateLimitKeyPrefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("unexpected rate limit script reply: %v", res)
	}
	return res[0], time.Duration(res[1]) * time.Millisecond, nil
}
