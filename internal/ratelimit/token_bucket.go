package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// bucketScript refills the bucket at KEYS[1] from the redis clock, takes
// one token when available and returns
// {allowed, remaining tokens as string, retry after in ms}.
const bucketScript = `
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local t = redis.call("TIME")
local now = (t[1] * 1000) + math.floor(t[2] / 1000)

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1])
local last = tonumber(state[2])
if tokens == nil then
  tokens = burst
else
  local elapsed = math.max(0, now - last)
  tokens = math.min(burst, tokens + (elapsed / 1000) * rate)
end

local allowed = 0
local retry = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
else
  retry = math.ceil(((1 - tokens) / rate) * 1000)
end

redis.call("HSET", KEYS[1], "tokens", tokens, "ts", now)
redis.call("PEXPIRE", KEYS[1], ttl)

return {allowed, tostring(tokens), retry}
`

// Decision is the outcome of taking one token.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// tokenBucket is a redis-backed token bucket shared by every replica.
// rate is the refill speed in tokens per second and burst the capacity.
type tokenBucket struct {
	client redis.Scripter
	script *redis.Script
	rate   float64
	burst  int
	ttl    time.Duration
}

func newTokenBucket(client redis.Scripter, rate float64, burst int) *tokenBucket {
	return &tokenBucket{
		client: client,
		script: redis.NewScript(bucketScript),
		rate:   rate,
		burst:  burst,
		ttl:    bucketTTL(rate, burst),
	}
}

func (b *tokenBucket) take(ctx context.Context, key string) (Decision, error) {
	if key == "" {
		return Decision{}, errors.New("rate limit key is empty")
	}
	res, err := b.script.Run(ctx, b.client, []string{key}, b.rate, b.burst, b.ttl.Milliseconds()).Slice()
	if err != nil {
		return Decision{}, err
	}
	return parseDecision(res)
}

func parseDecision(res []interface{}) (Decision, error) {
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("unexpected rate limit reply of %d values", len(res))
	}
	allowed, ok := res[0].(int64)
	if !ok {
		return Decision{}, fmt.Errorf("unexpected rate limit flag %T", res[0])
	}
	remaining, err := strconv.ParseFloat(fmt.Sprint(res[1]), 64)
	if err != nil {
		return Decision{}, fmt.Errorf("parse remaining tokens: %w", err)
	}
	retryMillis, _ := res[2].(int64)

	return Decision{
		Allowed:    allowed == 1,
		Remaining:  int(math.Floor(remaining)),
		RetryAfter: time.Duration(retryMillis) * time.Millisecond,
	}, nil
}

// bucketTTL keeps an idle bucket around for twice the time it needs to
// refill completely.
func bucketTTL(rate float64, burst int) time.Duration {
	if rate <= 0 || burst <= 0 {
		return time.Second
	}
	seconds := math.Max(1, math.Ceil(float64(burst)/rate*2))
	return time.Duration(seconds) * time.Second
}
