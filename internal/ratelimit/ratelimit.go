package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Action names a rate limited operation.
type Action string

const (
	ActionPost     Action = "posts"
	ActionReaction Action = "reactions"
)

// consumeScript refills the bucket for the elapsed time and takes one token.
var consumeScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local tokens_to_add = math.floor(((now - last_refill) / window) * refill_rate)
	if tokens_to_add > 0 then
		tokens = math.min(capacity, tokens + tokens_to_add)
		last_refill = now
	end

	local allowed = 0
	if tokens > 0 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill', last_refill)
	redis.call('EXPIRE', key, window * 2)
	return {allowed, tokens}
`)

// TokenBucket is a per-user token bucket kept in Redis.
type TokenBucket struct {
	redis    *redis.Client
	capacity int64         // Maximum number of tokens
	refill   int64         // Tokens refilled per window
	window   time.Duration // Refill window
	now      func() time.Time
}

func NewTokenBucket(redisClient *redis.Client, capacity, refillRate int64) *TokenBucket {
	return &TokenBucket{
		redis:    redisClient,
		capacity: capacity,
		refill:   refillRate,
		window:   time.Minute,
		now:      time.Now,
	}
}

func bucketKey(userID string, action Action) string {
	return fmt.Sprintf("rate_limit:%s:%s", userID, action)
}

func (tb *TokenBucket) args() []interface{} {
	return []interface{}{tb.capacity, tb.refill, int64(tb.window.Seconds()), tb.now().Unix()}
}

// Take consumes one token if there is one and reports the tokens left.
func (tb *TokenBucket) Take(ctx context.Context, userID string, action Action) (bool, int64, error) {
	res, err := consumeScript.Run(ctx, tb.redis, []string{bucketKey(userID, action)}, tb.args()...).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check failed: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("unexpected result from rate limit script: %v", res)
	}
	allowed, ok1 := res[0].(int64)
	remaining, ok2 := res[1].(int64)
	if !ok1 || !ok2 {
		return false, 0, fmt.Errorf("unexpected result from rate limit script: %v", res)
	}
	return allowed == 1, remaining, nil
}

func (tb *TokenBucket) Capacity() int64 { return tb.capacity }

// Window is how long an empty bucket takes to refill.
func (tb *TokenBucket) Window() time.Duration { return tb.window }

// Limiter holds one bucket per limited action.
type Limiter struct {
	buckets map[Action]*TokenBucket
}

// NewLimiter builds buckets from per-minute limits. Actions with a zero
// limit are not limited.
func NewLimiter(redisClient *redis.Client, perMinute map[Action]int64) *Limiter {
	l := &Limiter{buckets: make(map[Action]*TokenBucket)}
	for action, limit := range perMinute {
		if limit > 0 {
			l.buckets[action] = NewTokenBucket(redisClient, limit, limit)
		}
	}
	return l
}

// Bucket returns the bucket of action, nil when it is not limited.
func (l *Limiter) Bucket(action Action) *TokenBucket {
	return l.buckets[action]
}
