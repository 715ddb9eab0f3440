package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"contact-gateway/contact/domain"

	"github.com/redis/go-redis/v9"
)

// Janela fixa em um único script (atômico no Redis).
// KEYS[1] = contador
// ARGV[1] = janela em ms
// ARGV[2] = limite
// Retorna: {count, ttl_ms, allowed}
//
// Quando nega, não toca no contador. A expiração (PX) faz o papel do resetTime.
const windowLuaScript = `
local window = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
local current = redis.call('GET', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if (not current) or ttl < 0 then
    redis.call('SET', KEYS[1], 1, 'PX', window)
    return {1, window, 1}
end
local count = tonumber(current)
if count >= limit then
    return {count, ttl, 0}
end
count = redis.call('INCR', KEYS[1])
return {count, ttl, 1}
`

var windowScript = redis.NewScript(windowLuaScript)

// RedisWindowLimiter compartilha o rate limit entre várias instâncias do gateway.
type RedisWindowLimiter struct {
	rdb    redis.Scripter
	prefix string
	window time.Duration
	limit  int
	now    func() time.Time
}

type RedisWindowOption func(*RedisWindowLimiter)

func WithWindowPrefix(prefix string) RedisWindowOption {
	return func(l *RedisWindowLimiter) { l.prefix = strings.Trim(prefix, ":") }
}

func WithRedisWindowClock(now func() time.Time) RedisWindowOption {
	return func(l *RedisWindowLimiter) { l.now = now }
}

func NewRedisWindowLimiter(rdb redis.Scripter, window time.Duration, limit int, opts ...RedisWindowOption) *RedisWindowLimiter {
	if window <= 0 {
		window = domain.DefaultWindow
	}
	if limit <= 0 {
		limit = domain.DefaultMaxRequests
	}
	l := &RedisWindowLimiter{
		rdb:    rdb,
		prefix: "contact:rl",
		window: window,
		limit:  limit,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisWindowLimiter) key(k domain.Key) string {
	return l.prefix + ":" + string(k)
}

// Take implementa domain.WindowLimiter.
func (l *RedisWindowLimiter) Take(ctx context.Context, key domain.Key) (domain.WindowDecision, error) {
	res, err := windowScript.Run(ctx, l.rdb, []string{l.key(key)}, l.window.Milliseconds(), l.limit).Int64Slice()
	if err != nil {
		return domain.WindowDecision{}, fmt.Errorf("redis window eval: %w", err)
	}
	if len(res) < 3 {
		return domain.WindowDecision{}, fmt.Errorf("redis window eval: unexpected result %v", res)
	}

	return domain.WindowDecision{
		Allowed: res[2] == 1,
		Count:   int(res[0]),
		Limit:   l.limit,
		ResetAt: l.now().Add(time.Duration(res[1]) * time.Millisecond),
	}, nil
}
