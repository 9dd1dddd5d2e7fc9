package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter counts requests per client and route in fixed windows
// shared by every replica. Each window gets its own key, so a counter never
// needs resetting and simply expires after the window closes.
type RedisRateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedisRateLimiter(rdb *redis.Client, limit int, window time.Duration, prefix string) *RedisRateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window < time.Second {
		window = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisRateLimiter{rdb: rdb, limit: limit, window: window, prefix: prefix, now: time.Now}
}

// Middleware enforces the limit. When redis is unreachable the request is
// let through if failOpen, and rejected with 503 otherwise.
func (rl *RedisRateLimiter) Middleware(logger *slog.Logger, failOpen bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, resetIn := rl.windowKey(r, rl.now())
			count, err := rl.incr(r.Context(), key)
			if err != nil {
				if logger != nil {
					logger.Warn("redis rate limiter error", "route", routeScope(r), "err", err)
				}
				if failOpen {
					next.ServeHTTP(w, r)
					return
				}
				WriteError(w, http.StatusServiceUnavailable, "rate_limited", "rate limiter unavailable")
				return
			}

			remaining := int64(rl.limit) - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if count > int64(rl.limit) {
				w.Header().Set("Retry-After", strconv.Itoa(int((resetIn+time.Second-1)/time.Second)))
				WriteError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// windowKey names the counter for the client, route and window containing
// now, and reports how long until that window closes.
func (rl *RedisRateLimiter) windowKey(r *http.Request, now time.Time) (string, time.Duration) {
	start := now.Truncate(rl.window)
	key := strings.Join([]string{
		rl.prefix,
		routeScope(r),
		clientKey(r),
		strconv.FormatInt(start.Unix(), 10),
	}, ":")
	return key, start.Add(rl.window).Sub(now)
}

func (rl *RedisRateLimiter) incr(ctx context.Context, key string) (int64, error) {
	var incr *redis.IntCmd
	_, err := rl.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		// Keep the key one extra window so clock skew between replicas
		// cannot resurrect a counter.
		pipe.Expire(ctx, key, 2*rl.window)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// routeScope is the mux pattern that matched the request, so each public
// route gets its own budget. Requests outside a ServeMux share one scope.
func routeScope(r *http.Request) string {
	if r.Pattern != "" {
		return strings.ReplaceAll(r.Pattern, " ", "")
	}
	return "any"
}
