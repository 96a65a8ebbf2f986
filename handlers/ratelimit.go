package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// RateLimiter decides whether one more request under key fits in limit.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit Limit) (*LimitResult, error)
}

type Limit struct {
	Rate   int
	Period time.Duration
	Burst  int
}

// PerMinute allows n requests a minute with a burst of n.
func PerMinute(n int) Limit {
	return Limit{Rate: n, Period: time.Minute, Burst: n}
}

type LimitResult struct {
	Allowed    bool
	Remaining  int
	ResetAfter time.Duration
	RetryAfter time.Duration
}

// RedisRateLimiter keeps GCRA state in Redis so every replica shares the
// same counters.
type RedisRateLimiter struct {
	limiter *redis_rate.Limiter
}

func NewRedisRateLimiter(rdb *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{
		limiter: redis_rate.NewLimiter(rdb),
	}
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, key string, limit Limit) (*LimitResult, error) {
	res, err := rl.limiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   limit.Rate,
		Period: limit.Period,
		Burst:  limit.Burst,
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	return &LimitResult{
		Allowed:    res.Allowed > 0,
		Remaining:  res.Remaining,
		ResetAfter: res.ResetAfter,
		RetryAfter: res.RetryAfter,
	}, nil
}

type rateLimitResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	RetryAfter string `json:"retry_after"`
}

// RateLimitMiddleware limits requests per client IP under the given scope.
// A nil limiter or a zero rate disables it; a limiter failure lets the
// request through. Forwarded headers name the client only when trustProxy
// is set.
func RateLimitMiddleware(limiter RateLimiter, scope string, limit Limit, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || limit.Rate <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := fmt.Sprintf("ratelimit:%s:%s", scope, clientIP(r, trustProxy))
			res, err := limiter.Allow(r.Context(), key, limit)
			if err != nil {
				slog.Warn("rate limiter unavailable", "key", key, "err", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit.Burst))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(int64(res.ResetAfter/time.Second), 10))

			if !res.Allowed {
				w.Header().Set("Retry-After", strconv.FormatInt(int64(res.RetryAfter/time.Second), 10))
				writeJSON(w, http.StatusTooManyRequests, rateLimitResponse{
					Success:    false,
					Error:      "Too Many Requests",
					RetryAfter: res.RetryAfter.String(),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
