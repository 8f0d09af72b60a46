package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/AnshRaj112/serenify-journal/pkg/clientip"
	"github.com/redis/go-redis/v9"
)

const (
	// RateLimitWindow is 120 seconds
	RateLimitWindow = 120 * time.Second
	// RateLimitMaxRequests is the maximum number of requests allowed in the window
	RateLimitMaxRequests = 25
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "blocked_ip:"
	// BlockedIPDuration is how long an IP stays blocked (24 hours)
	BlockedIPDuration = 24 * time.Hour

	redisLimitTimeout = time.Second
)

// RedisRateLimit counts requests per IP in a fixed Redis window shared by every
// instance and blocks an IP for BlockedIPDuration once it exceeds maxRequests. Redis
// failures fail open.
func RedisRateLimit(client *redis.Client, maxRequests int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientip.RealClientIP(r)
			ctx, cancel := context.WithTimeout(r.Context(), redisLimitTimeout)
			defer cancel()

			blockedKey := BlockedIPKeyPrefix + ip
			blocked, err := client.Exists(ctx, blockedKey).Result()
			if err == nil && blocked > 0 {
				writeTooMany(w, "Your IP has been temporarily blocked due to excessive requests. Please try again later.", 0)
				return
			}

			rateKey := RateLimitKeyPrefix + ip
			count, err := client.Incr(ctx, rateKey).Result()
			if err != nil {
				slog.Warn("rate limit counter unavailable, allowing request", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				client.Expire(ctx, rateKey, window)
			}

			if count > int64(maxRequests) {
				if err := client.Set(ctx, blockedKey, "1", BlockedIPDuration).Err(); err != nil {
					slog.Warn("failed to block IP", "ip", ip, "error", err)
				}
				writeTooMany(w, "Rate limit exceeded. Your IP has been temporarily blocked. Please try again later.", int(window.Seconds()))
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(maxRequests))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(maxRequests)-count, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(window).Unix(), 10))
			next.ServeHTTP(w, r)
		})
	}
}

func writeTooMany(w http.ResponseWriter, message string, retryAfter int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	if retryAfter > 0 {
		fmt.Fprintf(w, `{"success":false,"message":%q,"retry_after":%d}`, message, retryAfter)
		return
	}
	fmt.Fprintf(w, `{"success":false,"message":%q}`, message)
}

// UnblockIP removes an IP from the blocked list.
func UnblockIP(ctx context.Context, client *redis.Client, ip string) error {
	return client.Del(ctx, BlockedIPKeyPrefix+ip).Err()
}
