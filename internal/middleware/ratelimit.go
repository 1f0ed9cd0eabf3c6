package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nuber/nuber/internal/auth"
	"github.com/nuber/nuber/internal/cache"
	"github.com/nuber/nuber/internal/model"
)

// Limiter is the token-bucket backend. Implemented by *cache.Cache.
type Limiter interface {
	CheckAPIRateLimit(ctx context.Context, keyID string, ratePerMinute, burst int) (*cache.RateLimitResult, error)
	CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter Limiter
	Enabled bool
	// Anonymous callers share a bucket per client IP.
	AnonRPS   int
	AnonBurst int
}

// RateLimit limits authenticated callers per API key, using their tier, and
// anonymous callers per IP. Must run after Auth. Backend errors fail open.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || cfg.Limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			var (
				result  *cache.RateLimitResult
				err     error
				limit   int
				subject slog.Attr
			)

			if authCtx := auth.AuthFromContext(ctx); authCtx != nil {
				tier, ok := model.TierConfigs[authCtx.RateLimitTier]
				if !ok {
					tier = model.TierConfigs[model.TierFree]
				}
				if tier.RequestsPerMinute == 0 {
					next.ServeHTTP(w, r)
					return
				}
				limit = tier.RequestsPerMinute
				subject = slog.String("key_id", authCtx.KeyID)
				result, err = cfg.Limiter.CheckAPIRateLimit(ctx, authCtx.KeyID, tier.RequestsPerMinute, tier.Burst)
			} else {
				if cfg.AnonRPS <= 0 {
					next.ServeHTTP(w, r)
					return
				}
				ip := getClientIP(r)
				limit = cfg.AnonRPS
				subject = slog.String("ip", ip)
				result, err = cfg.Limiter.CheckIPRateLimit(ctx, ip, cfg.AnonRPS, cfg.AnonBurst)
			}

			if err != nil {
				cfg.Logger.Error("rate limit check failed",
					slog.String("error", err.Error()),
					subject,
				)
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, limit, result.Remaining, result.ResetAt)

			if !result.Allowed {
				retry := retryAfterSeconds(result.RetryAfter)
				cfg.Logger.Warn("rate limit exceeded",
					subject,
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int("retry_after_seconds", retry),
					slog.String("request_id", GetRequestID(ctx)),
				)

				w.Header().Set("Retry-After", strconv.Itoa(retry))
				writeError(w, http.StatusTooManyRequests, "RATE_LIMITED",
					"Rate limit exceeded. Retry after "+strconv.Itoa(retry)+" seconds.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func retryAfterSeconds(d time.Duration) int {
	s := int((d + time.Second - 1) / time.Second)
	if s < 1 {
		s = 1
	}
	return s
}

func setRateLimitHeaders(w http.ResponseWriter, limit int, remaining int64, resetAt time.Time) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
}

// getClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the connection address without its port.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
