package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/princekumarofficial/angelia/internal/ratelimit"
	"github.com/princekumarofficial/angelia/internal/utils/response"
)

type RateLimitConfig struct {
	limiter *ratelimit.Limiter
}

func NewRateLimitConfig(limiter *ratelimit.Limiter) *RateLimitConfig {
	return &RateLimitConfig{limiter: limiter}
}

func (rlc *RateLimitConfig) RateLimitMiddleware(action ratelimit.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Auth runs first
			requester, ok := RequesterKey(r.Context())
			if !ok {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("user not authenticated")))
				return
			}

			bucket := rlc.limiter.Bucket(action)
			if bucket == nil {
				next.ServeHTTP(w, r)
				return
			}

			allowed, remaining, err := bucket.Take(r.Context(), requester, action)
			if err != nil {
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(
					fmt.Errorf("rate limit check failed: %w", err)))
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(bucket.Capacity(), 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(int(bucket.Window().Seconds())))

			if !allowed {
				response.WriteJSON(w, http.StatusTooManyRequests, response.GeneralError(
					errors.New("rate limit exceeded")))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitedHandler wraps a handler with rate limiting for a specific action
func (rlc *RateLimitConfig) RateLimitedHandler(action ratelimit.Action, handler http.Handler) http.Handler {
	return rlc.RateLimitMiddleware(action)(handler)
}
