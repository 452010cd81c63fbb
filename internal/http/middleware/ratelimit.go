package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/wayfareapp/wayfare-service/internal/ratelimit"
	"github.com/wayfareapp/wayfare-service/internal/utils/response"
)

// Per-user write limits, tokens per minute.
const (
	storiesLimit   = 20
	commentsLimit  = 30
	reactionsLimit = 60
)

type RateLimitConfig struct {
	limiters map[string]*ratelimit.Limiter
}

func NewRateLimitConfig(redisClient *redis.Client) *RateLimitConfig {
	return &RateLimitConfig{
		limiters: map[string]*ratelimit.Limiter{
			"stories":   ratelimit.New(redisClient, storiesLimit, storiesLimit),
			"comments":  ratelimit.New(redisClient, commentsLimit, commentsLimit),
			"reactions": ratelimit.New(redisClient, reactionsLimit, reactionsLimit),
		},
	}
}

func (rlc *RateLimitConfig) RateLimitMiddleware(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Assumes auth middleware ran first.
			userID, ok := GetUserIDFromContext(r.Context())
			if !ok {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("user not authenticated")))
				return
			}

			limiter, exists := rlc.limiters[action]
			if !exists {
				// No limiter configured for this action, allow the request
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := limiter.Allow(r.Context(), userID, action)
			if err != nil {
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(
					fmt.Errorf("rate limit check failed: %w", err)))
				return
			}

			remaining, _ := limiter.Remaining(r.Context(), userID, action)
			w.Header().Set("X-RateLimit-Limit", limitForAction(action))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", "60")

			if !allowed {
				response.WriteJSON(w, http.StatusTooManyRequests, response.GeneralError(
					errors.New("rate limit exceeded")))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func limitForAction(action string) string {
	switch action {
	case "stories":
		return strconv.Itoa(storiesLimit)
	case "comments":
		return strconv.Itoa(commentsLimit)
	case "reactions":
		return strconv.Itoa(reactionsLimit)
	default:
		return "100"
	}
}

// RateLimitedHandler wraps a handler with rate limiting for a specific action
func (rlc *RateLimitConfig) RateLimitedHandler(action string, handler http.HandlerFunc) http.Handler {
	return rlc.RateLimitMiddleware(action)(http.HandlerFunc(handler))
}
