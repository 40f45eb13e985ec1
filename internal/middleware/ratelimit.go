package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
	"github.com/pawdesk/pawdesk/internal/config"
)

// RateLimit limits requests per client IP within a fixed window.
func RateLimit(cfg *config.RateLimitConfig) func(http.Handler) http.Handler {
	requests := cfg.Requests
	if requests <= 0 {
		requests = 100
	}
	window := cfg.Window
	if window <= 0 {
		window = 15 * time.Minute
	}

	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			writeError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests, please try again later.")
		}),
	)
}
