package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config holds middleware configuration.
type Config struct {
	Logger *zap.Logger

	RateLimit      rate.Limit
	RateLimitBurst int

	RequestTimeout time.Duration
	// TimeoutExempt lists paths served without RequestTimeout. Provider
	// webhooks only understand their own acknowledgements.
	TimeoutExempt []string
}

// Chain creates a middleware chain with all configured middleware. The
// returned RateLimiter must be stopped on shutdown.
func Chain(config *Config) (func(http.Handler) http.Handler, *RateLimiter) {
	rateLimiter := NewRateLimiter(config.RateLimit, config.RateLimitBurst)

	return func(handler http.Handler) http.Handler {
		// Wrap from the innermost middleware outwards
		h := handler

		if config.RequestTimeout > 0 {
			h = except(config.TimeoutExempt, Timeout(config.RequestTimeout)(h), h)
		}

		h = rateLimiter.Middleware()(h)

		h = Recovery(config.Logger)(h)

		h = Logger(config.Logger)(h)

		h = RequestID(h)

		return h
	}, rateLimiter
}

// except routes requests for paths to plain and everything else to wrapped.
func except(paths []string, wrapped, plain http.Handler) http.Handler {
	if len(paths) == 0 {
		return wrapped
	}

	skip := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		skip[p] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := skip[r.URL.Path]; ok {
			plain.ServeHTTP(w, r)
			return
		}
		wrapped.ServeHTTP(w, r)
	})
}
