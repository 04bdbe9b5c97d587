package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

type rateLimiter struct {
	mu     sync.Mutex
	hosts  map[string]*rate.Limiter
	limit  rate.Limit
	burst  int
	logger *slog.Logger
}

func newRateLimiter(limit rate.Limit, burst int, logger *slog.Logger) *rateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &rateLimiter{
		hosts:  make(map[string]*rate.Limiter),
		limit:  limit,
		burst:  burst,
		logger: logger,
	}
}

func (rl *rateLimiter) getHost(name string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.hosts[name]
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.hosts[name] = l
	}
	return l
}

// RateLimit throttles outgoing requests per target host. A limit of zero or
// less disables throttling.
func RateLimit(limit rate.Limit, burst int, logger *slog.Logger) func(http.RoundTripper) http.RoundTripper {
	if limit <= 0 {
		limit = rate.Inf
	}
	rl := newRateLimiter(limit, burst, logger)

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			limiter := rl.getHost(r.URL.Host)
			if limiter.Tokens() < 1 {
				rl.logger.DebugContext(r.Context(), "rate limit reached, waiting",
					"host", r.URL.Host,
					"request_id", r.Context().Value(RequestIDKey),
				)
			}
			if err := limiter.Wait(r.Context()); err != nil {
				return nil, fmt.Errorf("rate limiter wait: %w", err)
			}
			return next.RoundTrip(r)
		})
	}
}
