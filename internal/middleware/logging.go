package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"
)

type contextKey string

const RequestIDKey contextKey = "request_id"

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Chain wraps base with mws; the first middleware is the outermost.
func Chain(base http.RoundTripper, mws ...func(http.RoundTripper) http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}
	return base
}

func Logging(logger *slog.Logger) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			id := newRequestID()
			ctx := context.WithValue(r.Context(), RequestIDKey, id)
			r = r.WithContext(ctx)

			start := time.Now()
			resp, err := next.RoundTrip(r)

			attrs := []any{
				"method", r.Method,
				"url", r.URL.String(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", id,
			}
			if err != nil {
				logger.DebugContext(ctx, "request failed", append(attrs, "error", err)...)
				return nil, err
			}
			logger.DebugContext(ctx, "request",
				append(attrs, "status", resp.StatusCode, "content_type", resp.Header.Get("Content-Type"))...)
			return resp, nil
		})
	}
}

func newRequestID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
