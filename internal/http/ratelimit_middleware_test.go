package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/meetsched/internal/application"
)

type fakeRateLimiter struct {
	decision application.RateLimitDecision
}

func (f *fakeRateLimiter) Allow(class application.EndpointClass, clientKey string) application.RateLimitDecision {
	return f.decision
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	t.Run("allowed requests reach the next handler", func(t *testing.T) {
		t.Parallel()

		limiter := &fakeRateLimiter{decision: application.RateLimitDecision{Allowed: true}}
		var calledNext bool
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calledNext = true
			w.WriteHeader(http.StatusOK)
		})
		handler := RateLimit(limiter, application.EndpointClassBooking, nil)(next)

		req := httptest.NewRequest(http.MethodPost, "/bookings", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if !calledNext {
			t.Fatal("expected next handler to be invoked")
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("rejected requests return 429 with a resetAt header", func(t *testing.T) {
		t.Parallel()

		resetAt := time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)
		limiter := &fakeRateLimiter{decision: application.RateLimitDecision{Allowed: false, ResetAt: resetAt}}
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler should not be called when rate limited")
		})
		handler := RateLimit(limiter, application.EndpointClassBooking, nil)(next)

		req := httptest.NewRequest(http.MethodPost, "/bookings", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
		got := rec.Header().Get("resetAt")
		want := resetAt.UTC().Format(time.RFC3339)
		if got != want {
			t.Fatalf("expected resetAt header %q, got %q", want, got)
		}
	})

	t.Run("nil limiter leaves the route unlimited", func(t *testing.T) {
		t.Parallel()

		var calledNext bool
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calledNext = true
			w.WriteHeader(http.StatusOK)
		})
		handler := RateLimit(nil, application.EndpointClassBooking, nil)(next)

		req := httptest.NewRequest(http.MethodPost, "/bookings", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if !calledNext {
			t.Fatal("expected next handler to be invoked when no limiter is configured")
		}
	})
}
