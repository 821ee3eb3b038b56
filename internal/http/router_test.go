package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRouter_BookingsByUID(t *testing.T) {
	t.Parallel()

	svc := &fakeBookingService{getBooking: newTestBooking("uid-1")}
	router := NewRouter(RouterConfig{Bookings: NewBookingHandler(svc, nil)})

	t.Run("GET returns the public booking view", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/bookings/uid-1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("unsupported method returns 405 listing GET, PATCH, and DELETE", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPut, "/bookings/uid-1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
		allowed := strings.Split(rec.Header().Get("Allow"), ", ")
		for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
			var found bool
			for _, a := range allowed {
				if a == method {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("expected Allow header %q to include %s", rec.Header().Get("Allow"), method)
			}
		}
	})

	t.Run("empty uid returns 404", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/bookings/", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
