package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/meetsched/internal/application"
)

type fakeBookingService struct {
	commitBooking   application.Booking
	commitReplayed  bool
	commitErr       error
	getBooking      application.Booking
	getErr          error
	rescheduleErr   error
	cancelErr       error
	lastCommitParams application.CreateBookingParams
}

func (f *fakeBookingService) Commit(ctx context.Context, params application.CreateBookingParams) (application.Booking, bool, error) {
	f.lastCommitParams = params
	return f.commitBooking, f.commitReplayed, f.commitErr
}

func (f *fakeBookingService) Get(ctx context.Context, uid string) (application.Booking, error) {
	return f.getBooking, f.getErr
}

func (f *fakeBookingService) Reschedule(ctx context.Context, principal application.Principal, params application.RescheduleBookingParams) (application.Booking, error) {
	return f.commitBooking, f.rescheduleErr
}

func (f *fakeBookingService) Cancel(ctx context.Context, principal application.Principal, params application.CancelBookingParams) (application.Booking, error) {
	return f.commitBooking, f.cancelErr
}

func newTestBooking(uid string) application.Booking {
	return application.Booking{
		UID:           uid,
		EventTypeID:   "et-1",
		Start:         time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC),
		End:           time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC),
		GuestTimezone: "UTC",
		Guest:         application.GuestIdentity{Name: "Guest", Email: "guest@example.com"},
		Status:        application.BookingStatusConfirmed,
	}
}

func TestBookingHandler_Commit(t *testing.T) {
	t.Parallel()

	body := `{"eventTypeId":"et-1","startTime":"2026-03-02T09:00:00Z","guestTimezone":"UTC","guest":{"name":"Guest","email":"guest@example.com"}}`

	t.Run("fresh commit returns 201", func(t *testing.T) {
		t.Parallel()

		svc := &fakeBookingService{commitBooking: newTestBooking("uid-1"), commitReplayed: false}
		handler := NewBookingHandler(svc, nil)

		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.Commit(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("idempotency-key replay returns 200 with the prior booking", func(t *testing.T) {
		t.Parallel()

		svc := &fakeBookingService{commitBooking: newTestBooking("existing-uid"), commitReplayed: true}
		handler := NewBookingHandler(svc, nil)

		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.Commit(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 on replay, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp bookingResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.UID != "existing-uid" {
			t.Fatalf("expected prior booking uid, got %q", resp.UID)
		}
	})

	t.Run("service error maps to a mapped status code", func(t *testing.T) {
		t.Parallel()

		svc := &fakeBookingService{commitErr: application.ErrSlotTaken}
		handler := NewBookingHandler(svc, nil)

		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.Commit(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		t.Parallel()

		svc := &fakeBookingService{}
		handler := NewBookingHandler(svc, nil)

		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader("not json"))
		rec := httptest.NewRecorder()
		handler.Commit(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestBookingHandler_Get(t *testing.T) {
	t.Parallel()

	t.Run("returns the public view stripped of host-private fields", func(t *testing.T) {
		t.Parallel()

		booking := newTestBooking("uid-1")
		booking.HostID = "host-1"
		booking.IdempotencyKey = new(string)
		*booking.IdempotencyKey = "some-key"

		svc := &fakeBookingService{getBooking: booking}
		handler := NewBookingHandler(svc, nil)

		req := httptest.NewRequest(http.MethodGet, "/bookings/uid-1", nil)
		req = req.WithContext(ContextWithBookingUID(req.Context(), "uid-1"))
		rec := httptest.NewRecorder()
		handler.Get(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if strings.Contains(rec.Body.String(), "hostId") || strings.Contains(rec.Body.String(), "idempotencyKey") {
			t.Fatalf("expected host-private fields to be stripped, got %s", rec.Body.String())
		}
	})

	t.Run("unknown uid maps to 404", func(t *testing.T) {
		t.Parallel()

		svc := &fakeBookingService{getErr: application.ErrNotFound}
		handler := NewBookingHandler(svc, nil)

		req := httptest.NewRequest(http.MethodGet, "/bookings/missing", nil)
		req = req.WithContext(ContextWithBookingUID(req.Context(), "missing"))
		rec := httptest.NewRecorder()
		handler.Get(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
