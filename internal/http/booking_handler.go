package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/meetsched/internal/application"
)

type bookingService interface {
	Commit(ctx context.Context, params application.CreateBookingParams) (booking application.Booking, replayed bool, err error)
	Get(ctx context.Context, uid string) (application.Booking, error)
	Reschedule(ctx context.Context, principal application.Principal, params application.RescheduleBookingParams) (application.Booking, error)
	Cancel(ctx context.Context, principal application.Principal, params application.CancelBookingParams) (application.Booking, error)
}

// BookingHandler exposes the guest-facing booking lifecycle: committing a new
// booking is public, while reschedule and cancel accept either a host session
// or a matching guest email (enforced inside the application layer).
type BookingHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

type guestIdentityDTO struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone,omitempty"`
	Company *string `json:"company,omitempty"`
	Notes   *string `json:"notes,omitempty"`
}

type createBookingRequest struct {
	EventTypeID     string            `json:"eventTypeId"`
	StartTime       string            `json:"startTime"`
	GuestTimezone   string            `json:"guestTimezone"`
	Guest           guestIdentityDTO  `json:"guest"`
	CustomResponses map[string]string `json:"customResponses"`
	IdempotencyKey  *string           `json:"idempotencyKey,omitempty"`
}

type bookingResponse struct {
	UID              string            `json:"uid"`
	EventTypeID      string            `json:"eventTypeId"`
	Start            string            `json:"start"`
	End              string            `json:"end"`
	GuestTimezone    string            `json:"guestTimezone"`
	Guest            guestIdentityDTO  `json:"guest"`
	CustomResponses  map[string]string `json:"customResponses,omitempty"`
	Status           string            `json:"status"`
	MeetingURL       *string           `json:"meetingUrl,omitempty"`
	PriorUID         *string           `json:"priorUid,omitempty"`
}

func toBookingResponse(b application.Booking) bookingResponse {
	return bookingResponse{
		UID:             b.UID,
		EventTypeID:     b.EventTypeID,
		Start:           b.Start.UTC().Format(time.RFC3339),
		End:             b.End.UTC().Format(time.RFC3339),
		GuestTimezone:   b.GuestTimezone,
		Guest: guestIdentityDTO{
			Name:    b.Guest.Name,
			Email:   b.Guest.Email,
			Phone:   b.Guest.Phone,
			Company: b.Guest.Company,
			Notes:   b.Guest.Notes,
		},
		CustomResponses: b.CustomResponses,
		Status:          string(b.Status),
		MeetingURL:      b.MeetingURL,
		PriorUID:        b.PriorUID,
	}
}

// Commit handles POST /bookings.
func (h *BookingHandler) Commit(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Commit", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Commit", "event_type_id", req.EventTypeID)

	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		logger.ErrorContext(r.Context(), "invalid startTime", "error", err)
		h.responder.writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Message: "startTime は RFC3339 形式で指定してください。"})
		return
	}

	booking, replayed, err := h.service.Commit(r.Context(), application.CreateBookingParams{
		EventTypeID:   req.EventTypeID,
		StartTime:     start,
		GuestTimezone: req.GuestTimezone,
		Guest: application.GuestIdentity{
			Name:    req.Guest.Name,
			Email:   req.Guest.Email,
			Phone:   req.Guest.Phone,
			Company: req.Guest.Company,
			Notes:   req.Guest.Notes,
		},
		CustomResponses: req.CustomResponses,
		IdempotencyKey:  req.IdempotencyKey,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to commit booking", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	logger.With("booking_uid", booking.UID, "replayed", replayed).InfoContext(r.Context(), "booking committed")
	h.responder.writeJSON(r.Context(), w, status, toBookingResponse(booking))
}

// Get handles GET /bookings/{uid}, returning the public booking view. The
// response reuses bookingResponse, which already omits host-private fields
// such as id, hostId, idempotencyKey, and externalEventRef.
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	uid, ok := BookingUIDFromContext(r.Context())
	if !ok || strings.TrimSpace(uid) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingUID)
		return
	}

	logger := h.log(r.Context(), "Get", "booking_uid", uid)

	booking, err := h.service.Get(r.Context(), uid)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to fetch booking", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBookingResponse(booking))
}

type rescheduleBookingRequest struct {
	NewStartTime  string  `json:"newStartTime"`
	GuestTimezone string  `json:"guestTimezone"`
	Email         *string `json:"email,omitempty"`
}

// Reschedule handles PATCH /bookings/{uid}.
func (h *BookingHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	uid, ok := BookingUIDFromContext(r.Context())
	if !ok || strings.TrimSpace(uid) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingUID)
		return
	}

	var req rescheduleBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Reschedule", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reschedule request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Reschedule", "booking_uid", uid)

	newStart, err := time.Parse(time.RFC3339, strings.TrimSpace(req.NewStartTime))
	if err != nil {
		logger.ErrorContext(r.Context(), "invalid newStartTime", "error", err)
		h.responder.writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Message: "newStartTime は RFC3339 形式で指定してください。"})
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	booking, err := h.service.Reschedule(r.Context(), principal, application.RescheduleBookingParams{
		UID:           uid,
		NewStartTime:  newStart,
		GuestTimezone: req.GuestTimezone,
		Email:         req.Email,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to reschedule booking", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking rescheduled")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBookingResponse(booking))
}

type cancelBookingRequest struct {
	Email  *string `json:"email,omitempty"`
	Reason *string `json:"reason,omitempty"`
}

// Cancel handles DELETE /bookings/{uid}.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	uid, ok := BookingUIDFromContext(r.Context())
	if !ok || strings.TrimSpace(uid) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingUID)
		return
	}

	var req cancelBookingRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	logger := h.log(r.Context(), "Cancel", "booking_uid", uid)
	principal, _ := PrincipalFromContext(r.Context())

	booking, err := h.service.Cancel(r.Context(), principal, application.CancelBookingParams{
		UID:    uid,
		Email:  req.Email,
		Reason: req.Reason,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to cancel booking", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking cancelled")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBookingResponse(booking))
}
