package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/meetsched/internal/application"
)

type availabilityEngine interface {
	ListSlots(ctx context.Context, params application.ListSlotsParams) (application.ListSlotsResult, error)
}

// AvailabilityHandler exposes the public, unauthenticated slot-listing surface.
type AvailabilityHandler struct {
	engine    availabilityEngine
	responder responder
	logger    *slog.Logger
}

func NewAvailabilityHandler(engine availabilityEngine, logger *slog.Logger) *AvailabilityHandler {
	base := defaultLogger(logger)
	return &AvailabilityHandler{engine: engine, responder: newResponder(base), logger: base}
}

func (h *AvailabilityHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AvailabilityHandler", operation, attrs...)
}

// ListSlots handles GET /availability?eventTypeId=&startDate=&endDate=&timezone=
func (h *AvailabilityHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.engine == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	eventTypeID := strings.TrimSpace(query.Get("eventTypeId"))
	guestTimezone := strings.TrimSpace(query.Get("timezone"))

	logger := h.log(r.Context(), "ListSlots", "event_type_id", eventTypeID)

	rangeStart, err := time.Parse(time.RFC3339, strings.TrimSpace(query.Get("startDate")))
	if err != nil {
		logger.ErrorContext(r.Context(), "invalid startDate", "error", err)
		h.responder.writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Message: "startDate は RFC3339 形式で指定してください。"})
		return
	}
	rangeEnd, err := time.Parse(time.RFC3339, strings.TrimSpace(query.Get("endDate")))
	if err != nil {
		logger.ErrorContext(r.Context(), "invalid endDate", "error", err)
		h.responder.writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Message: "endDate は RFC3339 形式で指定してください。"})
		return
	}

	result, err := h.engine.ListSlots(r.Context(), application.ListSlotsParams{
		EventTypeID:   eventTypeID,
		RangeStart:    rangeStart,
		RangeEnd:      rangeEnd,
		GuestTimezone: guestTimezone,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list slots", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "listed availability slots")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toListSlotsResponse(result))
}

type slotDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type listSlotsResponse struct {
	Timezone string               `json:"timezone"`
	Slots    map[string][]slotDTO `json:"slots"`
}

func toListSlotsResponse(result application.ListSlotsResult) listSlotsResponse {
	slots := make(map[string][]slotDTO, len(result.Slots))
	for date, daySlots := range result.Slots {
		dtos := make([]slotDTO, 0, len(daySlots))
		for _, s := range daySlots {
			dtos = append(dtos, slotDTO{
				Start: s.Start.UTC().Format(time.RFC3339),
				End:   s.End.UTC().Format(time.RFC3339),
			})
		}
		slots[date] = dtos
	}
	return listSlotsResponse{Timezone: result.Timezone, Slots: slots}
}
