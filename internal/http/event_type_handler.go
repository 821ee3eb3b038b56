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

type eventTypeService interface {
	Create(ctx context.Context, principal application.Principal, params application.CreateEventTypeParams) (application.EventType, error)
	Update(ctx context.Context, principal application.Principal, params application.UpdateEventTypeParams) (application.EventType, error)
	Deactivate(ctx context.Context, principal application.Principal, id string) error
	List(ctx context.Context, principal application.Principal) ([]application.EventType, error)
	Get(ctx context.Context, id string) (application.EventType, error)
}

// EventTypeHandler exposes the host-owned event type CRUD surface.
type EventTypeHandler struct {
	service   eventTypeService
	responder responder
	logger    *slog.Logger
}

func NewEventTypeHandler(service eventTypeService, logger *slog.Logger) *EventTypeHandler {
	base := defaultLogger(logger)
	return &EventTypeHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *EventTypeHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "EventTypeHandler", operation, attrs...)
}

type workingHoursDTO struct {
	DayOfWeek  int    `json:"dayOfWeek"`
	StartLocal string `json:"startLocal"`
	EndLocal   string `json:"endLocal"`
}

type customQuestionDTO struct {
	Kind     string   `json:"kind"`
	Label    string   `json:"label"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

type eventTypeRequest struct {
	Slug                     string              `json:"slug"`
	Title                    string              `json:"title"`
	DurationMin              int                 `json:"durationMin"`
	BufferBeforeMin          int                 `json:"bufferBeforeMin"`
	BufferAfterMin           int                 `json:"bufferAfterMin"`
	MinimumNoticeMin         int                 `json:"minimumNoticeMin"`
	SchedulingWindowDays     int                 `json:"schedulingWindowDays"`
	SlotIntervalMin          int                 `json:"slotIntervalMin"`
	WorkingHours             []workingHoursDTO   `json:"workingHours"`
	ParticipatingCalendarIDs []string            `json:"participatingCalendarIds"`
	DestinationCalendarID    string              `json:"destinationCalendarId"`
	LocationKind             string              `json:"locationKind"`
	RequiresConfirmation     bool                `json:"requiresConfirmation"`
	CustomQuestions          []customQuestionDTO `json:"customQuestions"`
	Active                   bool                `json:"active"`
}

func (req eventTypeRequest) toParams() application.CreateEventTypeParams {
	hours := make([]application.WorkingHours, 0, len(req.WorkingHours))
	for _, wh := range req.WorkingHours {
		hours = append(hours, application.WorkingHours{
			DayOfWeek:  weekdayFromInt(wh.DayOfWeek),
			StartLocal: wh.StartLocal,
			EndLocal:   wh.EndLocal,
		})
	}
	questions := make([]application.CustomQuestion, 0, len(req.CustomQuestions))
	for _, q := range req.CustomQuestions {
		questions = append(questions, application.CustomQuestion{
			Kind:     application.QuestionKind(q.Kind),
			Label:    q.Label,
			Required: q.Required,
			Options:  q.Options,
		})
	}
	return application.CreateEventTypeParams{
		Slug:                     req.Slug,
		Title:                    req.Title,
		DurationMin:              req.DurationMin,
		BufferBeforeMin:          req.BufferBeforeMin,
		BufferAfterMin:           req.BufferAfterMin,
		MinimumNoticeMin:         req.MinimumNoticeMin,
		SchedulingWindowDays:     req.SchedulingWindowDays,
		SlotIntervalMin:          req.SlotIntervalMin,
		WorkingHours:             hours,
		ParticipatingCalendarIDs: req.ParticipatingCalendarIDs,
		DestinationCalendarID:    req.DestinationCalendarID,
		LocationKind:             application.LocationKind(req.LocationKind),
		RequiresConfirmation:     req.RequiresConfirmation,
		CustomQuestions:          questions,
	}
}

func weekdayFromInt(d int) (weekday time.Weekday) {
	return time.Weekday(d % 7)
}

type eventTypeDTO struct {
	ID                       string              `json:"id"`
	HostID                   string              `json:"hostId"`
	Slug                     string              `json:"slug"`
	Title                    string              `json:"title"`
	DurationMin              int                 `json:"durationMin"`
	BufferBeforeMin          int                 `json:"bufferBeforeMin"`
	BufferAfterMin           int                 `json:"bufferAfterMin"`
	MinimumNoticeMin         int                 `json:"minimumNoticeMin"`
	SchedulingWindowDays     int                 `json:"schedulingWindowDays"`
	SlotIntervalMin          int                 `json:"slotIntervalMin"`
	WorkingHours             []workingHoursDTO   `json:"workingHours"`
	ParticipatingCalendarIDs []string            `json:"participatingCalendarIds"`
	DestinationCalendarID    string              `json:"destinationCalendarId"`
	LocationKind             string              `json:"locationKind"`
	RequiresConfirmation     bool                `json:"requiresConfirmation"`
	CustomQuestions          []customQuestionDTO `json:"customQuestions"`
	Active                   bool                `json:"active"`
}

func toEventTypeDTO(et application.EventType) eventTypeDTO {
	hours := make([]workingHoursDTO, 0, len(et.WorkingHours))
	for _, wh := range et.WorkingHours {
		hours = append(hours, workingHoursDTO{DayOfWeek: int(wh.DayOfWeek), StartLocal: wh.StartLocal, EndLocal: wh.EndLocal})
	}
	questions := make([]customQuestionDTO, 0, len(et.CustomQuestions))
	for _, q := range et.CustomQuestions {
		questions = append(questions, customQuestionDTO{Kind: string(q.Kind), Label: q.Label, Required: q.Required, Options: q.Options})
	}
	return eventTypeDTO{
		ID:                       et.ID,
		HostID:                   et.HostID,
		Slug:                     et.Slug,
		Title:                    et.Title,
		DurationMin:              et.DurationMin,
		BufferBeforeMin:          et.BufferBeforeMin,
		BufferAfterMin:           et.BufferAfterMin,
		MinimumNoticeMin:         et.MinimumNoticeMin,
		SchedulingWindowDays:     et.SchedulingWindowDays,
		SlotIntervalMin:          et.SlotIntervalMin,
		WorkingHours:             hours,
		ParticipatingCalendarIDs: et.ParticipatingCalendarIDs,
		DestinationCalendarID:    et.DestinationCalendarID,
		LocationKind:             string(et.LocationKind),
		RequiresConfirmation:     et.RequiresConfirmation,
		CustomQuestions:          questions,
		Active:                   et.Active,
	}
}

func toEventTypeDTOs(eventTypes []application.EventType) []eventTypeDTO {
	dtos := make([]eventTypeDTO, 0, len(eventTypes))
	for _, et := range eventTypes {
		dtos = append(dtos, toEventTypeDTO(et))
	}
	return dtos
}

// Create handles POST /event-types.
func (h *EventTypeHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req eventTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode event type request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Create", "host_id", principal.HostID, "slug", req.Slug)

	eventType, err := h.service.Create(r.Context(), principal, req.toParams())
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to create event type", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("event_type_id", eventType.ID).InfoContext(r.Context(), "event type created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toEventTypeDTO(eventType))
}

// Update handles PUT /event-types/{id}.
func (h *EventTypeHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := EventTypeIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventTypeID)
		return
	}

	var req eventTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode event type request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Update", "host_id", principal.HostID, "event_type_id", id)

	eventType, err := h.service.Update(r.Context(), principal, application.UpdateEventTypeParams{
		ID:                    id,
		CreateEventTypeParams: req.toParams(),
		Active:                req.Active,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to update event type", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "event type updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEventTypeDTO(eventType))
}

// Deactivate handles DELETE /event-types/{id}.
func (h *EventTypeHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := EventTypeIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventTypeID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Deactivate", "host_id", principal.HostID, "event_type_id", id)

	if err := h.service.Deactivate(r.Context(), principal, id); err != nil {
		logger.ErrorContext(r.Context(), "failed to deactivate event type", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "event type deactivated")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// List handles GET /event-types.
func (h *EventTypeHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "host_id", principal.HostID)

	eventTypes, err := h.service.List(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list event types", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "listed event types")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEventTypeDTOs(eventTypes))
}

// Get handles GET /event-types/{id}. Public: used to render a booking page.
func (h *EventTypeHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := EventTypeIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventTypeID)
		return
	}

	logger := h.log(r.Context(), "Get", "event_type_id", id)

	eventType, err := h.service.Get(r.Context(), id)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to get event type", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEventTypeDTO(eventType))
}
