package application

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// EventTypeRepository is the full CRUD surface EventTypeService depends on,
// a superset of the read-only EventTypeStore the availability/booking paths
// use.
type EventTypeRepository interface {
	CreateEventType(ctx context.Context, eventType EventType) error
	UpdateEventType(ctx context.Context, eventType EventType) error
	GetEventType(ctx context.Context, id string) (EventType, error)
	GetEventTypeBySlug(ctx context.Context, hostID, slug string) (EventType, error)
	ListEventTypesForHost(ctx context.Context, hostID string) ([]EventType, error)
	DeleteEventType(ctx context.Context, id string) error
}

// CreateEventTypeParams captures the admin-surface inputs to create an
// event type.
type CreateEventTypeParams struct {
	Slug                     string
	Title                    string
	DurationMin              int
	BufferBeforeMin          int
	BufferAfterMin           int
	MinimumNoticeMin         int
	SchedulingWindowDays     int
	SlotIntervalMin          int
	WorkingHours             []WorkingHours
	ParticipatingCalendarIDs []string
	DestinationCalendarID    string
	LocationKind             LocationKind
	RequiresConfirmation     bool
	CustomQuestions          []CustomQuestion
}

// UpdateEventTypeParams captures the admin-surface inputs to update an
// existing event type. All fields replace the current row entirely.
type UpdateEventTypeParams struct {
	ID string
	CreateEventTypeParams
	Active bool
}

// EventTypeService implements the admin CRUD surface for bookable meeting
// configurations, generalizing the teacher's RoomService's create/update/
// list/delete shape from a static resource to a per-host owned one.
type EventTypeService struct {
	repo        EventTypeRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEventTypeService constructs an EventTypeService.
func NewEventTypeService(repo EventTypeRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EventTypeService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EventTypeService{repo: repo, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *EventTypeService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EventTypeService", operation, attrs...)
}

// Create validates and persists a new event type owned by principal.
func (s *EventTypeService) Create(ctx context.Context, principal Principal, params CreateEventTypeParams) (eventType EventType, err error) {
	logger := s.loggerWith(ctx, "Create", "host_id", principal.HostID, "slug", params.Slug)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "event type create failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("event_type_id", eventType.ID).InfoContext(ctx, "event type created")
	}()

	if principal.HostID == "" {
		err = ErrUnauthorized
		return
	}
	if verr := validateEventTypeParams(params); verr != nil {
		err = verr
		return
	}

	now := s.now()
	candidate := EventType{
		ID:                       s.idGenerator(),
		HostID:                   principal.HostID,
		Slug:                     strings.TrimSpace(params.Slug),
		Title:                    strings.TrimSpace(params.Title),
		DurationMin:              params.DurationMin,
		BufferBeforeMin:          params.BufferBeforeMin,
		BufferAfterMin:           params.BufferAfterMin,
		MinimumNoticeMin:         params.MinimumNoticeMin,
		SchedulingWindowDays:     params.SchedulingWindowDays,
		SlotIntervalMin:          params.SlotIntervalMin,
		WorkingHours:             params.WorkingHours,
		ParticipatingCalendarIDs: params.ParticipatingCalendarIDs,
		DestinationCalendarID:    params.DestinationCalendarID,
		LocationKind:             params.LocationKind,
		RequiresConfirmation:     params.RequiresConfirmation,
		CustomQuestions:          params.CustomQuestions,
		Active:                   true,
		CreatedAt:                now,
		UpdatedAt:                now,
	}

	if err = s.repo.CreateEventType(ctx, candidate); err != nil {
		return
	}
	eventType, err = s.repo.GetEventType(ctx, candidate.ID)
	return
}

// Update replaces an existing event type's configuration, verifying
// ownership first.
func (s *EventTypeService) Update(ctx context.Context, principal Principal, params UpdateEventTypeParams) (eventType EventType, err error) {
	logger := s.loggerWith(ctx, "Update", "host_id", principal.HostID, "event_type_id", params.ID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "event type update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "event type updated")
	}()

	var existing EventType
	existing, err = s.repo.GetEventType(ctx, params.ID)
	if err != nil {
		return
	}
	if existing.HostID != principal.HostID {
		err = ErrUnauthorized
		return
	}
	if verr := validateEventTypeParams(params.CreateEventTypeParams); verr != nil {
		err = verr
		return
	}

	existing.Slug = strings.TrimSpace(params.Slug)
	existing.Title = strings.TrimSpace(params.Title)
	existing.DurationMin = params.DurationMin
	existing.BufferBeforeMin = params.BufferBeforeMin
	existing.BufferAfterMin = params.BufferAfterMin
	existing.MinimumNoticeMin = params.MinimumNoticeMin
	existing.SchedulingWindowDays = params.SchedulingWindowDays
	existing.SlotIntervalMin = params.SlotIntervalMin
	existing.WorkingHours = params.WorkingHours
	existing.ParticipatingCalendarIDs = params.ParticipatingCalendarIDs
	existing.DestinationCalendarID = params.DestinationCalendarID
	existing.LocationKind = params.LocationKind
	existing.RequiresConfirmation = params.RequiresConfirmation
	existing.CustomQuestions = params.CustomQuestions
	existing.Active = params.Active
	existing.UpdatedAt = s.now()

	if err = s.repo.UpdateEventType(ctx, existing); err != nil {
		return
	}
	eventType, err = s.repo.GetEventType(ctx, existing.ID)
	return
}

// Deactivate soft-deletes an event type: existing bookings stand but no new
// ones may be created against it, per spec.md §3's lifecycle note.
func (s *EventTypeService) Deactivate(ctx context.Context, principal Principal, id string) (err error) {
	logger := s.loggerWith(ctx, "Deactivate", "host_id", principal.HostID, "event_type_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "event type deactivate failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "event type deactivated")
	}()

	var existing EventType
	existing, err = s.repo.GetEventType(ctx, id)
	if err != nil {
		return
	}
	if existing.HostID != principal.HostID {
		err = ErrUnauthorized
		return
	}
	existing.Active = false
	existing.UpdatedAt = s.now()
	err = s.repo.UpdateEventType(ctx, existing)
	return
}

// List returns every event type owned by the principal's host.
func (s *EventTypeService) List(ctx context.Context, principal Principal) ([]EventType, error) {
	if principal.HostID == "" {
		return nil, ErrUnauthorized
	}
	return s.repo.ListEventTypesForHost(ctx, principal.HostID)
}

// Get returns a single event type by id, used by the public
// GET /event-types/{id} route.
func (s *EventTypeService) Get(ctx context.Context, id string) (EventType, error) {
	return s.repo.GetEventType(ctx, id)
}

// GetBySlug resolves an event type by its host-scoped slug. No HTTP route
// calls it; the public route resolves event types by id.
func (s *EventTypeService) GetBySlug(ctx context.Context, hostID, slug string) (EventType, error) {
	return s.repo.GetEventTypeBySlug(ctx, hostID, slug)
}

func validateEventTypeParams(params CreateEventTypeParams) *ValidationError {
	verr := &ValidationError{}
	if strings.TrimSpace(params.Slug) == "" {
		verr.add("slug", "is required")
	}
	if strings.TrimSpace(params.Title) == "" {
		verr.add("title", "is required")
	}
	if params.DurationMin <= 0 {
		verr.add("durationMin", "must be positive")
	}
	if params.BufferBeforeMin < 0 || params.BufferAfterMin < 0 {
		verr.add("buffer", "must not be negative")
	}
	if params.MinimumNoticeMin < 0 {
		verr.add("minimumNoticeMin", "must not be negative")
	}
	if params.SchedulingWindowDays <= 0 {
		verr.add("schedulingWindowDays", "must be positive")
	}
	for _, h := range params.WorkingHours {
		if _, err := time.Parse("15:04", h.StartLocal); err != nil {
			verr.add("workingHours", "startLocal must be HH:MM")
			break
		}
		if _, err := time.Parse("15:04", h.EndLocal); err != nil {
			verr.add("workingHours", "endLocal must be HH:MM")
			break
		}
	}
	switch params.LocationKind {
	case LocationKindInPerson, LocationKindPhone, LocationKindVideoConference, LocationKindCustom, "":
	default:
		verr.add("locationKind", "unrecognized value")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}
