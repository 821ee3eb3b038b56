package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/meetsched/internal/persistence"
)

// EventTypeRepository implements persistence.EventTypeRepository using SQLite.
// WorkingHours, ParticipatingCalendarIDs, and CustomQuestions are stored as
// JSON columns: none of them are queried by the database directly, they are
// only ever loaded whole by HostID or slug.
type EventTypeRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewEventTypeRepository creates a new SQLite event type repository.
func NewEventTypeRepository(pool *ConnectionPool) *EventTypeRepository {
	return &EventTypeRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateEventType inserts a new event type.
func (r *EventTypeRepository) CreateEventType(ctx context.Context, eventType persistence.EventType) error {
	if eventType.ID == "" || eventType.Slug == "" {
		return persistence.ErrConstraintViolation
	}
	if eventType.DurationMin <= 0 {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	eventType.CreatedAt = now
	eventType.UpdatedAt = now

	workingHoursJSON, calendarIDsJSON, questionsJSON, err := marshalEventTypeJSON(eventType)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO event_types (
			id, host_id, slug, title, duration_min, buffer_before_min, buffer_after_min,
			minimum_notice_min, scheduling_window_days, slot_interval_min, working_hours,
			participating_calendar_ids, destination_calendar_id, location_kind,
			requires_confirmation, custom_questions, active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.helper.Exec(ctx, query,
		eventType.ID,
		eventType.HostID,
		eventType.Slug,
		eventType.Title,
		eventType.DurationMin,
		eventType.BufferBeforeMin,
		eventType.BufferAfterMin,
		eventType.MinimumNoticeMin,
		eventType.SchedulingWindowDays,
		eventType.SlotIntervalMin,
		workingHoursJSON,
		calendarIDsJSON,
		eventType.DestinationCalendarID,
		eventType.LocationKind,
		eventType.RequiresConfirmation,
		questionsJSON,
		eventType.Active,
		eventType.CreatedAt.Format(time.RFC3339),
		eventType.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return r.mapEventTypeError(err)
	}
	return nil
}

// UpdateEventType updates an existing event type.
func (r *EventTypeRepository) UpdateEventType(ctx context.Context, eventType persistence.EventType) error {
	if eventType.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if eventType.DurationMin <= 0 {
		return persistence.ErrConstraintViolation
	}

	eventType.UpdatedAt = time.Now().UTC()

	workingHoursJSON, calendarIDsJSON, questionsJSON, err := marshalEventTypeJSON(eventType)
	if err != nil {
		return err
	}

	query := `
		UPDATE event_types SET
			slug = ?, title = ?, duration_min = ?, buffer_before_min = ?, buffer_after_min = ?,
			minimum_notice_min = ?, scheduling_window_days = ?, slot_interval_min = ?,
			working_hours = ?, participating_calendar_ids = ?, destination_calendar_id = ?,
			location_kind = ?, requires_confirmation = ?, custom_questions = ?, active = ?,
			updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		eventType.Slug,
		eventType.Title,
		eventType.DurationMin,
		eventType.BufferBeforeMin,
		eventType.BufferAfterMin,
		eventType.MinimumNoticeMin,
		eventType.SchedulingWindowDays,
		eventType.SlotIntervalMin,
		workingHoursJSON,
		calendarIDsJSON,
		eventType.DestinationCalendarID,
		eventType.LocationKind,
		eventType.RequiresConfirmation,
		questionsJSON,
		eventType.Active,
		eventType.UpdatedAt.Format(time.RFC3339),
		eventType.ID,
	)
	if err != nil {
		return r.mapEventTypeError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetEventType retrieves an event type by ID.
func (r *EventTypeRepository) GetEventType(ctx context.Context, id string) (persistence.EventType, error) {
	if id == "" {
		return persistence.EventType{}, persistence.ErrNotFound
	}
	return r.scanOneWhere(ctx, "id = ?", id)
}

// GetEventTypeBySlug retrieves an event type by its (host, slug) pair.
func (r *EventTypeRepository) GetEventTypeBySlug(ctx context.Context, hostID, slug string) (persistence.EventType, error) {
	if hostID == "" || slug == "" {
		return persistence.EventType{}, persistence.ErrNotFound
	}
	return r.scanOneWhere(ctx, "host_id = ? AND slug = ?", hostID, slug)
}

func (r *EventTypeRepository) scanOneWhere(ctx context.Context, whereClause string, args ...interface{}) (persistence.EventType, error) {
	query := eventTypeSelectColumns + " FROM event_types WHERE " + whereClause

	row := r.helper.QueryRow(ctx, query, args...)
	eventType, err := scanEventTypeRow(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.EventType{}, persistence.ErrNotFound
		}
		return persistence.EventType{}, r.mapper.MapError(err)
	}
	return eventType, nil
}

// ListEventTypesForHost lists all event types owned by a host, ordered by
// slug for a stable admin UI listing.
func (r *EventTypeRepository) ListEventTypesForHost(ctx context.Context, hostID string) ([]persistence.EventType, error) {
	query := eventTypeSelectColumns + " FROM event_types WHERE host_id = ? ORDER BY slug ASC, id ASC"

	rows, err := r.helper.Query(ctx, query, hostID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var eventTypes []persistence.EventType
	for rows.Next() {
		eventType, err := scanEventTypeRow(rows.Scan)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		eventTypes = append(eventTypes, eventType)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return eventTypes, nil
}

// DeleteEventType removes an event type by ID.
func (r *EventTypeRepository) DeleteEventType(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, "DELETE FROM event_types WHERE id = ?", id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

const eventTypeSelectColumns = `
	SELECT id, host_id, slug, title, duration_min, buffer_before_min, buffer_after_min,
		minimum_notice_min, scheduling_window_days, slot_interval_min, working_hours,
		participating_calendar_ids, destination_calendar_id, location_kind,
		requires_confirmation, custom_questions, active, created_at, updated_at
`

func scanEventTypeRow(scan func(dest ...interface{}) error) (persistence.EventType, error) {
	var e persistence.EventType
	var createdAtStr, updatedAtStr string
	var workingHoursJSON, calendarIDsJSON, questionsJSON sql.NullString

	err := scan(
		&e.ID, &e.HostID, &e.Slug, &e.Title, &e.DurationMin, &e.BufferBeforeMin, &e.BufferAfterMin,
		&e.MinimumNoticeMin, &e.SchedulingWindowDays, &e.SlotIntervalMin, &workingHoursJSON,
		&calendarIDsJSON, &e.DestinationCalendarID, &e.LocationKind,
		&e.RequiresConfirmation, &questionsJSON, &e.Active, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return persistence.EventType{}, err
	}

	if workingHoursJSON.Valid && workingHoursJSON.String != "" {
		if err := json.Unmarshal([]byte(workingHoursJSON.String), &e.WorkingHours); err != nil {
			return persistence.EventType{}, fmt.Errorf("failed to unmarshal working_hours: %w", err)
		}
	}
	if calendarIDsJSON.Valid && calendarIDsJSON.String != "" {
		if err := json.Unmarshal([]byte(calendarIDsJSON.String), &e.ParticipatingCalendarIDs); err != nil {
			return persistence.EventType{}, fmt.Errorf("failed to unmarshal participating_calendar_ids: %w", err)
		}
	}
	if questionsJSON.Valid && questionsJSON.String != "" {
		if err := json.Unmarshal([]byte(questionsJSON.String), &e.CustomQuestions); err != nil {
			return persistence.EventType{}, fmt.Errorf("failed to unmarshal custom_questions: %w", err)
		}
	}

	if e.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.EventType{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if e.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.EventType{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return e, nil
}

func marshalEventTypeJSON(eventType persistence.EventType) (workingHours, calendarIDs, questions string, err error) {
	whBytes, err := json.Marshal(eventType.WorkingHours)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal working_hours: %w", err)
	}
	calBytes, err := json.Marshal(eventType.ParticipatingCalendarIDs)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal participating_calendar_ids: %w", err)
	}
	qBytes, err := json.Marshal(eventType.CustomQuestions)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal custom_questions: %w", err)
	}
	return string(whBytes), string(calBytes), string(qBytes), nil
}

// mapEventTypeError maps SQLite errors to persistence sentinels for event
// type operations. The unique index on (host_id, slug) is what lets
// GetEventTypeBySlug resolve a slug unambiguously.
func (r *EventTypeRepository) mapEventTypeError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	if containsAny(errStr, []string{"UNIQUE constraint failed"}) {
		return persistence.ErrDuplicate
	}
	if containsAny(errStr, []string{"FOREIGN KEY constraint failed"}) {
		return persistence.ErrForeignKeyViolation
	}
	if containsAny(errStr, []string{"CHECK constraint failed"}) {
		return persistence.ErrConstraintViolation
	}

	return r.mapper.MapError(err)
}
