package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/example/meetsched/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository using SQLite.
//
// Two unique indexes carry the concurrency guarantees the booking commit
// path depends on: (host_id, start_time, end_time) for any row whose status
// is not CANCELLED, and idempotency_key for any row where it is not NULL.
// Both are declared in the schema migration, not enforced here in Go —
// mapBookingError translates the resulting SQLite errors back to the
// sentinels callers check with errors.Is.
type BookingRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewBookingRepository creates a new SQLite booking repository.
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateBooking inserts a new booking row.
func (r *BookingRepository) CreateBooking(ctx context.Context, booking persistence.Booking) (persistence.Booking, error) {
	if booking.ID == "" || booking.UID == "" {
		return persistence.Booking{}, persistence.ErrConstraintViolation
	}
	if !booking.End.After(booking.Start) {
		return persistence.Booking{}, persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		responsesJSON, err := marshalCustomResponses(booking.CustomResponses)
		if err != nil {
			return err
		}

		query := `
			INSERT INTO bookings (
				id, uid, host_id, event_type_id, start_time, end_time, guest_timezone,
				guest_name, guest_email, guest_phone, guest_company, guest_notes,
				custom_responses, idempotency_key, status, external_event_ref,
				meeting_url, prior_uid, cancelled_at, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`

		_, err = r.helper.ExecTx(tx, query,
			booking.ID,
			booking.UID,
			booking.HostID,
			booking.EventTypeID,
			booking.Start.Format(time.RFC3339),
			booking.End.Format(time.RFC3339),
			booking.GuestTimezone,
			booking.GuestName,
			booking.GuestEmail,
			nullableString(booking.GuestPhone),
			nullableString(booking.GuestCompany),
			nullableString(booking.GuestNotes),
			responsesJSON,
			nullableString(booking.IdempotencyKey),
			booking.Status,
			nullableString(booking.ExternalEventRef),
			nullableString(booking.MeetingURL),
			nullableString(booking.PriorUID),
			nullableTime(booking.CancelledAt),
			booking.CreatedAt.Format(time.RFC3339),
			booking.UpdatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return r.mapBookingError(err)
		}
		return nil
	})
	if err != nil {
		return persistence.Booking{}, err
	}
	return booking, nil
}

// UpdateBooking updates an existing booking row, used for reschedule,
// cancellation, and confirmation status transitions.
func (r *BookingRepository) UpdateBooking(ctx context.Context, booking persistence.Booking) (persistence.Booking, error) {
	if booking.ID == "" {
		return persistence.Booking{}, persistence.ErrConstraintViolation
	}

	booking.UpdatedAt = time.Now().UTC()

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		responsesJSON, err := marshalCustomResponses(booking.CustomResponses)
		if err != nil {
			return err
		}

		query := `
			UPDATE bookings SET
				uid = ?, host_id = ?, event_type_id = ?, start_time = ?, end_time = ?,
				guest_timezone = ?, guest_name = ?, guest_email = ?, guest_phone = ?,
				guest_company = ?, guest_notes = ?, custom_responses = ?, idempotency_key = ?,
				status = ?, external_event_ref = ?, meeting_url = ?, prior_uid = ?,
				cancelled_at = ?, updated_at = ?
			WHERE id = ?
		`

		result, err := r.helper.ExecTx(tx, query,
			booking.UID,
			booking.HostID,
			booking.EventTypeID,
			booking.Start.Format(time.RFC3339),
			booking.End.Format(time.RFC3339),
			booking.GuestTimezone,
			booking.GuestName,
			booking.GuestEmail,
			nullableString(booking.GuestPhone),
			nullableString(booking.GuestCompany),
			nullableString(booking.GuestNotes),
			responsesJSON,
			nullableString(booking.IdempotencyKey),
			booking.Status,
			nullableString(booking.ExternalEventRef),
			nullableString(booking.MeetingURL),
			nullableString(booking.PriorUID),
			nullableTime(booking.CancelledAt),
			booking.UpdatedAt.Format(time.RFC3339),
			booking.ID,
		)
		if err != nil {
			return r.mapBookingError(err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return persistence.Booking{}, err
	}
	return booking, nil
}

// GetBookingByUID retrieves a booking by its public-facing UID.
func (r *BookingRepository) GetBookingByUID(ctx context.Context, uid string) (persistence.Booking, error) {
	if uid == "" {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	return r.scanOneWhere(ctx, "uid = ?", uid)
}

// GetBookingByIdempotencyKey retrieves a booking by its idempotency key,
// used by the booking commit path to detect a retried request.
func (r *BookingRepository) GetBookingByIdempotencyKey(ctx context.Context, key string) (persistence.Booking, error) {
	if key == "" {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	return r.scanOneWhere(ctx, "idempotency_key = ?", key)
}

func (r *BookingRepository) scanOneWhere(ctx context.Context, whereClause string, args ...interface{}) (persistence.Booking, error) {
	query := bookingSelectColumns + " FROM bookings WHERE " + whereClause

	row := r.helper.QueryRow(ctx, query, args...)
	booking, err := scanBookingRow(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Booking{}, persistence.ErrNotFound
		}
		return persistence.Booking{}, r.mapper.MapError(err)
	}
	return booking, nil
}

// ListBookingsOverlapping returns bookings for a host, optionally narrowed
// to a set of statuses and a time range, ordered by start time. The
// availability engine uses this to gather busy blocks, including for the
// bookability check the booking commit path runs before its insert; that
// check runs outside the insert's transaction.
func (r *BookingRepository) ListBookingsOverlapping(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	query, args := r.buildListQuery(filter)

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var bookings []persistence.Booking
	for rows.Next() {
		booking, err := scanBookingRow(rows.Scan)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return bookings, nil
}

func (r *BookingRepository) buildListQuery(filter persistence.BookingFilter) (string, []interface{}) {
	query := bookingSelectColumns + " FROM bookings"

	var conditions []string
	var args []interface{}

	if filter.HostID != "" {
		conditions = append(conditions, "host_id = ?")
		args = append(args, filter.HostID)
	}

	if len(filter.StatusIn) > 0 {
		placeholders := make([]string, len(filter.StatusIn))
		for i, status := range filter.StatusIn {
			placeholders[i] = "?"
			args = append(args, status)
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	if filter.OverlapsStart != nil {
		conditions = append(conditions, "end_time > ?")
		args = append(args, filter.OverlapsStart.UTC().Format(time.RFC3339))
	}
	if filter.OverlapsEnd != nil {
		conditions = append(conditions, "start_time < ?")
		args = append(args, filter.OverlapsEnd.UTC().Format(time.RFC3339))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time ASC, id ASC"

	return query, args
}

const bookingSelectColumns = `
	SELECT id, uid, host_id, event_type_id, start_time, end_time, guest_timezone,
		guest_name, guest_email, guest_phone, guest_company, guest_notes,
		custom_responses, idempotency_key, status, external_event_ref,
		meeting_url, prior_uid, cancelled_at, created_at, updated_at
`

func scanBookingRow(scan func(dest ...interface{}) error) (persistence.Booking, error) {
	var b persistence.Booking
	var startStr, endStr, createdAtStr, updatedAtStr string
	var guestPhone, guestCompany, guestNotes, idempotencyKey sql.NullString
	var externalEventRef, meetingURL, priorUID sql.NullString
	var cancelledAt sql.NullString
	var responsesJSON sql.NullString

	err := scan(
		&b.ID, &b.UID, &b.HostID, &b.EventTypeID, &startStr, &endStr, &b.GuestTimezone,
		&b.GuestName, &b.GuestEmail, &guestPhone, &guestCompany, &guestNotes,
		&responsesJSON, &idempotencyKey, &b.Status, &externalEventRef,
		&meetingURL, &priorUID, &cancelledAt, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return persistence.Booking{}, err
	}

	b.GuestPhone = stringPtrFromNull(guestPhone)
	b.GuestCompany = stringPtrFromNull(guestCompany)
	b.GuestNotes = stringPtrFromNull(guestNotes)
	b.IdempotencyKey = stringPtrFromNull(idempotencyKey)
	b.ExternalEventRef = stringPtrFromNull(externalEventRef)
	b.MeetingURL = stringPtrFromNull(meetingURL)
	b.PriorUID = stringPtrFromNull(priorUID)

	if responsesJSON.Valid && responsesJSON.String != "" {
		if err := json.Unmarshal([]byte(responsesJSON.String), &b.CustomResponses); err != nil {
			return persistence.Booking{}, fmt.Errorf("failed to unmarshal custom_responses: %w", err)
		}
	}

	if b.Start, err = time.Parse(time.RFC3339, startStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	if b.End, err = time.Parse(time.RFC3339, endStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse end_time: %w", err)
	}
	if b.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if b.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if cancelledAt.Valid {
		parsed, err := time.Parse(time.RFC3339, cancelledAt.String)
		if err != nil {
			return persistence.Booking{}, fmt.Errorf("failed to parse cancelled_at: %w", err)
		}
		b.CancelledAt = &parsed
	}

	return b, nil
}

func marshalCustomResponses(responses map[string]string) (sql.NullString, error) {
	if len(responses) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(responses)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal custom_responses: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

func stringPtrFromNull(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	value := s.String
	return &value
}

// mapBookingError maps SQLite errors to persistence sentinels for booking
// operations. The two unique indexes booking commits rely on both surface
// as "UNIQUE constraint failed" from the driver, and both map to
// ErrDuplicate; this function does not tell them apart.
func (r *BookingRepository) mapBookingError(err error) error {
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
