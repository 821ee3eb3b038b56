// Package memory provides an in-memory implementation of the persistence
// repository interfaces, guarded by a single mutex. It exists for fast,
// deterministic tests that don't need a real SQLite file on disk; it is
// never wired into cmd/scheduler.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/meetsched/internal/persistence"
)

// Store implements every persistence.*Repository interface against
// in-memory maps. All operations are guarded by a single RWMutex, which is
// fine for test scale and keeps the semantics easy to reason about.
type Store struct {
	mu sync.RWMutex

	hosts      map[string]persistence.Host
	accounts   map[string]persistence.ConnectedAccount
	calendars  map[string]persistence.Calendar
	eventTypes map[string]persistence.EventType
	bookings   map[string]persistence.Booking
	sessions   map[string]persistence.Session
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		hosts:      make(map[string]persistence.Host),
		accounts:   make(map[string]persistence.ConnectedAccount),
		calendars:  make(map[string]persistence.Calendar),
		eventTypes: make(map[string]persistence.EventType),
		bookings:   make(map[string]persistence.Booking),
		sessions:   make(map[string]persistence.Session),
	}
}

// ---- HostRepository ----

func (s *Store) CreateHost(ctx context.Context, host persistence.Host) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if host.ID == "" || host.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}
	normalized := normalizeEmail(host.Email)
	for _, existing := range s.hosts {
		if normalizeEmail(existing.Email) == normalized {
			return persistence.ErrDuplicate
		}
	}

	now := time.Now().UTC()
	host.Email = normalized
	host.CreatedAt = now
	host.UpdatedAt = now
	s.hosts[host.ID] = cloneHost(host)
	return nil
}

func (s *Store) UpdateHost(ctx context.Context, host persistence.Host) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.hosts[host.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	host.Email = normalizeEmail(host.Email)
	host.CreatedAt = current.CreatedAt
	host.UpdatedAt = time.Now().UTC()
	s.hosts[host.ID] = cloneHost(host)
	return nil
}

func (s *Store) GetHost(ctx context.Context, id string) (persistence.Host, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	host, ok := s.hosts[id]
	if !ok {
		return persistence.Host{}, persistence.ErrNotFound
	}
	return cloneHost(host), nil
}

func (s *Store) GetHostByEmail(ctx context.Context, email string) (persistence.Host, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	normalized := normalizeEmail(email)
	for _, host := range s.hosts {
		if normalizeEmail(host.Email) == normalized {
			return cloneHost(host), nil
		}
	}
	return persistence.Host{}, persistence.ErrNotFound
}

func (s *Store) DeleteHost(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.hosts[id]; !ok {
		return persistence.ErrNotFound
	}
	for _, booking := range s.bookings {
		if booking.HostID == id {
			return persistence.ErrForeignKeyViolation
		}
	}
	delete(s.hosts, id)
	return nil
}

// ---- AccountRepository ----

func (s *Store) CreateAccount(ctx context.Context, account persistence.ConnectedAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if account.ID == "" || account.HostID == "" {
		return persistence.ErrConstraintViolation
	}
	if _, exists := s.accounts[account.ID]; exists {
		return persistence.ErrDuplicate
	}

	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	s.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (s *Store) UpdateAccount(ctx context.Context, account persistence.ConnectedAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.accounts[account.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	account.HostID = current.HostID
	account.CreatedAt = current.CreatedAt
	account.UpdatedAt = time.Now().UTC()
	s.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (persistence.ConnectedAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return persistence.ConnectedAccount{}, persistence.ErrNotFound
	}
	return cloneAccount(account), nil
}

func (s *Store) ListAccountsForHost(ctx context.Context, hostID string) ([]persistence.ConnectedAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []persistence.ConnectedAccount
	for _, account := range s.accounts {
		if account.HostID == hostID {
			results = append(results, cloneAccount(account))
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].ID < results[j].ID
		}
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})
	return results, nil
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return persistence.ErrNotFound
	}
	for calID, cal := range s.calendars {
		if cal.AccountID == id {
			delete(s.calendars, calID)
		}
	}
	delete(s.accounts, id)
	return nil
}

// ---- CalendarRepository ----

func (s *Store) CreateCalendar(ctx context.Context, calendar persistence.Calendar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if calendar.ID == "" || calendar.AccountID == "" || calendar.ExternalCalendarID == "" {
		return persistence.ErrConstraintViolation
	}
	for _, existing := range s.calendars {
		if existing.AccountID == calendar.AccountID && existing.ExternalCalendarID == calendar.ExternalCalendarID {
			return persistence.ErrDuplicate
		}
	}

	now := time.Now().UTC()
	calendar.CreatedAt = now
	calendar.UpdatedAt = now
	s.calendars[calendar.ID] = calendar
	return nil
}

func (s *Store) UpdateCalendar(ctx context.Context, calendar persistence.Calendar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.calendars[calendar.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	calendar.AccountID = current.AccountID
	calendar.ExternalCalendarID = current.ExternalCalendarID
	calendar.CreatedAt = current.CreatedAt
	calendar.UpdatedAt = time.Now().UTC()
	s.calendars[calendar.ID] = calendar
	return nil
}

func (s *Store) GetCalendar(ctx context.Context, id string) (persistence.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	calendar, ok := s.calendars[id]
	if !ok {
		return persistence.Calendar{}, persistence.ErrNotFound
	}
	return calendar, nil
}

func (s *Store) ListCalendarsForAccount(ctx context.Context, accountID string) ([]persistence.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []persistence.Calendar
	for _, calendar := range s.calendars {
		if calendar.AccountID == accountID {
			results = append(results, calendar)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ExternalCalendarID < results[j].ExternalCalendarID })
	return results, nil
}

func (s *Store) ListSelectedCalendarsForHost(ctx context.Context, hostID string, calendarIDs []string) ([]persistence.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(calendarIDs) == 0 {
		return nil, nil
	}
	wanted := make(map[string]bool, len(calendarIDs))
	for _, id := range calendarIDs {
		wanted[id] = true
	}

	var results []persistence.Calendar
	for _, calendar := range s.calendars {
		if !wanted[calendar.ID] || !calendar.SelectedForBusy {
			continue
		}
		account, ok := s.accounts[calendar.AccountID]
		if !ok || account.HostID != hostID {
			continue
		}
		results = append(results, calendar)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ExternalCalendarID < results[j].ExternalCalendarID })
	return results, nil
}

func (s *Store) DeleteCalendar(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.calendars[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.calendars, id)
	return nil
}

// ---- EventTypeRepository ----

func (s *Store) CreateEventType(ctx context.Context, eventType persistence.EventType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if eventType.ID == "" || eventType.HostID == "" || eventType.DurationMin <= 0 {
		return persistence.ErrConstraintViolation
	}
	for _, existing := range s.eventTypes {
		if existing.HostID == eventType.HostID && existing.Slug == eventType.Slug {
			return persistence.ErrDuplicate
		}
	}

	now := time.Now().UTC()
	eventType.CreatedAt = now
	eventType.UpdatedAt = now
	s.eventTypes[eventType.ID] = cloneEventType(eventType)
	return nil
}

func (s *Store) UpdateEventType(ctx context.Context, eventType persistence.EventType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.eventTypes[eventType.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	if eventType.DurationMin <= 0 {
		return persistence.ErrConstraintViolation
	}
	for id, existing := range s.eventTypes {
		if id != eventType.ID && existing.HostID == eventType.HostID && existing.Slug == eventType.Slug {
			return persistence.ErrDuplicate
		}
	}
	eventType.HostID = current.HostID
	eventType.CreatedAt = current.CreatedAt
	eventType.UpdatedAt = time.Now().UTC()
	s.eventTypes[eventType.ID] = cloneEventType(eventType)
	return nil
}

func (s *Store) GetEventType(ctx context.Context, id string) (persistence.EventType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	eventType, ok := s.eventTypes[id]
	if !ok {
		return persistence.EventType{}, persistence.ErrNotFound
	}
	return cloneEventType(eventType), nil
}

func (s *Store) GetEventTypeBySlug(ctx context.Context, hostID, slug string) (persistence.EventType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, eventType := range s.eventTypes {
		if eventType.HostID == hostID && eventType.Slug == slug {
			return cloneEventType(eventType), nil
		}
	}
	return persistence.EventType{}, persistence.ErrNotFound
}

func (s *Store) ListEventTypesForHost(ctx context.Context, hostID string) ([]persistence.EventType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []persistence.EventType
	for _, eventType := range s.eventTypes {
		if eventType.HostID == hostID {
			results = append(results, cloneEventType(eventType))
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Slug < results[j].Slug })
	return results, nil
}

func (s *Store) DeleteEventType(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.eventTypes[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.eventTypes, id)
	return nil
}

// ---- BookingRepository ----

func (s *Store) CreateBooking(ctx context.Context, booking persistence.Booking) (persistence.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if booking.ID == "" || booking.UID == "" {
		return persistence.Booking{}, persistence.ErrConstraintViolation
	}
	if !booking.End.After(booking.Start) {
		return persistence.Booking{}, persistence.ErrConstraintViolation
	}
	for _, existing := range s.bookings {
		if existing.UID == booking.UID {
			return persistence.Booking{}, persistence.ErrDuplicate
		}
		if booking.IdempotencyKey != nil && existing.IdempotencyKey != nil && *existing.IdempotencyKey == *booking.IdempotencyKey {
			return persistence.Booking{}, persistence.ErrDuplicate
		}
		if existing.HostID == booking.HostID && existing.Status != "CANCELLED" &&
			existing.Start.Equal(booking.Start) && existing.End.Equal(booking.End) {
			return persistence.Booking{}, persistence.ErrDuplicate
		}
	}

	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	s.bookings[booking.ID] = cloneBooking(booking)
	return cloneBooking(booking), nil
}

func (s *Store) UpdateBooking(ctx context.Context, booking persistence.Booking) (persistence.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.bookings[booking.ID]
	if !ok {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	booking.UID = current.UID
	booking.HostID = current.HostID
	booking.EventTypeID = current.EventTypeID
	booking.CreatedAt = current.CreatedAt
	booking.UpdatedAt = time.Now().UTC()
	s.bookings[booking.ID] = cloneBooking(booking)
	return cloneBooking(booking), nil
}

func (s *Store) GetBookingByUID(ctx context.Context, uid string) (persistence.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, booking := range s.bookings {
		if booking.UID == uid {
			return cloneBooking(booking), nil
		}
	}
	return persistence.Booking{}, persistence.ErrNotFound
}

func (s *Store) GetBookingByIdempotencyKey(ctx context.Context, key string) (persistence.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, booking := range s.bookings {
		if booking.IdempotencyKey != nil && *booking.IdempotencyKey == key {
			return cloneBooking(booking), nil
		}
	}
	return persistence.Booking{}, persistence.ErrNotFound
}

func (s *Store) ListBookingsOverlapping(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statusSet := make(map[string]bool, len(filter.StatusIn))
	for _, status := range filter.StatusIn {
		statusSet[status] = true
	}

	var results []persistence.Booking
	for _, booking := range s.bookings {
		if filter.HostID != "" && booking.HostID != filter.HostID {
			continue
		}
		if len(statusSet) > 0 && !statusSet[booking.Status] {
			continue
		}
		if filter.OverlapsStart != nil && !booking.End.After(*filter.OverlapsStart) {
			continue
		}
		if filter.OverlapsEnd != nil && !booking.Start.Before(*filter.OverlapsEnd) {
			continue
		}
		results = append(results, cloneBooking(booking))
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Start.Before(results[j].Start) })
	return results, nil
}

// ---- SessionRepository ----

func (s *Store) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.ID == "" || session.HostID == "" || strings.TrimSpace(session.Token) == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	for _, existing := range s.sessions {
		if existing.Token == session.Token {
			return persistence.Session{}, persistence.ErrDuplicate
		}
	}

	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	s.sessions[session.ID] = cloneSession(session)
	return cloneSession(session), nil
}

func (s *Store) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token = strings.TrimSpace(token)
	for _, session := range s.sessions {
		if session.Token == token {
			return cloneSession(session), nil
		}
	}
	return persistence.Session{}, persistence.ErrNotFound
}

func (s *Store) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[session.ID]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	session.HostID = current.HostID
	session.CreatedAt = current.CreatedAt
	session.UpdatedAt = time.Now().UTC()
	s.sessions[session.ID] = cloneSession(session)
	return cloneSession(session), nil
}

func (s *Store) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token = strings.TrimSpace(token)
	for id, session := range s.sessions {
		if session.Token == token {
			revoked := revokedAt.UTC()
			session.RevokedAt = &revoked
			session.UpdatedAt = revoked
			s.sessions[id] = cloneSession(session)
			return cloneSession(session), nil
		}
	}
	return persistence.Session{}, persistence.ErrNotFound
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := reference.UTC()
	for id, session := range s.sessions {
		if !session.ExpiresAt.After(cutoff) {
			delete(s.sessions, id)
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
