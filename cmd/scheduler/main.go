package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/meetsched/internal/application"
	"github.com/example/meetsched/internal/calendarsync"
	"github.com/example/meetsched/internal/config"
	httptransport "github.com/example/meetsched/internal/http"
	"github.com/example/meetsched/internal/mailer"
	"github.com/example/meetsched/internal/persistence"
	"github.com/example/meetsched/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.Open(ctx, cfg.SQLiteDSN, "migrations")
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	idGenerator := func() string { return uuid.NewString() }
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	vault, err := calendarsync.NewTokenVault(cfg.TokenEncryptionKey)
	if err != nil {
		logger.Error("failed to construct token vault", "error", err)
		os.Exit(1)
	}

	hostStore := newHostStoreAdapter(db.Hosts)
	accountStore := newAccountStoreAdapter(db.Accounts)

	// FakeProvider is the only CalendarProviderPort implementation in this
	// repository; see DESIGN.md for why no real Google/Microsoft OAuth SDK
	// integration is wired here.
	provider := calendarsync.NewFakeProvider()
	refresher := calendarsync.NewAccountTokenRefresher(vault, provider, accountStore, now)
	aggregator := calendarsync.NewAggregator(provider, refresher, hostStore, logger)

	credentialStore := newCredentialStoreAdapter(db.Hosts)
	sessionRepo := newSessionRepositoryAdapter(db.Sessions)
	eventTypeRepo := newEventTypeRepositoryAdapter(db.EventTypes)
	accountRepo := newAccountRepositoryAdapter(db.Accounts)
	calendarRepo := newCalendarRepositoryAdapter(db.Calendars)
	bookingRepo := newBookingRepositoryAdapter(db.Bookings)
	bookingOverlapStore := newBookingOverlapStoreAdapter(db.Bookings)
	calendarLookup := calendarRepo

	authService := application.NewAuthServiceWithLogger(credentialStore, sessionRepo, nil, tokenGenerator, now, cfg.SessionTTL, logger)
	eventTypeService := application.NewEventTypeService(eventTypeRepo, idGenerator, now, logger)
	accountService := application.NewAccountService(accountRepo, calendarRepo, idGenerator, now, logger)
	availabilityEngine := application.NewAvailabilityEngine(eventTypeRepo, hostStore, calendarRepo, bookingOverlapStore, aggregator, now, logger)
	bookingMailer := mailer.NewLoggingMailer(logger)
	bookingService := application.NewBookingService(bookingRepo, eventTypeRepo, hostStore, calendarLookup, availabilityEngine, aggregator, bookingMailer, idGenerator, now, logger)

	authHandler := httptransport.NewAuthHandler(authService, logger)
	availabilityHandler := httptransport.NewAvailabilityHandler(availabilityEngine, logger)
	bookingHandler := httptransport.NewBookingHandler(bookingService, logger)
	eventTypeHandler := httptransport.NewEventTypeHandler(eventTypeService, logger)
	accountHandler := httptransport.NewAccountHandler(accountService, logger)

	rateLimiter := application.NewRateLimiter(map[application.EndpointClass]application.RateLimitRule{
		application.EndpointClassBooking:      {Limit: cfg.RateLimitBooking, Window: time.Minute},
		application.EndpointClassAvailability: {Limit: cfg.RateLimitAvailability, Window: time.Minute},
		application.EndpointClassOAuth:        {Limit: cfg.RateLimitOAuth, Window: time.Minute},
	}, now)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:                  authHandler,
		Availability:          availabilityHandler,
		Bookings:              bookingHandler,
		EventTypes:            eventTypeHandler,
		Accounts:              accountHandler,
		RequireSession:        httptransport.RequireSession(authService, logger),
		Middleware:            []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
		RateLimitBooking:      httptransport.RateLimit(rateLimiter, application.EndpointClassBooking, logger),
		RateLimitAvailability: httptransport.RateLimit(rateLimiter, application.EndpointClassAvailability, logger),
		RateLimitOAuth:        httptransport.RateLimit(rateLimiter, application.EndpointClassOAuth, logger),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("scheduler API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

// --- Host adapters -------------------------------------------------------

type hostStoreAdapter struct {
	repo *sqlite.HostRepository
}

func newHostStoreAdapter(repo *sqlite.HostRepository) *hostStoreAdapter {
	return &hostStoreAdapter{repo: repo}
}

func (a *hostStoreAdapter) GetHost(ctx context.Context, id string) (application.Host, error) {
	stored, err := a.repo.GetHost(ctx, id)
	if err != nil {
		return application.Host{}, mapPersistenceError(err)
	}
	return toApplicationHost(stored), nil
}

type credentialStoreAdapter struct {
	repo *sqlite.HostRepository
}

func newCredentialStoreAdapter(repo *sqlite.HostRepository) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo}
}

func (a *credentialStoreAdapter) GetHostCredentialsByEmail(ctx context.Context, email string) (application.HostCredentials, error) {
	stored, err := a.repo.GetHostByEmail(ctx, email)
	if err != nil {
		return application.HostCredentials{}, mapPersistenceError(err)
	}
	return application.HostCredentials{
		Host:           toApplicationHost(stored),
		PasswordHash:   stored.PasswordHash,
		Disabled:       stored.Disabled,
		FailedAttempts: stored.FailedAttempts,
		LastFailedAt:   stored.LastFailedAt,
	}, nil
}

func (a *credentialStoreAdapter) GetHost(ctx context.Context, id string) (application.Host, error) {
	stored, err := a.repo.GetHost(ctx, id)
	if err != nil {
		return application.Host{}, mapPersistenceError(err)
	}
	return toApplicationHost(stored), nil
}

func toApplicationHost(model persistence.Host) application.Host {
	return application.Host{
		ID:              model.ID,
		DisplayTimezone: model.DisplayTimezone,
		Email:           model.Email,
		DisplayName:     model.DisplayName,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// --- Session adapter ------------------------------------------------------

type sessionRepositoryAdapter struct {
	repo *sqlite.SessionRepository
}

func newSessionRepositoryAdapter(repo *sqlite.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, mapPersistenceError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, mapPersistenceError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) UpdateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.UpdateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, mapPersistenceError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, mapPersistenceError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return mapPersistenceError(a.repo.DeleteExpiredSessions(ctx, reference))
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:          model.ID,
		HostID:      model.HostID,
		Token:       model.Token,
		Fingerprint: model.Fingerprint,
		ExpiresAt:   model.ExpiresAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
		RevokedAt:   cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:          session.ID,
		HostID:      session.HostID,
		Token:       session.Token,
		Fingerprint: session.Fingerprint,
		ExpiresAt:   session.ExpiresAt,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
		RevokedAt:   cloneTime(session.RevokedAt),
	}
}

// --- Event type adapter -----------------------------------------------

type eventTypeRepositoryAdapter struct {
	repo *sqlite.EventTypeRepository
}

func newEventTypeRepositoryAdapter(repo *sqlite.EventTypeRepository) *eventTypeRepositoryAdapter {
	return &eventTypeRepositoryAdapter{repo: repo}
}

func (a *eventTypeRepositoryAdapter) CreateEventType(ctx context.Context, eventType application.EventType) error {
	return mapPersistenceError(a.repo.CreateEventType(ctx, toPersistenceEventType(eventType)))
}

func (a *eventTypeRepositoryAdapter) UpdateEventType(ctx context.Context, eventType application.EventType) error {
	return mapPersistenceError(a.repo.UpdateEventType(ctx, toPersistenceEventType(eventType)))
}

func (a *eventTypeRepositoryAdapter) GetEventType(ctx context.Context, id string) (application.EventType, error) {
	stored, err := a.repo.GetEventType(ctx, id)
	if err != nil {
		return application.EventType{}, mapPersistenceError(err)
	}
	return toApplicationEventType(stored), nil
}

func (a *eventTypeRepositoryAdapter) GetEventTypeBySlug(ctx context.Context, hostID, slug string) (application.EventType, error) {
	stored, err := a.repo.GetEventTypeBySlug(ctx, hostID, slug)
	if err != nil {
		return application.EventType{}, mapPersistenceError(err)
	}
	return toApplicationEventType(stored), nil
}

func (a *eventTypeRepositoryAdapter) ListEventTypesForHost(ctx context.Context, hostID string) ([]application.EventType, error) {
	models, err := a.repo.ListEventTypesForHost(ctx, hostID)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	eventTypes := make([]application.EventType, 0, len(models))
	for _, model := range models {
		eventTypes = append(eventTypes, toApplicationEventType(model))
	}
	return eventTypes, nil
}

func (a *eventTypeRepositoryAdapter) DeleteEventType(ctx context.Context, id string) error {
	return mapPersistenceError(a.repo.DeleteEventType(ctx, id))
}

func toApplicationEventType(model persistence.EventType) application.EventType {
	hours := make([]application.WorkingHours, 0, len(model.WorkingHours))
	for _, h := range model.WorkingHours {
		hours = append(hours, application.WorkingHours{DayOfWeek: h.DayOfWeek, StartLocal: h.StartLocal, EndLocal: h.EndLocal})
	}
	questions := make([]application.CustomQuestion, 0, len(model.CustomQuestions))
	for _, q := range model.CustomQuestions {
		questions = append(questions, application.CustomQuestion{
			Kind:     application.QuestionKind(q.Kind),
			Label:    q.Label,
			Required: q.Required,
			Options:  append([]string(nil), q.Options...),
		})
	}
	return application.EventType{
		ID:                       model.ID,
		HostID:                   model.HostID,
		Slug:                     model.Slug,
		Title:                    model.Title,
		DurationMin:              model.DurationMin,
		BufferBeforeMin:          model.BufferBeforeMin,
		BufferAfterMin:           model.BufferAfterMin,
		MinimumNoticeMin:         model.MinimumNoticeMin,
		SchedulingWindowDays:     model.SchedulingWindowDays,
		SlotIntervalMin:          model.SlotIntervalMin,
		WorkingHours:             hours,
		ParticipatingCalendarIDs: append([]string(nil), model.ParticipatingCalendarIDs...),
		DestinationCalendarID:    model.DestinationCalendarID,
		LocationKind:             application.LocationKind(model.LocationKind),
		RequiresConfirmation:     model.RequiresConfirmation,
		CustomQuestions:          questions,
		Active:                   model.Active,
		CreatedAt:                model.CreatedAt,
		UpdatedAt:                model.UpdatedAt,
	}
}

func toPersistenceEventType(eventType application.EventType) persistence.EventType {
	hours := make([]persistence.WorkingHours, 0, len(eventType.WorkingHours))
	for _, h := range eventType.WorkingHours {
		hours = append(hours, persistence.WorkingHours{DayOfWeek: h.DayOfWeek, StartLocal: h.StartLocal, EndLocal: h.EndLocal})
	}
	questions := make([]persistence.CustomQuestion, 0, len(eventType.CustomQuestions))
	for _, q := range eventType.CustomQuestions {
		questions = append(questions, persistence.CustomQuestion{
			Kind:     string(q.Kind),
			Label:    q.Label,
			Required: q.Required,
			Options:  append([]string(nil), q.Options...),
		})
	}
	return persistence.EventType{
		ID:                       eventType.ID,
		HostID:                   eventType.HostID,
		Slug:                     eventType.Slug,
		Title:                    eventType.Title,
		DurationMin:              eventType.DurationMin,
		BufferBeforeMin:          eventType.BufferBeforeMin,
		BufferAfterMin:           eventType.BufferAfterMin,
		MinimumNoticeMin:         eventType.MinimumNoticeMin,
		SchedulingWindowDays:     eventType.SchedulingWindowDays,
		SlotIntervalMin:          eventType.SlotIntervalMin,
		WorkingHours:             hours,
		ParticipatingCalendarIDs: append([]string(nil), eventType.ParticipatingCalendarIDs...),
		DestinationCalendarID:    eventType.DestinationCalendarID,
		LocationKind:             string(eventType.LocationKind),
		RequiresConfirmation:     eventType.RequiresConfirmation,
		CustomQuestions:          questions,
		Active:                   eventType.Active,
		CreatedAt:                eventType.CreatedAt,
		UpdatedAt:                eventType.UpdatedAt,
	}
}

// --- Account adapter --------------------------------------------------

type accountRepositoryAdapter struct {
	repo *sqlite.AccountRepository
}

func newAccountRepositoryAdapter(repo *sqlite.AccountRepository) *accountRepositoryAdapter {
	return &accountRepositoryAdapter{repo: repo}
}

func (a *accountRepositoryAdapter) CreateAccount(ctx context.Context, account application.ConnectedAccount) error {
	return mapPersistenceError(a.repo.CreateAccount(ctx, toPersistenceAccount(account)))
}

func (a *accountRepositoryAdapter) UpdateAccount(ctx context.Context, account application.ConnectedAccount) error {
	return mapPersistenceError(a.repo.UpdateAccount(ctx, toPersistenceAccount(account)))
}

func (a *accountRepositoryAdapter) GetAccount(ctx context.Context, id string) (application.ConnectedAccount, error) {
	stored, err := a.repo.GetAccount(ctx, id)
	if err != nil {
		return application.ConnectedAccount{}, mapPersistenceError(err)
	}
	return toApplicationAccount(stored), nil
}

func (a *accountRepositoryAdapter) ListAccountsForHost(ctx context.Context, hostID string) ([]application.ConnectedAccount, error) {
	models, err := a.repo.ListAccountsForHost(ctx, hostID)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	accounts := make([]application.ConnectedAccount, 0, len(models))
	for _, model := range models {
		accounts = append(accounts, toApplicationAccount(model))
	}
	return accounts, nil
}

func (a *accountRepositoryAdapter) DeleteAccount(ctx context.Context, id string) error {
	return mapPersistenceError(a.repo.DeleteAccount(ctx, id))
}

func toApplicationAccount(model persistence.ConnectedAccount) application.ConnectedAccount {
	return application.ConnectedAccount{
		ID:               model.ID,
		HostID:           model.HostID,
		Provider:         application.AccountProvider(model.Provider),
		ExternalIdentity: model.ExternalIdentity,
		EncryptedTokens:  append([]byte(nil), model.EncryptedTokens...),
		Scopes:           append([]string(nil), model.Scopes...),
		Valid:            model.Valid,
		LastSyncAt:       cloneTime(model.LastSyncAt),
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

func toPersistenceAccount(account application.ConnectedAccount) persistence.ConnectedAccount {
	return persistence.ConnectedAccount{
		ID:               account.ID,
		HostID:           account.HostID,
		Provider:         string(account.Provider),
		ExternalIdentity: account.ExternalIdentity,
		EncryptedTokens:  append([]byte(nil), account.EncryptedTokens...),
		Scopes:           append([]string(nil), account.Scopes...),
		Valid:            account.Valid,
		LastSyncAt:       cloneTime(account.LastSyncAt),
		CreatedAt:        account.CreatedAt,
		UpdatedAt:        account.UpdatedAt,
	}
}

// accountStoreAdapter satisfies calendarsync.AccountStore, the narrower
// surface the token refresher depends on.
type accountStoreAdapter struct {
	repo *sqlite.AccountRepository
}

func newAccountStoreAdapter(repo *sqlite.AccountRepository) *accountStoreAdapter {
	return &accountStoreAdapter{repo: repo}
}

func (a *accountStoreAdapter) GetAccount(ctx context.Context, id string) (application.ConnectedAccount, error) {
	stored, err := a.repo.GetAccount(ctx, id)
	if err != nil {
		return application.ConnectedAccount{}, mapPersistenceError(err)
	}
	return toApplicationAccount(stored), nil
}

func (a *accountStoreAdapter) UpdateAccount(ctx context.Context, account application.ConnectedAccount) error {
	return mapPersistenceError(a.repo.UpdateAccount(ctx, toPersistenceAccount(account)))
}

// --- Calendar adapter ---------------------------------------------------

type calendarRepositoryAdapter struct {
	repo *sqlite.CalendarRepository
}

func newCalendarRepositoryAdapter(repo *sqlite.CalendarRepository) *calendarRepositoryAdapter {
	return &calendarRepositoryAdapter{repo: repo}
}

func (a *calendarRepositoryAdapter) CreateCalendar(ctx context.Context, calendar application.Calendar) error {
	return mapPersistenceError(a.repo.CreateCalendar(ctx, toPersistenceCalendar(calendar)))
}

func (a *calendarRepositoryAdapter) UpdateCalendar(ctx context.Context, calendar application.Calendar) error {
	return mapPersistenceError(a.repo.UpdateCalendar(ctx, toPersistenceCalendar(calendar)))
}

func (a *calendarRepositoryAdapter) GetCalendar(ctx context.Context, id string) (application.Calendar, error) {
	stored, err := a.repo.GetCalendar(ctx, id)
	if err != nil {
		return application.Calendar{}, mapPersistenceError(err)
	}
	return toApplicationCalendar(stored), nil
}

func (a *calendarRepositoryAdapter) ListCalendarsForAccount(ctx context.Context, accountID string) ([]application.Calendar, error) {
	models, err := a.repo.ListCalendarsForAccount(ctx, accountID)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	calendars := make([]application.Calendar, 0, len(models))
	for _, model := range models {
		calendars = append(calendars, toApplicationCalendar(model))
	}
	return calendars, nil
}

func (a *calendarRepositoryAdapter) ListSelectedCalendarsForHost(ctx context.Context, hostID string, calendarIDs []string) ([]application.Calendar, error) {
	models, err := a.repo.ListSelectedCalendarsForHost(ctx, hostID, calendarIDs)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	calendars := make([]application.Calendar, 0, len(models))
	for _, model := range models {
		calendars = append(calendars, toApplicationCalendar(model))
	}
	return calendars, nil
}

func (a *calendarRepositoryAdapter) DeleteCalendar(ctx context.Context, id string) error {
	return mapPersistenceError(a.repo.DeleteCalendar(ctx, id))
}

func toApplicationCalendar(model persistence.Calendar) application.Calendar {
	return application.Calendar{
		ID:                    model.ID,
		AccountID:             model.AccountID,
		ExternalCalendarID:    model.ExternalCalendarID,
		Writable:              model.Writable,
		SelectedForBusy:       model.SelectedForBusy,
		IsDestinationEligible: model.IsDestinationEligible,
		CreatedAt:             model.CreatedAt,
		UpdatedAt:             model.UpdatedAt,
	}
}

func toPersistenceCalendar(calendar application.Calendar) persistence.Calendar {
	return persistence.Calendar{
		ID:                    calendar.ID,
		AccountID:             calendar.AccountID,
		ExternalCalendarID:    calendar.ExternalCalendarID,
		Writable:              calendar.Writable,
		SelectedForBusy:       calendar.SelectedForBusy,
		IsDestinationEligible: calendar.IsDestinationEligible,
		CreatedAt:             calendar.CreatedAt,
		UpdatedAt:             calendar.UpdatedAt,
	}
}

// --- Booking adapter -----------------------------------------------------

type bookingRepositoryAdapter struct {
	repo *sqlite.BookingRepository
}

func newBookingRepositoryAdapter(repo *sqlite.BookingRepository) *bookingRepositoryAdapter {
	return &bookingRepositoryAdapter{repo: repo}
}

func (a *bookingRepositoryAdapter) CreateBooking(ctx context.Context, booking application.Booking) (application.Booking, error) {
	stored, err := a.repo.CreateBooking(ctx, toPersistenceBooking(booking))
	if err != nil {
		return application.Booking{}, mapBookingError(err)
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingRepositoryAdapter) UpdateBooking(ctx context.Context, booking application.Booking) (application.Booking, error) {
	stored, err := a.repo.UpdateBooking(ctx, toPersistenceBooking(booking))
	if err != nil {
		return application.Booking{}, mapBookingError(err)
	}
	return toApplicationBooking(stored), nil
}

// mapBookingError translates the ledger's uniqueness-violation error into
// ErrSlotTaken, per BookingRepository's documented contract: the
// (host, start, end) and idempotencyKey constraints both surface as a
// bookability conflict to BookingService, not a generic "already exists".
func mapBookingError(err error) error {
	if errors.Is(err, persistence.ErrDuplicate) {
		return application.ErrSlotTaken
	}
	return mapPersistenceError(err)
}

func (a *bookingRepositoryAdapter) GetBookingByUID(ctx context.Context, uid string) (application.Booking, error) {
	stored, err := a.repo.GetBookingByUID(ctx, uid)
	if err != nil {
		return application.Booking{}, mapPersistenceError(err)
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingRepositoryAdapter) GetBookingByIdempotencyKey(ctx context.Context, key string) (application.Booking, error) {
	stored, err := a.repo.GetBookingByIdempotencyKey(ctx, key)
	if err != nil {
		return application.Booking{}, mapPersistenceError(err)
	}
	return toApplicationBooking(stored), nil
}

// bookingOverlapStoreAdapter satisfies application.BookingOverlapStore, the
// narrower read surface the availability engine depends on.
type bookingOverlapStoreAdapter struct {
	repo *sqlite.BookingRepository
}

func newBookingOverlapStoreAdapter(repo *sqlite.BookingRepository) *bookingOverlapStoreAdapter {
	return &bookingOverlapStoreAdapter{repo: repo}
}

func (a *bookingOverlapStoreAdapter) ListBookingsOverlapping(ctx context.Context, filter application.BookingOverlapFilter) ([]application.Booking, error) {
	models, err := a.repo.ListBookingsOverlapping(ctx, persistence.BookingFilter{
		HostID:        filter.HostID,
		StatusIn:      append([]string(nil), filter.StatusIn...),
		OverlapsStart: filter.OverlapsStart,
		OverlapsEnd:   filter.OverlapsEnd,
	})
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	bookings := make([]application.Booking, 0, len(models))
	for _, model := range models {
		bookings = append(bookings, toApplicationBooking(model))
	}
	return bookings, nil
}

func toApplicationBooking(model persistence.Booking) application.Booking {
	return application.Booking{
		ID:            model.ID,
		UID:           model.UID,
		HostID:        model.HostID,
		EventTypeID:   model.EventTypeID,
		Start:         model.Start,
		End:           model.End,
		GuestTimezone: model.GuestTimezone,
		Guest: application.GuestIdentity{
			Name:    model.GuestName,
			Email:   model.GuestEmail,
			Phone:   cloneString(model.GuestPhone),
			Company: cloneString(model.GuestCompany),
			Notes:   cloneString(model.GuestNotes),
		},
		CustomResponses:  cloneStringMap(model.CustomResponses),
		IdempotencyKey:   cloneString(model.IdempotencyKey),
		Status:           application.BookingStatus(model.Status),
		ExternalEventRef: cloneString(model.ExternalEventRef),
		MeetingURL:       cloneString(model.MeetingURL),
		PriorUID:         cloneString(model.PriorUID),
		CancelledAt:      cloneTime(model.CancelledAt),
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

func toPersistenceBooking(booking application.Booking) persistence.Booking {
	return persistence.Booking{
		ID:               booking.ID,
		UID:              booking.UID,
		HostID:           booking.HostID,
		EventTypeID:      booking.EventTypeID,
		Start:            booking.Start,
		End:              booking.End,
		GuestTimezone:    booking.GuestTimezone,
		GuestName:        booking.Guest.Name,
		GuestEmail:       booking.Guest.Email,
		GuestPhone:       cloneString(booking.Guest.Phone),
		GuestCompany:     cloneString(booking.Guest.Company),
		GuestNotes:       cloneString(booking.Guest.Notes),
		CustomResponses:  cloneStringMap(booking.CustomResponses),
		IdempotencyKey:   cloneString(booking.IdempotencyKey),
		Status:           string(booking.Status),
		ExternalEventRef: cloneString(booking.ExternalEventRef),
		MeetingURL:       cloneString(booking.MeetingURL),
		PriorUID:         cloneString(booking.PriorUID),
		CancelledAt:      cloneTime(booking.CancelledAt),
		CreatedAt:        booking.CreatedAt,
		UpdatedAt:        booking.UpdatedAt,
	}
}

// --- shared helpers --------------------------------------------------

func mapPersistenceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return application.ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return application.ErrAlreadyExists
	case errors.Is(err, persistence.ErrConstraintViolation), errors.Is(err, persistence.ErrForeignKeyViolation):
		return err
	default:
		return err
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	clone := make(map[string]string, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}
