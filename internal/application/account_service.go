package application

import (
	"context"
	"log/slog"
	"time"
)

// AccountRepository is the full CRUD surface AccountService depends on for
// connected external-calendar accounts.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account ConnectedAccount) error
	UpdateAccount(ctx context.Context, account ConnectedAccount) error
	GetAccount(ctx context.Context, id string) (ConnectedAccount, error)
	ListAccountsForHost(ctx context.Context, hostID string) ([]ConnectedAccount, error)
	DeleteAccount(ctx context.Context, id string) error
}

// CalendarRepository is the full CRUD surface AccountService depends on for
// calendars reconciled from connected accounts.
type CalendarRepository interface {
	CreateCalendar(ctx context.Context, calendar Calendar) error
	UpdateCalendar(ctx context.Context, calendar Calendar) error
	GetCalendar(ctx context.Context, id string) (Calendar, error)
	ListCalendarsForAccount(ctx context.Context, accountID string) ([]Calendar, error)
	DeleteCalendar(ctx context.Context, id string) error
}

// ConnectAccountParams captures the inputs recorded once an OAuth exchange
// has succeeded and the provider has returned tokens for the account.
type ConnectAccountParams struct {
	Provider         AccountProvider
	ExternalIdentity string
	EncryptedTokens  []byte
	Scopes           []string
}

// DiscoveredCalendar describes one calendar the provider reported during
// account reconciliation.
type DiscoveredCalendar struct {
	ExternalCalendarID    string
	Writable              bool
	IsDestinationEligible bool
}

// AccountService implements the admin surface for connected calendar
// accounts and their reconciled calendars, generalizing the teacher's
// UserService CRUD shape to a two-resource, host-scoped admin surface.
type AccountService struct {
	accounts    AccountRepository
	calendars   CalendarRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAccountService constructs an AccountService.
func NewAccountService(accounts AccountRepository, calendars CalendarRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AccountService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AccountService{accounts: accounts, calendars: calendars, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *AccountService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AccountService", operation, attrs...)
}

// Connect records a newly linked external calendar account for the
// principal's host. EncryptedTokens is stored exactly as the caller passes
// it: POST /accounts forwards the request's encryptedTokens bytes
// unchanged, and this service neither seals nor opens them.
func (s *AccountService) Connect(ctx context.Context, principal Principal, params ConnectAccountParams) (account ConnectedAccount, err error) {
	logger := s.loggerWith(ctx, "Connect", "host_id", principal.HostID, "provider", params.Provider)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "account connect failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("account_id", account.ID).InfoContext(ctx, "account connected")
	}()

	if principal.HostID == "" {
		err = ErrUnauthorized
		return
	}
	verr := &ValidationError{}
	if params.ExternalIdentity == "" {
		verr.add("externalIdentity", "is required")
	}
	if len(params.EncryptedTokens) == 0 {
		verr.add("encryptedTokens", "is required")
	}
	switch params.Provider {
	case ProviderGoogle, ProviderMicrosoft, ProviderGeneric:
	default:
		verr.add("provider", "unrecognized value")
	}
	if verr.HasErrors() {
		err = verr
		return
	}

	now := s.now()
	candidate := ConnectedAccount{
		ID:               s.idGenerator(),
		HostID:           principal.HostID,
		Provider:         params.Provider,
		ExternalIdentity: params.ExternalIdentity,
		EncryptedTokens:  params.EncryptedTokens,
		Scopes:           params.Scopes,
		Valid:            true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err = s.accounts.CreateAccount(ctx, candidate); err != nil {
		return
	}
	account, err = s.accounts.GetAccount(ctx, candidate.ID)
	return
}

// ReconcileCalendars merges the calendars the provider reported into the
// set known for an account, creating new rows and updating existing ones by
// external id. It deletes no calendar, including one the provider no longer
// lists, so a transient listing gap never silently disables an event type.
func (s *AccountService) ReconcileCalendars(ctx context.Context, accountID string, discovered []DiscoveredCalendar) (calendars []Calendar, err error) {
	logger := s.loggerWith(ctx, "ReconcileCalendars", "account_id", accountID, "discovered_count", len(discovered))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "calendar reconcile failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("calendar_count", len(calendars)).InfoContext(ctx, "calendars reconciled")
	}()

	var existing []Calendar
	existing, err = s.calendars.ListCalendarsForAccount(ctx, accountID)
	if err != nil {
		return
	}
	byExternalID := make(map[string]Calendar, len(existing))
	for _, c := range existing {
		byExternalID[c.ExternalCalendarID] = c
	}

	now := s.now()
	for _, d := range discovered {
		if current, ok := byExternalID[d.ExternalCalendarID]; ok {
			current.Writable = d.Writable
			current.IsDestinationEligible = d.IsDestinationEligible
			current.UpdatedAt = now
			if err = s.calendars.UpdateCalendar(ctx, current); err != nil {
				return
			}
			continue
		}
		fresh := Calendar{
			ID:                    s.idGenerator(),
			AccountID:             accountID,
			ExternalCalendarID:    d.ExternalCalendarID,
			Writable:              d.Writable,
			SelectedForBusy:       false,
			IsDestinationEligible: d.IsDestinationEligible,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		if err = s.calendars.CreateCalendar(ctx, fresh); err != nil {
			return
		}
	}

	calendars, err = s.calendars.ListCalendarsForAccount(ctx, accountID)
	return
}

// SetCalendarSelection toggles whether a calendar participates in busy
// aggregation, verifying the calendar belongs to an account owned by the
// principal's host before any other lookup runs.
func (s *AccountService) SetCalendarSelection(ctx context.Context, principal Principal, calendarID string, selected bool) (calendar Calendar, err error) {
	logger := s.loggerWith(ctx, "SetCalendarSelection", "host_id", principal.HostID, "calendar_id", calendarID, "selected", selected)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "calendar selection update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "calendar selection updated")
	}()

	var existing Calendar
	existing, err = s.calendars.GetCalendar(ctx, calendarID)
	if err != nil {
		return
	}
	var owner ConnectedAccount
	owner, err = s.accounts.GetAccount(ctx, existing.AccountID)
	if err != nil {
		return
	}
	if owner.HostID != principal.HostID {
		err = ErrUnauthorized
		return
	}

	existing.SelectedForBusy = selected
	existing.UpdatedAt = s.now()
	if err = s.calendars.UpdateCalendar(ctx, existing); err != nil {
		return
	}
	calendar, err = s.calendars.GetCalendar(ctx, calendarID)
	return
}

// ListAccounts returns every connected account owned by the principal's
// host.
func (s *AccountService) ListAccounts(ctx context.Context, principal Principal) ([]ConnectedAccount, error) {
	if principal.HostID == "" {
		return nil, ErrUnauthorized
	}
	return s.accounts.ListAccountsForHost(ctx, principal.HostID)
}

// ListCalendars returns every calendar reconciled for one connected
// account, after verifying ownership.
func (s *AccountService) ListCalendars(ctx context.Context, principal Principal, accountID string) ([]Calendar, error) {
	account, err := s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.HostID != principal.HostID {
		return nil, ErrUnauthorized
	}
	return s.calendars.ListCalendarsForAccount(ctx, accountID)
}

// Disconnect removes a connected account and every calendar reconciled
// from it. Event types that reference one of those calendars keep their
// stale ids; the availability engine simply resolves an empty calendar
// set for them on the next lookup and callers should resave those event
// types with a present calendar list. Cascading event-type edits isn't
// this service's concern.
func (s *AccountService) Disconnect(ctx context.Context, principal Principal, accountID string) (err error) {
	logger := s.loggerWith(ctx, "Disconnect", "host_id", principal.HostID, "account_id", accountID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "account disconnect failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "account disconnected")
	}()

	var account ConnectedAccount
	account, err = s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return
	}
	if account.HostID != principal.HostID {
		err = ErrUnauthorized
		return
	}

	var calendars []Calendar
	calendars, err = s.calendars.ListCalendarsForAccount(ctx, accountID)
	if err != nil {
		return
	}
	for _, c := range calendars {
		if err = s.calendars.DeleteCalendar(ctx, c.ID); err != nil {
			return
		}
	}
	err = s.accounts.DeleteAccount(ctx, accountID)
	return
}
