package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/meetsched/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

func (f *ServiceFactory) idFunc(override func() string) func() string {
	if override != nil {
		return override
	}
	return f.IDGenerator.NextFunc()
}

func (f *ServiceFactory) nowFunc(override func() time.Time) func() time.Time {
	if override != nil {
		return override
	}
	return f.Clock.NowFunc()
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Credentials    application.CredentialStore
	Sessions       application.SessionRepository
	PasswordVerify application.PasswordVerifier
	TokenGenerator func() string
	Now            func() time.Time
	SessionTTL     time.Duration
	Logger         *slog.Logger
}

// NewAuthService builds an auth service using the supplied dependencies,
// falling back to the factory's deterministic clock and ID generator.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	sessionTTL := deps.SessionTTL
	if sessionTTL == 0 {
		sessionTTL = time.Hour
	}
	return application.NewAuthServiceWithLogger(
		deps.Credentials,
		deps.Sessions,
		deps.PasswordVerify,
		f.idFunc(deps.TokenGenerator),
		f.nowFunc(deps.Now),
		sessionTTL,
		deps.Logger,
	)
}

// EventTypeServiceDeps captures dependencies for constructing an event type
// service.
type EventTypeServiceDeps struct {
	EventTypes  application.EventTypeRepository
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewEventTypeService builds an event type service using the supplied
// dependencies.
func (f *ServiceFactory) NewEventTypeService(deps EventTypeServiceDeps) *application.EventTypeService {
	return application.NewEventTypeService(
		deps.EventTypes,
		f.idFunc(deps.IDGenerator),
		f.nowFunc(deps.Now),
		deps.Logger,
	)
}

// AccountServiceDeps captures dependencies for constructing an account
// service.
type AccountServiceDeps struct {
	Accounts    application.AccountRepository
	Calendars   application.CalendarRepository
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewAccountService builds an account service using the supplied
// dependencies.
func (f *ServiceFactory) NewAccountService(deps AccountServiceDeps) *application.AccountService {
	return application.NewAccountService(
		deps.Accounts,
		deps.Calendars,
		f.idFunc(deps.IDGenerator),
		f.nowFunc(deps.Now),
		deps.Logger,
	)
}

// AvailabilityEngineDeps captures dependencies for constructing an
// availability engine.
type AvailabilityEngineDeps struct {
	EventTypes application.EventTypeStore
	Hosts      application.HostTimezoneStore
	Calendars  application.CalendarStore
	Bookings   application.BookingOverlapStore
	Busy       application.BusyProvider
	Now        func() time.Time
	Logger     *slog.Logger
}

// NewAvailabilityEngine builds an availability engine using the supplied
// dependencies.
func (f *ServiceFactory) NewAvailabilityEngine(deps AvailabilityEngineDeps) *application.AvailabilityEngine {
	return application.NewAvailabilityEngine(
		deps.EventTypes,
		deps.Hosts,
		deps.Calendars,
		deps.Bookings,
		deps.Busy,
		f.nowFunc(deps.Now),
		deps.Logger,
	)
}

// BookingServiceDeps captures dependencies for constructing a booking
// service.
type BookingServiceDeps struct {
	Bookings     application.BookingRepository
	EventTypes   application.EventTypeStore
	Hosts        application.HostTimezoneStore
	Calendars    application.CalendarLookup
	Availability application.SlotChecker
	External     application.ExternalEventWriter
	Mailer       application.Mailer
	IDGenerator  func() string
	Now          func() time.Time
	Logger       *slog.Logger
}

// NewBookingService builds a booking service using the supplied
// dependencies.
func (f *ServiceFactory) NewBookingService(deps BookingServiceDeps) *application.BookingService {
	return application.NewBookingService(
		deps.Bookings,
		deps.EventTypes,
		deps.Hosts,
		deps.Calendars,
		deps.Availability,
		deps.External,
		deps.Mailer,
		f.idFunc(deps.IDGenerator),
		f.nowFunc(deps.Now),
		deps.Logger,
	)
}
