package http

import (
	"context"

	"github.com/example/meetsched/internal/application"
)

type contextKey string

const (
	principalContextKey  contextKey = "principal"
	eventTypeIDContextKey contextKey = "event_type_id"
	bookingUIDContextKey contextKey = "booking_uid"
	accountIDContextKey  contextKey = "account_id"
	calendarIDContextKey contextKey = "calendar_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithEventTypeID injects the event type identifier resolved from the request path.
func ContextWithEventTypeID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, eventTypeIDContextKey, id)
}

// EventTypeIDFromContext extracts an event type identifier previously associated with the context.
func EventTypeIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(eventTypeIDContextKey).(string)
	return id, ok
}

// ContextWithBookingUID injects the booking uid resolved from the request path.
func ContextWithBookingUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, bookingUIDContextKey, uid)
}

// BookingUIDFromContext extracts a booking uid previously associated with the context.
func BookingUIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(bookingUIDContextKey).(string)
	return uid, ok
}

// ContextWithAccountID injects the connected account identifier resolved from the request path.
func ContextWithAccountID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, accountIDContextKey, id)
}

// AccountIDFromContext extracts a connected account identifier previously associated with the context.
func AccountIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(accountIDContextKey).(string)
	return id, ok
}

// ContextWithCalendarID injects the calendar identifier resolved from the request path.
func ContextWithCalendarID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, calendarIDContextKey, id)
}

// CalendarIDFromContext extracts a calendar identifier previously associated with the context.
func CalendarIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(calendarIDContextKey).(string)
	return id, ok
}
