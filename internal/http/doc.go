// Package http provides HTTP handlers and middleware for the scheduler API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token for a host. Body: {"email","password"}.
//     Response: {"token","expires_at"} with the token also surfaced via the
//     `X-Session-Token` header and a `session_token` cookie.
//   - DELETE /sessions/current: revokes the current session token extracted from
//     the Authorization header or session cookie. Returns 204 No Content.
//   - GET /availability: public slot listing. Query params eventTypeId, startDate,
//     endDate (RFC3339), timezone (IANA). Response groups bookable slots by
//     guest-local date.
//   - POST /bookings: public booking commit. Body matches createBookingRequest in
//     booking_handler.go. Idempotent when idempotencyKey is supplied: replaying the
//     same key returns 200 with the prior booking instead of 201.
//   - GET /bookings/{uid}: public booking view, stripped of host-private fields.
//   - PATCH /bookings/{uid}, DELETE /bookings/{uid}: reschedule/cancel a booking.
//     Authorized by either a host session or a guest email matching the booking.
//   - GET /event-types, POST /event-types: list/create event types for the
//     authenticated host.
//   - GET /event-types/{id}: public, used to render a booking page.
//   - PUT /event-types/{id}, DELETE /event-types/{id}: update or deactivate an
//     event type; requires a host session and ownership.
//   - GET /accounts, POST /accounts, DELETE /accounts/{id}: manage connected
//     calendar accounts for the authenticated host.
//   - GET /accounts/{id}/calendars: list calendars discovered on a connected
//     account.
//   - PUT /calendars/{id}/selection: toggle whether a calendar is aggregated for
//     busy-time computation.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
