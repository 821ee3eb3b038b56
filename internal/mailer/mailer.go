// Package mailer implements the out-of-scope Mailer collaborator the core
// depends on only through application.Mailer's narrow Send contract. The
// only implementation this repository ships logs the notification instead
// of dispatching real email, per SPEC_FULL.md §4.8: a production mailer is
// explicitly not built.
package mailer

import (
	"context"
	"log/slog"

	"github.com/example/meetsched/internal/application"
)

// LoggingMailer satisfies application.Mailer by writing a structured log
// line instead of sending mail, the same no-op-with-visibility shape the
// teacher uses for collaborators it stubs rather than implements.
type LoggingMailer struct {
	logger *slog.Logger
}

// NewLoggingMailer constructs a LoggingMailer. A nil logger falls back to
// slog.Default().
func NewLoggingMailer(logger *slog.Logger) *LoggingMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingMailer{logger: logger}
}

// Send implements application.Mailer.
func (m *LoggingMailer) Send(ctx context.Context, notification application.BookingNotification) error {
	recipients := Recipients(notification)
	ics := BuildICS(notification)

	m.logger.InfoContext(ctx, "notification dispatched",
		"template", notification.Template,
		"booking_uid", notification.Booking.UID,
		"recipients", recipients,
		"attachment_bytes", len(ics),
	)
	return nil
}

// Recipients derives the host and guest email addresses a notification
// should be sent to.
func Recipients(notification application.BookingNotification) []string {
	recipients := make([]string, 0, 2)
	if notification.Host.Email != "" {
		recipients = append(recipients, notification.Host.Email)
	}
	if notification.Booking.Guest.Email != "" {
		recipients = append(recipients, notification.Booking.Guest.Email)
	}
	return recipients
}
