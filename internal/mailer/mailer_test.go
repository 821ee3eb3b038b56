package mailer

import (
	"context"
	"testing"

	"github.com/example/meetsched/internal/application"
)

func TestLoggingMailer_SendNeverErrors(t *testing.T) {
	m := NewLoggingMailer(nil)
	notification := application.BookingNotification{
		Template: "booking_confirmed",
		Host:     application.Host{Email: "host@example.com", DisplayName: "Host"},
		Booking: application.Booking{
			UID:   "uid-1",
			Guest: application.GuestIdentity{Name: "Guest", Email: "guest@example.com"},
		},
	}
	if err := m.Send(context.Background(), notification); err != nil {
		t.Fatalf("Send should never fail, got %v", err)
	}
}

func TestRecipients_IncludesHostAndGuestOnly(t *testing.T) {
	notification := application.BookingNotification{
		Host:    application.Host{Email: "host@example.com"},
		Booking: application.Booking{Guest: application.GuestIdentity{Email: "guest@example.com"}},
	}
	recipients := Recipients(notification)
	if len(recipients) != 2 {
		t.Fatalf("expected 2 recipients, got %v", recipients)
	}
}

func TestRecipients_OmitsMissingAddresses(t *testing.T) {
	notification := application.BookingNotification{}
	if recipients := Recipients(notification); len(recipients) != 0 {
		t.Fatalf("expected no recipients, got %v", recipients)
	}
}
