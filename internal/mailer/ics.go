package mailer

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/meetsched/internal/application"
)

const icsTimeFormat = "20060102T150405Z"

// BuildICS renders a minimal RFC 5545 VEVENT for a booking, whose UID
// equals the booking's uid and whose ORGANIZER/ATTENDEE lines reflect the
// host and guest, per spec.md §6's Mailer attachment contract. Grounded on
// the retrieved calendar-sync example models' UID/Attendee/Organizer
// shapes, reduced to the single event this repository ever emails.
func BuildICS(notification application.BookingNotification) []byte {
	booking := notification.Booking
	host := notification.Host

	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\n")
	b.WriteString("VERSION:2.0\r\n")
	b.WriteString("PRODID:-//meetsched//booking//EN\r\n")
	b.WriteString("BEGIN:VEVENT\r\n")
	fmt.Fprintf(&b, "UID:%s\r\n", booking.UID)
	fmt.Fprintf(&b, "DTSTAMP:%s\r\n", timestamp())
	fmt.Fprintf(&b, "DTSTART:%s\r\n", booking.Start.UTC().Format(icsTimeFormat))
	fmt.Fprintf(&b, "DTEND:%s\r\n", booking.End.UTC().Format(icsTimeFormat))
	if host.Email != "" {
		fmt.Fprintf(&b, "ORGANIZER;CN=%s:mailto:%s\r\n", icsEscape(host.DisplayName), host.Email)
	}
	if booking.Guest.Email != "" {
		fmt.Fprintf(&b, "ATTENDEE;CN=%s;RSVP=TRUE:mailto:%s\r\n", icsEscape(booking.Guest.Name), booking.Guest.Email)
	}
	fmt.Fprintf(&b, "SUMMARY:%s\r\n", icsEscape(fmt.Sprintf("Meeting with %s", booking.Guest.Name)))
	b.WriteString("END:VEVENT\r\n")
	b.WriteString("END:VCALENDAR\r\n")

	return []byte(b.String())
}

func icsEscape(s string) string {
	replacer := strings.NewReplacer(",", "\\,", ";", "\\;", "\n", "\\n")
	return replacer.Replace(s)
}

// timestamp is a seam so tests can be deterministic about DTSTAMP without
// this package depending on a wall clock injection for a cosmetic field.
var timestamp = func() string {
	return time.Now().UTC().Format(icsTimeFormat)
}
