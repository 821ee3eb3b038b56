package memory

import "github.com/example/meetsched/internal/persistence"

func cloneHost(host persistence.Host) persistence.Host {
	clone := host
	if host.LastFailedAt != nil {
		t := *host.LastFailedAt
		clone.LastFailedAt = &t
	}
	return clone
}

func cloneAccount(account persistence.ConnectedAccount) persistence.ConnectedAccount {
	clone := account
	if account.EncryptedTokens != nil {
		clone.EncryptedTokens = append([]byte(nil), account.EncryptedTokens...)
	}
	if account.Scopes != nil {
		clone.Scopes = append([]string(nil), account.Scopes...)
	}
	if account.LastSyncAt != nil {
		t := *account.LastSyncAt
		clone.LastSyncAt = &t
	}
	return clone
}

func cloneEventType(eventType persistence.EventType) persistence.EventType {
	clone := eventType
	if eventType.WorkingHours != nil {
		clone.WorkingHours = append([]persistence.WorkingHours(nil), eventType.WorkingHours...)
	}
	if eventType.ParticipatingCalendarIDs != nil {
		clone.ParticipatingCalendarIDs = append([]string(nil), eventType.ParticipatingCalendarIDs...)
	}
	if eventType.CustomQuestions != nil {
		clone.CustomQuestions = make([]persistence.CustomQuestion, len(eventType.CustomQuestions))
		for i, q := range eventType.CustomQuestions {
			cq := q
			if q.Options != nil {
				cq.Options = append([]string(nil), q.Options...)
			}
			clone.CustomQuestions[i] = cq
		}
	}
	return clone
}

func cloneBooking(booking persistence.Booking) persistence.Booking {
	clone := booking
	if booking.GuestPhone != nil {
		v := *booking.GuestPhone
		clone.GuestPhone = &v
	}
	if booking.GuestCompany != nil {
		v := *booking.GuestCompany
		clone.GuestCompany = &v
	}
	if booking.GuestNotes != nil {
		v := *booking.GuestNotes
		clone.GuestNotes = &v
	}
	if booking.IdempotencyKey != nil {
		v := *booking.IdempotencyKey
		clone.IdempotencyKey = &v
	}
	if booking.ExternalEventRef != nil {
		v := *booking.ExternalEventRef
		clone.ExternalEventRef = &v
	}
	if booking.MeetingURL != nil {
		v := *booking.MeetingURL
		clone.MeetingURL = &v
	}
	if booking.PriorUID != nil {
		v := *booking.PriorUID
		clone.PriorUID = &v
	}
	if booking.CancelledAt != nil {
		v := *booking.CancelledAt
		clone.CancelledAt = &v
	}
	if booking.CustomResponses != nil {
		clone.CustomResponses = make(map[string]string, len(booking.CustomResponses))
		for k, v := range booking.CustomResponses {
			clone.CustomResponses[k] = v
		}
	}
	return clone
}

func cloneSession(session persistence.Session) persistence.Session {
	clone := session
	if session.RevokedAt != nil {
		t := *session.RevokedAt
		clone.RevokedAt = &t
	}
	return clone
}
