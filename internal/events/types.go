package events

import "time"

// Collection names carried on change events. They mirror the persisted
// collection keys, so feed subscribers and stores agree on naming.
const (
	CollectionDoctors       = "doctors"
	CollectionAppointments  = "appointments"
	CollectionProducts      = "products"
	CollectionSessions      = "sessions"
	CollectionNotifications = "notifications"
)

// ChangeEvent signals that something changed in a named collection. It
// deliberately carries no payload diff; consumers are expected to
// invalidate and refetch.
type ChangeEvent struct {
	EventID    string            `json:"event_id"`
	Collection string            `json:"collection"`
	Keys       map[string]string `json:"keys,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Matches reports whether the event falls inside the subscriber's filter.
// A nil filter matches everything; an event without keys is a broadcast
// and matches every filter; otherwise every filter entry must be present
// and equal on the event.
func (e ChangeEvent) Matches(filter map[string]string) bool {
	if len(filter) == 0 || len(e.Keys) == 0 {
		return true
	}
	for k, v := range filter {
		if e.Keys[k] != v {
			return false
		}
	}
	return true
}

// NotificationEmailV1 is the queue payload for asynchronous email dispatch.
type NotificationEmailV1 struct {
	EventID     string    `json:"event_id"`
	To          string    `json:"to"`
	ToName      string    `json:"to_name,omitempty"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	HTML        string    `json:"html,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// Session change actions carried in ChangeEvent.Keys["action"] on the
// sessions collection.
const (
	SessionSignedIn  = "signed_in"
	SessionSignedOut = "signed_out"
	SessionRevoked   = "revoked"
)
