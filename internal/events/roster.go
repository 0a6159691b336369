// Package events defines the roster event payloads shared by the API producer and the audit consumer.
package events

import "time"

// Version is stamped on every emitted event.
const Version = "v1"

// Event kinds carried in the event_type header.
const (
	KindSignedUp     = "roster.signed_up"
	KindUnregistered = "roster.unregistered"
)

// RosterChanged is emitted after a student joins or leaves an activity.
type RosterChanged struct {
	EventID    string    `json:"event_id"`
	Kind       string    `json:"kind"`
	Activity   string    `json:"activity"`
	Email      string    `json:"email"`
	RosterSize int       `json:"roster_size"`
	Capacity   int       `json:"capacity"`
	OccurredAt time.Time `json:"occurred_at"`
	Version    string    `json:"version"`
}
