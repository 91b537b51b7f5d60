package models

import "time"

// Occurrence is one concrete, dated instance of a calendar event within
// a materialized window. Occurrences are derived fresh on every
// materialization and never persisted; their only identity is the
// (event id, start) pair.
type Occurrence struct {
	EventID  string    `json:"event_id"`
	Kind     EventKind `json:"kind"`
	Title    string    `json:"title"`
	Color    string    `json:"color"`
	Location string    `json:"location,omitempty"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	// Meeting is the index of the section meeting pattern that produced
	// a course occurrence. Always 0 for custom events.
	Meeting int `json:"meeting"`
	// Index is the position within the event's recurrence sequence.
	Index int `json:"index"`
}
