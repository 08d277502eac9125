package model

import "time"

type EventKind string

const (
	EventCreated  EventKind = "CREATED"
	EventDeleted  EventKind = "DELETED"
	EventModified EventKind = "MODIFIED"
)

// ChangeEvent is a membership change observed in a source tree.
type ChangeEvent struct {
	Kind      EventKind
	Path      string
	Timestamp time.Time
}

// Membership reports whether the event adds or removes an entry.
// Modified events never require a new pass.
func (e ChangeEvent) Membership() bool {
	return e.Kind == EventCreated || e.Kind == EventDeleted
}
