package surface

import "fmt"

// EventKind distinguishes tracker notifications.
type EventKind string

const (
	EventAdded   EventKind = "added"
	EventUpdated EventKind = "updated"
	EventRemoved EventKind = "removed"
)

// Event is a single tracker notification. Removed events only carry the ID.
type Event struct {
	Kind    EventKind `json:"kind"`
	Surface Surface   `json:"surface"`
}

// Frame batches the notifications of one tracking frame.
type Frame struct {
	Added   []Surface `json:"added,omitempty"`
	Updated []Surface `json:"updated,omitempty"`
	Removed []ID      `json:"removed,omitempty"`
}

// IsEmpty reports whether the frame carries no notifications.
func (f Frame) IsEmpty() bool {
	return len(f.Added) == 0 && len(f.Updated) == 0 && len(f.Removed) == 0
}

// Events flattens the frame in delivery order: added, updated, removed.
func (f Frame) Events() []Event {
	events := make([]Event, 0, len(f.Added)+len(f.Updated)+len(f.Removed))
	for _, s := range f.Added {
		events = append(events, Event{Kind: EventAdded, Surface: s})
	}
	for _, s := range f.Updated {
		events = append(events, Event{Kind: EventUpdated, Surface: s})
	}
	for _, id := range f.Removed {
		events = append(events, Event{Kind: EventRemoved, Surface: Surface{ID: id}})
	}
	return events
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Kind, e.Surface.ID)
}
