// Package core holds the board's domain model: notes, persisted records,
// events, the error taxonomy and the storage ports implemented by adapters.
package core

import (
	"fmt"
	"time"
)

// Point is a coordinate pair. Notes use world space; pointer input uses
// screen space.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Size is a width/height pair in world units.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// EventType represents the type of change on the board.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
	// EventReload is emitted once per reconciliation with an empty ID.
	EventReload EventType = "RELOAD"
)

// Event represents a change on the board.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

// NewEvent stamps an event with the current time.
func NewEvent(t EventType, id string) Event {
	return Event{Type: t, ID: id, Timestamp: time.Now().Unix()}
}

// String implements fmt.Stringer (and lifecycle.Event).
func (e Event) String() string {
	if e.ID == "" {
		return string(e.Type)
	}
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}
