package model

import "time"

// EventKind classifies what a snitch observed.
type EventKind string

const (
	// EventPing is a proximity hit ("X is at Y").
	EventPing EventKind = "ping"
	// EventLogin is a player logging in inside a snitch field.
	EventLogin EventKind = "login"
	// EventLogout is a player logging out inside a snitch field.
	EventLogout EventKind = "logout"
)

// Event is a single snitch observation on a report's timeline.
//
// X and Y are the horizontal world axes and Z is height, matching the
// top-down view the renderer draws. Minecraft reports height as Y, so
// the parser swaps the last two coordinates on ingest.
type Event struct {
	Kind       EventKind `json:"kind"`
	Username   string    `json:"username"`
	SnitchName string    `json:"snitch_name"`
	Group      string    `json:"group"`
	X          int       `json:"x"`
	Y          int       `json:"y"`
	Z          int       `json:"z"`
	// T is milliseconds since the earliest event in the report.
	T int64 `json:"t_ms"`
	// OccurredAt is the absolute wall-clock time of the event.
	OccurredAt time.Time `json:"occurred_at"`
}
