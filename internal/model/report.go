package model

import "time"

// Report is an ingested snitch log: the uploaded source files plus the
// parsed timeline's summary. The raw uploads stay in object storage
// under the recorded keys; parsed events and snitches live in their own
// tables keyed by the report ID.
type Report struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	EventsKey   string    `json:"events_key"`
	SnitchDBKey string    `json:"snitch_db_key"`
	EventCount  int       `json:"event_count"`
	UserCount   int       `json:"user_count"`
	SnitchCount int       `json:"snitch_count"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	// DurationMS is EndAt-StartAt in milliseconds, the playback range.
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
