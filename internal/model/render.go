package model

import "time"

// RenderStatus is the lifecycle state of a render job.
type RenderStatus string

const (
	RenderQueued    RenderStatus = "queued"
	RenderRunning   RenderStatus = "running"
	RenderCompleted RenderStatus = "completed"
	RenderFailed    RenderStatus = "failed"
)

// RenderOptions controls how a report is rendered to video or to a
// single frame. Zero values are filled with server defaults.
type RenderOptions struct {
	// FPS is the output video framerate.
	FPS int `json:"fps"`
	// DurationSec is the output video length; the report timeline is
	// compressed or stretched to fit it.
	DurationSec int `json:"duration_sec"`
	Width       int `json:"width"`
	Height      int `json:"height"`
	// FadeMS is how long an event highlight stays visible.
	FadeMS int64 `json:"fade_ms"`
	// AllSnitches widens the view to every snitch in the database
	// instead of just the ones with events.
	AllSnitches bool `json:"all_snitches"`
	// Tiles draws the terrain tile layer under everything else.
	Tiles bool `json:"tiles"`
}

// RenderJob is an asynchronous video render of a report.
type RenderJob struct {
	ID       string        `json:"id"`
	ReportID string        `json:"report_id"`
	Status   RenderStatus  `json:"status"`
	Options  RenderOptions `json:"options"`
	// VideoKey is the object storage key of the finished video.
	VideoKey string `json:"video_key,omitempty"`
	// VideoURL is a presigned download URL, filled on read.
	VideoURL string `json:"video_url,omitempty"`
	// Error holds the failure reason for failed jobs.
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
