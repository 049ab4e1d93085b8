// Package render draws top-down frames of a snitch report's timeline:
// terrain tiles, snitch fields, fading event highlights and an info
// panel, composited onto an RGBA image that can be served as PNG or
// piped into a video encoder.
package render

import (
	"errors"
	"sort"
	"time"

	"snitchvis/internal/model"
)

// ErrNoEvents is returned when a scene is built without any events;
// there is no timeline to render.
var ErrNoEvents = errors.New("render: scene has no events")

// SceneSnitch is a snitch plus the events that fired at it, sorted by
// time. Highlight rendering walks these per snitch.
type SceneSnitch struct {
	model.Snitch
	Events []model.Event
}

// Scene is everything needed to render frames of one report. Build it
// once and reuse it across frames; it is read-only after NewScene
// except for User.Enabled toggles.
type Scene struct {
	Events   []model.Event
	Snitches []SceneSnitch
	Users    []*model.User
	Bounds   Box
	StartAt  time.Time
	EndAt    time.Time
}

// NewScene assembles a renderable scene. Events are re-sorted by T and
// attached to their snitch by (x, y) position; events at a position
// with no snitch stay on the timeline but never highlight (ingest
// synthesizes placeholder snitches, so this only happens for callers
// that skip that step). A nil users slice derives users from the
// events.
func NewScene(events []model.Event, snitches []model.Snitch, users []*model.User, allSnitches bool) (*Scene, error) {
	if len(events) == 0 {
		return nil, ErrNoEvents
	}

	sorted := make([]model.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].T < sorted[j].T })

	if users == nil {
		users = model.NewUsers(sorted)
	}

	scene := &Scene{
		Events:  sorted,
		Users:   users,
		Bounds:  computeBounds(sorted, snitches, allSnitches),
		StartAt: sorted[0].OccurredAt,
		EndAt:   sorted[len(sorted)-1].OccurredAt,
	}

	type pos struct{ x, y int }
	index := make(map[pos]int, len(snitches))
	scene.Snitches = make([]SceneSnitch, len(snitches))
	for i, s := range snitches {
		scene.Snitches[i] = SceneSnitch{Snitch: s}
		index[pos{s.X, s.Y}] = i
	}
	for _, ev := range sorted {
		if i, ok := index[pos{ev.X, ev.Y}]; ok {
			scene.Snitches[i].Events = append(scene.Snitches[i].Events, ev)
		}
	}

	return scene, nil
}

// Duration returns the timeline length in milliseconds.
func (s *Scene) Duration() int64 {
	return s.Events[len(s.Events)-1].T
}

// EventTimes returns the sorted event times in milliseconds, used for
// event stepping during playback.
func (s *Scene) EventTimes() []int64 {
	times := make([]int64, len(s.Events))
	for i, ev := range s.Events {
		times[i] = ev.T
	}
	return times
}

// UserByName returns the user with the given name, or nil.
func (s *Scene) UserByName(name string) *model.User {
	for _, u := range s.Users {
		if u.Username == name {
			return u
		}
	}
	return nil
}
