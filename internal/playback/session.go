package playback

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"snitchvis/internal/render"
)

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("playback: session not found")

// ErrUnknownUser is returned when toggling a user the scene has never
// seen.
var ErrUnknownUser = errors.New("playback: unknown user")

// Direction of timeline traversal.
const (
	DirectionForward = "forward"
	DirectionReverse = "reverse"
)

// speedLadder holds the playback speeds stepped through by SpeedUp
// and SlowDown.
var speedLadder = []float64{0.05, 0.1, 0.25, 0.5, 0.75, 1.0, 1.5, 3.0, 5.0, 10.0}

// State is a read-only snapshot of a session.
type State struct {
	ID         string  `json:"id"`
	ReportID   string  `json:"report_id"`
	PositionMS int64   `json:"position_ms"`
	DurationMS int64   `json:"duration_ms"`
	Paused     bool    `json:"paused"`
	Speed      float64 `json:"speed"`
	Direction  string  `json:"direction"`
}

// SessionOptions sets up a new session. Zero values fall back to
// defaults (speed 1, default fade).
type SessionOptions struct {
	Speed  float64
	FadeMS int64
}

// Session is one viewer's playback over a report. All methods are
// safe for concurrent use.
type Session struct {
	ID       string
	ReportID string
	// FadeMS is the highlight fade window frames are rendered with.
	FadeMS int64

	mu         sync.Mutex
	scene      *render.Scene
	clock      *Clock
	times      []int64
	duration   int64
	lastAccess time.Time
	now        func() time.Time
}

func newSession(reportID string, scene *render.Scene, opts SessionOptions, now func() time.Time) *Session {
	speed := opts.Speed
	if speed == 0 {
		speed = 1
	}
	fade := opts.FadeMS
	if fade <= 0 {
		fade = render.DefaultFadeMS
	}
	s := &Session{
		ID:         uuid.NewString(),
		ReportID:   reportID,
		FadeMS:     fade,
		scene:      scene,
		clock:      newClock(speed, now),
		times:      scene.EventTimes(),
		duration:   scene.Duration(),
		lastAccess: now(),
		now:        now,
	}
	// Sessions start paused at t=0 so the first frame is stable until
	// the viewer hits play.
	s.clock.Pause()
	return s
}

// Scene returns the session's cached scene.
func (s *Session) Scene() *render.Scene { return s.scene }

// Position returns the clamped position in milliseconds. Running past
// either end of the timeline clamps there and pauses.
func (s *Session) Position() int64 {
	pos := s.clock.Position()
	if pos < 0 {
		s.clock.Seek(0)
		s.clock.Pause()
		return 0
	}
	if pos > float64(s.duration) {
		s.clock.Seek(float64(s.duration))
		s.clock.Pause()
		return s.duration
	}
	return int64(pos)
}

// State snapshots the session.
func (s *Session) State() State {
	pos := s.Position()
	speed := s.clock.Speed()
	dir := DirectionForward
	if speed < 0 {
		dir = DirectionReverse
	}
	return State{
		ID:         s.ID,
		ReportID:   s.ReportID,
		PositionMS: pos,
		DurationMS: s.duration,
		Paused:     s.clock.Paused(),
		Speed:      math.Abs(speed),
		Direction:  dir,
	}
}

// Pause freezes playback.
func (s *Session) Pause() { s.clock.Pause() }

// Resume continues playback. Resuming forward at the end of the
// timeline restarts from the beginning, and symmetrically for reverse,
// matching what a viewer expects from a play button.
func (s *Session) Resume() {
	pos := s.Position()
	if s.clock.Speed() > 0 && pos >= s.duration {
		s.clock.Seek(0)
	}
	if s.clock.Speed() < 0 && pos <= 0 {
		s.clock.Seek(float64(s.duration))
	}
	s.clock.Resume()
}

// Seek jumps to ms, clamped to the timeline.
func (s *Session) Seek(ms int64) {
	if ms < 0 {
		ms = 0
	}
	if ms > s.duration {
		ms = s.duration
	}
	s.clock.Seek(float64(ms))
}

// SetSpeed sets the playback speed magnitude, keeping direction.
func (s *Session) SetSpeed(speed float64) error {
	if speed <= 0 {
		return fmt.Errorf("playback: speed must be positive")
	}
	if s.clock.Speed() < 0 {
		speed = -speed
	}
	s.clock.SetSpeed(speed)
	return nil
}

// SpeedUp moves to the next faster ladder speed.
func (s *Session) SpeedUp() {
	cur := math.Abs(s.clock.Speed())
	for _, v := range speedLadder {
		if v > cur {
			_ = s.SetSpeed(v)
			return
		}
	}
}

// SlowDown moves to the next slower ladder speed.
func (s *Session) SlowDown() {
	cur := math.Abs(s.clock.Speed())
	for i := len(speedLadder) - 1; i >= 0; i-- {
		if speedLadder[i] < cur {
			_ = s.SetSpeed(speedLadder[i])
			return
		}
	}
}

// SetDirection sets traversal direction, keeping speed magnitude.
func (s *Session) SetDirection(dir string) error {
	speed := math.Abs(s.clock.Speed())
	switch dir {
	case DirectionForward:
		s.clock.SetSpeed(speed)
	case DirectionReverse:
		s.clock.SetSpeed(-speed)
	default:
		return fmt.Errorf("playback: unknown direction %q", dir)
	}
	return nil
}

// StepNext seeks to the first event strictly after the current
// position and pauses. At the end it seeks to the last event.
func (s *Session) StepNext() {
	pos := s.Position()
	idx := sort.Search(len(s.times), func(i int) bool { return s.times[i] > pos })
	if idx >= len(s.times) {
		idx = len(s.times) - 1
	}
	s.clock.Seek(float64(s.times[idx]))
	s.clock.Pause()
}

// StepPrev seeks to the last event strictly before the current
// position and pauses. At the start it seeks to the first event.
func (s *Session) StepPrev() {
	pos := s.Position()
	idx := sort.Search(len(s.times), func(i int) bool { return s.times[i] >= pos }) - 1
	if idx < 0 {
		idx = 0
	}
	s.clock.Seek(float64(s.times[idx]))
	s.clock.Pause()
}

// SetUserEnabled toggles a user's visibility in rendered frames.
func (s *Session) SetUserEnabled(username string, enabled bool) error {
	u := s.scene.UserByName(username)
	if u == nil {
		return fmt.Errorf("%w %q", ErrUnknownUser, username)
	}
	u.Enabled = enabled
	return nil
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastAccess = s.now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

// Manager owns the live sessions. Sessions idle past the TTL are
// removed by the janitor; Get refreshes a session's idle timer.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

// NewManager creates an empty session registry.
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Create registers a new session for the report's scene.
func (m *Manager) Create(reportID string, scene *render.Scene, opts SessionOptions) *Session {
	s := newSession(reportID, scene, opts, m.now)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns the session and marks it used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch()
	return s, nil
}

// Delete removes a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// StartJanitor sweeps expired sessions every interval until Stop.
func (m *Manager) StartJanitor(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sweep()
			case <-m.done:
				return
			}
		}
	}()
}

// Stop halts the janitor.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
}

func (m *Manager) sweep() {
	cutoff := m.now().Add(-m.ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}
