package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"

	"snitchvis/internal/config"
	"snitchvis/internal/metrics"
	"snitchvis/internal/playback"
	"snitchvis/internal/render"
)

var ErrInvalidAction = errors.New("invalid playback action")

// Playback control actions.
const (
	ActionPlay      = "play"
	ActionPause     = "pause"
	ActionSeek      = "seek"
	ActionSpeed     = "speed"
	ActionSpeedUp   = "speed_up"
	ActionSlowDown  = "slow_down"
	ActionDirection = "direction"
	ActionStepNext  = "step_next"
	ActionStepPrev  = "step_prev"
)

// CreateSessionInput configures a new playback session.
type CreateSessionInput struct {
	Speed       float64 `json:"speed"`
	FadeMS      int64   `json:"fade_ms"`
	AllSnitches bool    `json:"all_snitches"`
}

// ControlInput is one transport control command.
type ControlInput struct {
	Action     string   `json:"action"`
	PositionMS *int64   `json:"position_ms,omitempty"`
	Speed      *float64 `json:"speed,omitempty"`
	Direction  string   `json:"direction,omitempty"`
}

// PlaybackService drives interactive timeline sessions: a session
// holds a scene and a clock, and clients poll frames at the current
// position.
type PlaybackService interface {
	// Create loads the report's scene and registers a session.
	Create(ctx context.Context, reportID string, in CreateSessionInput) (*playback.State, error)

	// State returns a session snapshot.
	State(ctx context.Context, id string) (*playback.State, error)

	// Control applies a transport command and returns the new state.
	Control(ctx context.Context, id string, in ControlInput) (*playback.State, error)

	// Frame renders the session's current frame as PNG.
	Frame(ctx context.Context, id string, width, height int) ([]byte, error)

	// SetUserEnabled toggles a user's visibility in the session.
	SetUserEnabled(ctx context.Context, id, username string, enabled bool) (*playback.State, error)

	// Delete ends a session.
	Delete(ctx context.Context, id string) error
}

type playbackService struct {
	scenes   SceneLoader
	sessions *playback.Manager
	metrics  *metrics.Metrics
	cfg      config.RenderConfig
}

// NewPlaybackService constructs a PlaybackService on the given session
// manager.
func NewPlaybackService(scenes SceneLoader, sessions *playback.Manager, m *metrics.Metrics, cfg config.RenderConfig) PlaybackService {
	return &playbackService{scenes: scenes, sessions: sessions, metrics: m, cfg: cfg}
}

func (s *playbackService) Create(ctx context.Context, reportID string, in CreateSessionInput) (*playback.State, error) {
	if reportID == "" {
		return nil, ErrIDRequired
	}
	scene, err := s.scenes.Load(ctx, reportID, in.AllSnitches)
	if err != nil {
		return nil, err
	}
	sess := s.sessions.Create(reportID, scene, playback.SessionOptions{
		Speed:  in.Speed,
		FadeMS: defaultInt64(in.FadeMS, s.cfg.FadeMS),
	})
	st := sess.State()
	return &st, nil
}

func (s *playbackService) State(ctx context.Context, id string) (*playback.State, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	st := sess.State()
	return &st, nil
}

func (s *playbackService) Control(ctx context.Context, id string, in ControlInput) (*playback.State, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	switch in.Action {
	case ActionPlay:
		sess.Resume()
	case ActionPause:
		sess.Pause()
	case ActionSeek:
		if in.PositionMS == nil {
			return nil, fmt.Errorf("%w: seek requires position_ms", ErrInvalidAction)
		}
		sess.Seek(*in.PositionMS)
	case ActionSpeed:
		if in.Speed == nil {
			return nil, fmt.Errorf("%w: speed requires speed", ErrInvalidAction)
		}
		if err := sess.SetSpeed(*in.Speed); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
		}
	case ActionSpeedUp:
		sess.SpeedUp()
	case ActionSlowDown:
		sess.SlowDown()
	case ActionDirection:
		if err := sess.SetDirection(in.Direction); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
		}
	case ActionStepNext:
		sess.StepNext()
	case ActionStepPrev:
		sess.StepPrev()
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, in.Action)
	}

	st := sess.State()
	return &st, nil
}

func (s *playbackService) Frame(ctx context.Context, id string, width, height int) ([]byte, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	fr := render.NewFrameRenderer(sess.Scene(), render.Options{
		Width:  defaultInt(width, s.cfg.Width),
		Height: defaultInt(height, s.cfg.Height),
		FadeMS: sess.FadeMS,
	})
	img := fr.Render(sess.Position())
	s.metrics.AddFramesRendered(1)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *playbackService) SetUserEnabled(ctx context.Context, id, username string, enabled bool) (*playback.State, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	if err := sess.SetUserEnabled(username, enabled); err != nil {
		return nil, err
	}
	st := sess.State()
	return &st, nil
}

func (s *playbackService) Delete(ctx context.Context, id string) error {
	return s.sessions.Delete(id)
}
