package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"snitchvis/internal/config"
	"snitchvis/internal/playback"
)

var playbackCfg = config.RenderConfig{Width: 100, Height: 80, FadeMS: 300000}

// newPlaybackSession builds a service over a real session manager with
// one session already created for report "a".
func newPlaybackSession(t *testing.T) (PlaybackService, *playback.Manager, string) {
	t.Helper()

	mScenes := new(mockSceneLoader)
	mScenes.On("Load", mock.Anything, "a", false).Return(buildScene(t), nil)
	mgr := playback.NewManager(time.Minute)
	svc := NewPlaybackService(mScenes, mgr, nil, playbackCfg)

	st, err := svc.Create(context.Background(), "a", CreateSessionInput{})
	require.NoError(t, err)
	return svc, mgr, st.ID
}

func TestPlaybackService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mScenes := new(mockSceneLoader)
		mScenes.On("Load", ctx, "a", false).Return(buildScene(t), nil)
		mgr := playback.NewManager(time.Minute)
		svc := NewPlaybackService(mScenes, mgr, nil, playbackCfg)

		st, err := svc.Create(ctx, "a", CreateSessionInput{})

		assert.NoError(t, err)
		assert.NotEmpty(t, st.ID)
		assert.Equal(t, "a", st.ReportID)
		assert.True(t, st.Paused)
		assert.Equal(t, 1.0, st.Speed)
		assert.Equal(t, int64(2000), st.DurationMS)
		assert.Equal(t, playback.DirectionForward, st.Direction)
		assert.Equal(t, 1, mgr.Len())
		mScenes.AssertExpectations(t)
	})

	t.Run("custom speed and wide view", func(t *testing.T) {
		mScenes := new(mockSceneLoader)
		mScenes.On("Load", ctx, "a", true).Return(buildScene(t), nil)
		svc := NewPlaybackService(mScenes, playback.NewManager(time.Minute), nil, playbackCfg)

		st, err := svc.Create(ctx, "a", CreateSessionInput{Speed: 3, AllSnitches: true})

		assert.NoError(t, err)
		assert.Equal(t, 3.0, st.Speed)
	})

	t.Run("missing id", func(t *testing.T) {
		svc := NewPlaybackService(new(mockSceneLoader), playback.NewManager(time.Minute), nil, playbackCfg)

		_, err := svc.Create(ctx, "", CreateSessionInput{})

		assert.ErrorIs(t, err, ErrIDRequired)
	})

	t.Run("scene load error", func(t *testing.T) {
		mScenes := new(mockSceneLoader)
		mScenes.On("Load", ctx, "missing", false).Return(nil, ErrReportNotFound)
		svc := NewPlaybackService(mScenes, playback.NewManager(time.Minute), nil, playbackCfg)

		_, err := svc.Create(ctx, "missing", CreateSessionInput{})

		assert.ErrorIs(t, err, ErrReportNotFound)
	})
}

func TestPlaybackService_Control(t *testing.T) {
	ctx := context.Background()

	ms := func(v int64) *int64 { return &v }
	speed := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		pre     []ControlInput
		in      ControlInput
		wantErr bool
		check   func(t *testing.T, st *playback.State)
	}{
		{
			name: "play",
			in:   ControlInput{Action: ActionPlay},
			check: func(t *testing.T, st *playback.State) {
				assert.False(t, st.Paused)
			},
		},
		{
			name: "pause",
			pre:  []ControlInput{{Action: ActionPlay}},
			in:   ControlInput{Action: ActionPause},
			check: func(t *testing.T, st *playback.State) {
				assert.True(t, st.Paused)
			},
		},
		{
			name: "seek",
			in:   ControlInput{Action: ActionSeek, PositionMS: ms(1500)},
			check: func(t *testing.T, st *playback.State) {
				assert.Equal(t, int64(1500), st.PositionMS)
			},
		},
		{
			name: "seek clamps past the end",
			in:   ControlInput{Action: ActionSeek, PositionMS: ms(99999)},
			check: func(t *testing.T, st *playback.State) {
				assert.Equal(t, int64(2000), st.PositionMS)
			},
		},
		{
			name:    "seek without position",
			in:      ControlInput{Action: ActionSeek},
			wantErr: true,
		},
		{
			name: "speed",
			in:   ControlInput{Action: ActionSpeed, Speed: speed(2.5)},
			check: func(t *testing.T, st *playback.State) {
				assert.Equal(t, 2.5, st.Speed)
			},
		},
		{
			name:    "speed without value",
			in:      ControlInput{Action: ActionSpeed},
			wantErr: true,
		},
		{
			name:    "speed rejects zero",
			in:      ControlInput{Action: ActionSpeed, Speed: speed(0)},
			wantErr: true,
		},
		{
			name: "speed up follows the ladder",
			in:   ControlInput{Action: ActionSpeedUp},
			check: func(t *testing.T, st *playback.State) {
				assert.Equal(t, 1.5, st.Speed)
			},
		},
		{
			name: "slow down follows the ladder",
			in:   ControlInput{Action: ActionSlowDown},
			check: func(t *testing.T, st *playback.State) {
				assert.Equal(t, 0.75, st.Speed)
			},
		},
		{
			name: "direction reverse keeps speed",
			pre:  []ControlInput{{Action: ActionSpeed, Speed: speed(2)}},
			in:   ControlInput{Action: ActionDirection, Direction: playback.DirectionReverse},
			check: func(t *testing.T, st *playback.State) {
				assert.Equal(t, playback.DirectionReverse, st.Direction)
				assert.Equal(t, 2.0, st.Speed)
			},
		},
		{
			name:    "direction rejects junk",
			in:      ControlInput{Action: ActionDirection, Direction: "sideways"},
			wantErr: true,
		},
		{
			name: "step next",
			in:   ControlInput{Action: ActionStepNext},
			check: func(t *testing.T, st *playback.State) {
				assert.Equal(t, int64(2000), st.PositionMS)
				assert.True(t, st.Paused)
			},
		},
		{
			name: "step prev",
			pre:  []ControlInput{{Action: ActionSeek, PositionMS: ms(2000)}},
			in:   ControlInput{Action: ActionStepPrev},
			check: func(t *testing.T, st *playback.State) {
				assert.Equal(t, int64(0), st.PositionMS)
				assert.True(t, st.Paused)
			},
		},
		{
			name:    "unknown action",
			in:      ControlInput{Action: "rewind_tape"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, id := newPlaybackSession(t)
			for _, pre := range tt.pre {
				_, err := svc.Control(ctx, id, pre)
				require.NoError(t, err)
			}

			st, err := svc.Control(ctx, id, tt.in)

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAction)
				return
			}
			assert.NoError(t, err)
			tt.check(t, st)
		})
	}

	t.Run("unknown session", func(t *testing.T) {
		svc, _, _ := newPlaybackSession(t)

		_, err := svc.Control(ctx, "nope", ControlInput{Action: ActionPlay})

		assert.ErrorIs(t, err, playback.ErrSessionNotFound)
	})
}

func TestPlaybackService_Frame(t *testing.T) {
	ctx := context.Background()

	t.Run("renders png at configured size", func(t *testing.T) {
		svc, _, id := newPlaybackSession(t)

		data, err := svc.Frame(ctx, id, 0, 0)

		assert.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, pngMagic))
		img := decodePNG(t, data)
		assert.Equal(t, 100, img.Bounds().Dx())
		assert.Equal(t, 80, img.Bounds().Dy())
	})

	t.Run("explicit size", func(t *testing.T) {
		svc, _, id := newPlaybackSession(t)

		data, err := svc.Frame(ctx, id, 160, 120)

		assert.NoError(t, err)
		img := decodePNG(t, data)
		assert.Equal(t, 160, img.Bounds().Dx())
		assert.Equal(t, 120, img.Bounds().Dy())
	})

	t.Run("unknown session", func(t *testing.T) {
		svc, _, _ := newPlaybackSession(t)

		_, err := svc.Frame(ctx, "nope", 0, 0)

		assert.ErrorIs(t, err, playback.ErrSessionNotFound)
	})
}

func TestPlaybackService_SetUserEnabled(t *testing.T) {
	ctx := context.Background()

	t.Run("toggles a user", func(t *testing.T) {
		svc, mgr, id := newPlaybackSession(t)

		st, err := svc.SetUserEnabled(ctx, id, "alice", false)

		assert.NoError(t, err)
		assert.NotNil(t, st)
		sess, err := mgr.Get(id)
		require.NoError(t, err)
		assert.False(t, sess.Scene().UserByName("alice").Enabled)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, _, id := newPlaybackSession(t)

		_, err := svc.SetUserEnabled(ctx, id, "mallory", false)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown user")
	})

	t.Run("unknown session", func(t *testing.T) {
		svc, _, _ := newPlaybackSession(t)

		_, err := svc.SetUserEnabled(ctx, "nope", "alice", false)

		assert.ErrorIs(t, err, playback.ErrSessionNotFound)
	})
}

func TestPlaybackService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, mgr, id := newPlaybackSession(t)

		err := svc.Delete(ctx, id)

		assert.NoError(t, err)
		assert.Equal(t, 0, mgr.Len())
	})

	t.Run("unknown session", func(t *testing.T) {
		svc, _, _ := newPlaybackSession(t)

		err := svc.Delete(ctx, "nope")

		assert.ErrorIs(t, err, playback.ErrSessionNotFound)
	})
}
