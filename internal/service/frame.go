package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"snitchvis/internal/config"
	"snitchvis/internal/metrics"
	"snitchvis/internal/model"
	"snitchvis/internal/render"
)

// TileComposer provides composed terrain backgrounds for a world-space
// box; *tiles.Service implements it. A nil composer disables terrain.
type TileComposer interface {
	Compose(ctx context.Context, b render.Box, size int) (*image.RGBA, error)
}

// FrameService renders single PNG frames of a report's timeline.
type FrameService interface {
	// Frame renders the report at timeline position atMS, clamped to
	// [0, duration]. Zero option values fall back to the configured
	// defaults.
	Frame(ctx context.Context, reportID string, atMS int64, opts model.RenderOptions) ([]byte, error)
}

type frameService struct {
	scenes  SceneLoader
	tiles   TileComposer
	metrics *metrics.Metrics
	cfg     config.RenderConfig
}

// NewFrameService constructs a FrameService. tiles may be nil when no
// tile source is configured.
func NewFrameService(scenes SceneLoader, tiles TileComposer, m *metrics.Metrics, cfg config.RenderConfig) FrameService {
	return &frameService{scenes: scenes, tiles: tiles, metrics: m, cfg: cfg}
}

func (s *frameService) Frame(ctx context.Context, reportID string, atMS int64, opts model.RenderOptions) ([]byte, error) {
	scene, err := s.scenes.Load(ctx, reportID, opts.AllSnitches)
	if err != nil {
		return nil, err
	}
	if atMS < 0 {
		atMS = 0
	}
	if d := scene.Duration(); atMS > d {
		atMS = d
	}

	ropts := render.Options{
		Width:  defaultInt(opts.Width, s.cfg.Width),
		Height: defaultInt(opts.Height, s.cfg.Height),
		FadeMS: defaultInt64(opts.FadeMS, s.cfg.FadeMS),
	}
	if opts.Tiles && s.tiles != nil {
		size := render.NewFrameRenderer(scene, ropts).DrawSize()
		bg, err := s.tiles.Compose(ctx, scene.Bounds, size)
		if err != nil {
			return nil, fmt.Errorf("compose tiles: %w", err)
		}
		ropts.Background = bg
	}

	img := render.NewFrameRenderer(scene, ropts).Render(atMS)
	s.metrics.AddFramesRendered(1)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

func defaultInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func defaultInt64(v, def int64) int64 {
	if v > 0 {
		return v
	}
	return def
}
