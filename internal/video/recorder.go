package video

import (
	"context"
	"fmt"
	"image"
	"runtime"

	"golang.org/x/sync/errgroup"

	"snitchvis/internal/metrics"
	"snitchvis/internal/model"
	"snitchvis/internal/render"
)

// RecordSize is the internal render resolution. ffmpeg scales the
// mjpeg stream down (or up) to the requested output size, and terrain
// backgrounds should be composed for a frame of this size.
const RecordSize = 1000

// Recorder renders a scene's timeline into an MP4 file. Frames are
// rendered in parallel but encoded strictly in order; at most Workers
// decoded frames are held in memory at once.
type Recorder struct {
	// Workers caps concurrent frame renders, default runtime.NumCPU.
	Workers    int
	FFmpegPath string
	Metrics    *metrics.Metrics
}

// frameTime maps frame i of n onto the scene timeline.
func frameTime(i, n int, durationMS int64) int64 {
	return int64(float64(i) * float64(durationMS) / float64(n))
}

// Record renders opts.FPS*opts.DurationSec evenly spaced frames and
// encodes them to out. background, when non-nil, is drawn under every
// frame.
func (r *Recorder) Record(ctx context.Context, scene *render.Scene, opts model.RenderOptions, background image.Image, out string) error {
	if opts.FPS <= 0 || opts.DurationSec <= 0 {
		return fmt.Errorf("video: invalid rate %dfps x %ds", opts.FPS, opts.DurationSec)
	}
	if opts.Width <= 0 {
		opts.Width = render.DefaultSize
	}
	if opts.Height <= 0 {
		opts.Height = render.DefaultSize
	}

	n := opts.FPS * opts.DurationSec
	fr := render.NewFrameRenderer(scene, render.Options{
		Width:      RecordSize,
		Height:     RecordSize,
		FadeMS:     opts.FadeMS,
		Background: background,
	})

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)

	// Each frame gets a one-slot channel so workers can finish out of
	// order, while slots bounds how many finished frames wait around
	// before the encoder consumes them.
	frames := make([]chan *image.RGBA, n)
	for i := range frames {
		frames[i] = make(chan *image.RGBA, 1)
	}
	slots := make(chan struct{}, workers)

	g.Go(func() error {
		for i := 0; i < n; i++ {
			select {
			case slots <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			i := i
			g.Go(func() error {
				img := fr.Render(frameTime(i, n, scene.Duration()))
				r.Metrics.AddFramesRendered(1)
				select {
				case frames[i] <- img:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		return nil
	})

	ordered := make(chan *image.RGBA)
	g.Go(func() error {
		defer close(ordered)
		for i := 0; i < n; i++ {
			var img *image.RGBA
			select {
			case img = <-frames[i]:
			case <-gctx.Done():
				return gctx.Err()
			}
			select {
			case ordered <- img:
				<-slots
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	enc := &Encoder{
		FFmpegPath: r.FFmpegPath,
		Framerate:  opts.FPS,
		Width:      opts.Width,
		Height:     opts.Height,
	}
	g.Go(func() error {
		written, err := enc.Encode(gctx, ordered, out)
		if err != nil {
			return err
		}
		if written != n {
			return fmt.Errorf("video: encoded %d of %d frames", written, n)
		}
		return nil
	})

	return g.Wait()
}
