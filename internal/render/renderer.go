package render

import (
	"image"
	"image/draw"
	"time"

	xdraw "golang.org/x/image/draw"

	"snitchvis/internal/model"
)

const (
	// DefaultFadeMS is how long an event highlight stays visible.
	DefaultFadeMS = 5 * 60 * 1000
	// DefaultSize is the frame edge used when no size is given.
	DefaultSize = 600

	// Snitch fields reach 11 blocks out from the snitch block, so a
	// field covers x-11 .. x+12 exclusive (23 blocks).
	fieldMin = 11
	fieldMax = 12

	// Individual snitch blocks are only visible when the view is
	// zoomed in enough for a block to cover at least ~a pixel.
	blockVisibleSpan = 500

	headerLayout      = "01/02/2006 15:04"
	headerClockLayout = "15:04"
	currentLayout     = "01/02/2006 15:04:05"

	textX        = 5
	disabledDim  = 0.4
	fieldOpacity = 0.23
)

var (
	fieldColor = model.Color{R: 93, G: 183, B: 223}
	textColor  = model.Color{R: 200, G: 200, B: 200}
	blockColor = model.Color{R: 200, G: 200, B: 200}
)

// Options configures a FrameRenderer.
type Options struct {
	Width  int
	Height int
	// FadeMS is the event highlight window in milliseconds.
	FadeMS int64
	// Background is an optional terrain layer drawn under everything
	// else, scaled to fill the draw area.
	Background image.Image
}

// FrameRenderer renders frames of one scene at arbitrary timeline
// positions. Render only reads the scene, so one renderer may be
// shared across goroutines as long as the scene is not mutated.
type FrameRenderer struct {
	scene *Scene
	opts  Options
	vp    viewport
}

// NewFrameRenderer prepares a renderer for the scene. Zero options
// fall back to defaults.
func NewFrameRenderer(scene *Scene, opts Options) *FrameRenderer {
	if opts.Width <= 0 {
		opts.Width = DefaultSize
	}
	if opts.Height <= 0 {
		opts.Height = DefaultSize
	}
	if opts.FadeMS <= 0 {
		opts.FadeMS = DefaultFadeMS
	}
	return &FrameRenderer{
		scene: scene,
		opts:  opts,
		vp:    newViewport(scene.Bounds, opts.Width, opts.Height),
	}
}

// DrawSize returns the pixel edge of the square draw area, which is
// the size terrain backgrounds should be composed at.
func (r *FrameRenderer) DrawSize() int {
	return int(r.vp.drawSize)
}

// Render draws the frame at timeline position t (milliseconds,
// clamped to the scene's range).
func (r *FrameRenderer) Render(t int64) *image.RGBA {
	if t < 0 {
		t = 0
	}
	if max := r.scene.Duration(); t > max {
		t = max
	}

	img := image.NewRGBA(image.Rect(0, 0, r.opts.Width, r.opts.Height))
	draw.Draw(img, img.Bounds(), image.Black, image.Point{}, draw.Src)

	r.paintBackground(img)
	r.paintInfo(img, t)
	r.paintFields(img)
	r.paintHighlights(img, t)
	r.paintBlocks(img)
	return img
}

func (r *FrameRenderer) paintBackground(img *image.RGBA) {
	if r.opts.Background == nil {
		return
	}
	xdraw.ApproxBiLinear.Scale(img, r.vp.clipRect(), r.opts.Background, r.opts.Background.Bounds(), xdraw.Src, nil)
}

func (r *FrameRenderer) paintInfo(img *image.RGBA, t int64) {
	start := r.scene.StartAt
	end := r.scene.EndAt

	endStr := end.Format(headerLayout)
	if start.Year() == end.Year() && start.YearDay() == end.YearDay() {
		endStr = end.Format(headerClockLayout)
	}

	y := 15
	drawText(img, textX, y, "Snitch Log "+start.Format(headerLayout)+" - "+endStr, withAlpha(textColor, 1))
	y += 18

	current := start.Add(time.Duration(t) * time.Millisecond)
	drawText(img, textX, y, current.Format(currentLayout), withAlpha(textColor, 1))
	y += 16

	for _, u := range r.scene.Users {
		alpha := 1.0
		if !u.Enabled {
			alpha = disabledDim
		}
		swatch := image.Rect(textX, y-9, textX+10, y+1)
		draw.Draw(img, swatch, image.NewUniform(withAlpha(u.Color, alpha)), image.Point{}, draw.Over)
		drawText(img, textX+14, y, u.Username, withAlpha(textColor, alpha))
		y += 16
	}
}

func (r *FrameRenderer) paintFields(img *image.RGBA) {
	c := withAlpha(fieldColor, fieldOpacity)
	for i := range r.scene.Snitches {
		s := &r.scene.Snitches[i]
		r.vp.fillWorldRect(img,
			float64(s.X-fieldMin), float64(s.Y-fieldMin),
			float64(s.X+fieldMax), float64(s.Y+fieldMax), c)
	}
}

// paintHighlights redraws each snitch field in the color of the most
// recent enabled-user event within the fade window, fading linearly
// with age.
func (r *FrameRenderer) paintHighlights(img *image.RGBA, t int64) {
	users := make(map[string]*model.User, len(r.scene.Users))
	for _, u := range r.scene.Users {
		users[u.Username] = u
	}

	fade := float64(r.opts.FadeMS)
	for i := range r.scene.Snitches {
		s := &r.scene.Snitches[i]

		var best *model.Event
		var bestUser *model.User
		for j := range s.Events {
			ev := &s.Events[j]
			if ev.T > t {
				break
			}
			u := users[ev.Username]
			if u == nil || !u.Enabled {
				continue
			}
			if best == nil || ev.T > best.T {
				best = ev
				bestUser = u
			}
		}
		if best == nil {
			continue
		}

		alpha := 1 - float64(t-best.T)/fade
		if alpha <= 0 {
			continue
		}
		r.vp.fillWorldRect(img,
			float64(s.X-fieldMin), float64(s.Y-fieldMin),
			float64(s.X+fieldMax), float64(s.Y+fieldMax),
			withAlpha(bestUser.Color, alpha))
	}
}

func (r *FrameRenderer) paintBlocks(img *image.RGBA) {
	if r.scene.Bounds.SpanX() >= blockVisibleSpan {
		return
	}
	c := withAlpha(blockColor, 1)
	for i := range r.scene.Snitches {
		s := &r.scene.Snitches[i]
		r.vp.fillWorldRect(img,
			float64(s.X), float64(s.Y),
			float64(s.X+1), float64(s.Y+1), c)
	}
}
