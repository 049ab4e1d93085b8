package render

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snitchvis/internal/model"
)

var testBase = time.Date(2022, 7, 25, 10, 0, 0, 0, time.UTC)

// geometryScene has a 100x100 world box and one idle snitch at its
// center. In a 240x240 frame the draw area is (20,20)-(220,220) and a
// block is exactly 2px.
func geometryScene(t *testing.T) *Scene {
	t.Helper()
	events := []model.Event{
		{Username: "scout", X: 0, Y: 0, T: 0, OccurredAt: testBase},
		{Username: "scout", X: 100, Y: 100, T: 60000, OccurredAt: testBase.Add(time.Minute)},
	}
	snitches := []model.Snitch{{X: 50, Y: 50, Name: "mid"}}

	scene, err := NewScene(events, snitches, nil, false)
	require.NoError(t, err)
	return scene
}

func TestViewportCentering(t *testing.T) {
	v := newViewport(Box{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}, 300, 240)

	assert.Equal(t, 200.0, v.drawSize)
	assert.Equal(t, 50.0, v.padX)
	assert.Equal(t, 20.0, v.padY)

	x, y := v.view(0, 0)
	assert.Equal(t, 50.0, x)
	assert.Equal(t, 20.0, y)

	x, y = v.view(100, 100)
	assert.Equal(t, 250.0, x)
	assert.Equal(t, 220.0, y)
}

func TestRenderFrameGeometry(t *testing.T) {
	r := NewFrameRenderer(geometryScene(t), Options{Width: 240, Height: 240})
	img := r.Render(0)

	assert.Equal(t, image.Rect(0, 0, 240, 240), img.Bounds())
	assert.Equal(t, 200, r.DrawSize())

	// The snitch block at (50,50) maps to pixels (120,120)-(122,122)
	// and is drawn opaque.
	assert.Equal(t, color.RGBA{R: 200, G: 200, B: 200, A: 255}, img.RGBAAt(120, 120))

	// Inside the field but outside the block: translucent blue over
	// black, so blue dominates.
	in := img.RGBAAt(110, 110)
	assert.NotEqual(t, color.RGBA{A: 255}, in)
	assert.Greater(t, in.B, in.R)

	// The field starts at pixel 98; just outside is pure background.
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(97, 97))
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(144, 144))
}

func TestRenderHeaderText(t *testing.T) {
	r := NewFrameRenderer(geometryScene(t), Options{Width: 240, Height: 240})
	img := r.Render(0)

	found := false
	for y := 5; y < 16 && !found; y++ {
		for x := 5; x < 230; x++ {
			if img.RGBAAt(x, y) != (color.RGBA{A: 255}) {
				found = true
				break
			}
		}
	}
	assert.True(t, found, "expected header text pixels in the top row")
}

func TestRenderClampsTime(t *testing.T) {
	r := NewFrameRenderer(geometryScene(t), Options{Width: 240, Height: 240})

	assert.Equal(t, r.Render(0).Pix, r.Render(-5000).Pix)
	assert.Equal(t, r.Render(60000).Pix, r.Render(999999).Pix)
}

func TestRenderDefaults(t *testing.T) {
	r := NewFrameRenderer(geometryScene(t), Options{})
	img := r.Render(0)

	assert.Equal(t, image.Rect(0, 0, DefaultSize, DefaultSize), img.Bounds())
}

// highlightScene has one snitch with events on it; the box degenerates
// to the 16-block minimum span so the field floods the draw area.
func highlightScene(t *testing.T, eventTimes map[string]int64) *Scene {
	t.Helper()
	var events []model.Event
	for _, name := range []string{"a", "b"} {
		tms, ok := eventTimes[name]
		if !ok {
			continue
		}
		events = append(events, model.Event{
			Username: name, X: 50, Y: 50, T: tms,
			OccurredAt: testBase.Add(time.Duration(tms) * time.Millisecond),
		})
	}
	snitches := []model.Snitch{{X: 50, Y: 50, Name: "hot"}}

	scene, err := NewScene(events, snitches, nil, false)
	require.NoError(t, err)
	return scene
}

func TestRenderHighlight(t *testing.T) {
	scene := highlightScene(t, map[string]int64{"a": 0})
	r := NewFrameRenderer(scene, Options{Width: 240, Height: 240, FadeMS: 10000})

	// Fresh event: the full-opacity user color (palette red).
	img := r.Render(0)
	assert.Equal(t, color.RGBA{R: 230, G: 25, B: 75, A: 255}, img.RGBAAt(150, 150))

	// Half faded: still red-dominant.
	img = r.Render(5000)
	px := img.RGBAAt(150, 150)
	assert.Greater(t, px.R, px.B)

	// Fully faded: back to the plain field color.
	img = r.Render(10000)
	px = img.RGBAAt(150, 150)
	assert.Greater(t, px.B, px.R)
}

func TestRenderHighlightMostRecentWins(t *testing.T) {
	scene := highlightScene(t, map[string]int64{"a": 0, "b": 8000})
	r := NewFrameRenderer(scene, Options{Width: 240, Height: 240, FadeMS: 10000})

	// At t=8000 user b's event is newer; palette green at full alpha.
	img := r.Render(8000)
	assert.Equal(t, color.RGBA{R: 60, G: 180, B: 75, A: 255}, img.RGBAAt(150, 150))

	// Before b's event only a is eligible.
	img = r.Render(4000)
	px := img.RGBAAt(150, 150)
	assert.Greater(t, px.R, px.G)
}

func TestRenderDisabledUserSkipsHighlight(t *testing.T) {
	scene := highlightScene(t, map[string]int64{"a": 0})
	scene.Users[0].Enabled = false
	r := NewFrameRenderer(scene, Options{Width: 240, Height: 240, FadeMS: 10000})

	img := r.Render(0)
	px := img.RGBAAt(150, 150)
	assert.Greater(t, px.B, px.R)
}

func TestRenderBlocksHiddenOnWideBox(t *testing.T) {
	events := []model.Event{
		{Username: "scout", X: 0, Y: 0, T: 0, OccurredAt: testBase},
		{Username: "scout", X: 600, Y: 600, T: 1000, OccurredAt: testBase.Add(time.Second)},
	}
	snitches := []model.Snitch{{X: 300, Y: 300}}
	scene, err := NewScene(events, snitches, nil, false)
	require.NoError(t, err)

	r := NewFrameRenderer(scene, Options{Width: 240, Height: 240})
	img := r.Render(0)

	// The field still shows at the center but the 1x1 block does not.
	px := img.RGBAAt(120, 120)
	assert.NotEqual(t, color.RGBA{R: 200, G: 200, B: 200, A: 255}, px)
	assert.Greater(t, px.B, px.R)
}

func TestRenderBackground(t *testing.T) {
	bg := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(bg.Pix); i += 4 {
		bg.Pix[i+1] = 255 // green
		bg.Pix[i+3] = 255
	}

	r := NewFrameRenderer(geometryScene(t), Options{Width: 240, Height: 240, Background: bg})
	img := r.Render(0)

	// Inside the draw area, away from fields and text: terrain shows.
	px := img.RGBAAt(160, 160)
	assert.Greater(t, px.G, uint8(150))
	assert.Less(t, px.R, uint8(60))

	// Outside the draw area stays black.
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(10, 228))
}
