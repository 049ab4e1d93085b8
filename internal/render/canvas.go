package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"snitchvis/internal/model"
)

// gamePadding is the fixed pixel border around the draw area.
const gamePadding = 20

// viewport maps world coordinates into the frame. The draw area is the
// largest square that fits inside the frame after padding, centered on
// the longer axis.
type viewport struct {
	bounds   Box
	drawSize float64
	padX     float64
	padY     float64
}

func newViewport(bounds Box, width, height int) viewport {
	drawWidth := float64(width) - 2*gamePadding
	drawHeight := float64(height) - 2*gamePadding
	size := math.Min(drawWidth, drawHeight)

	v := viewport{bounds: bounds, drawSize: size, padX: gamePadding, padY: gamePadding}
	if drawWidth > drawHeight {
		v.padX += (drawWidth - size) / 2
	} else {
		v.padY += (drawHeight - size) / 2
	}
	return v
}

// view maps a world position to frame pixel coordinates.
func (v viewport) view(wx, wy float64) (float64, float64) {
	x := (wx-v.bounds.MinX)/v.bounds.SpanX()*v.drawSize + v.padX
	y := (wy-v.bounds.MinY)/v.bounds.SpanY()*v.drawSize + v.padY
	return x, y
}

// clipRect returns the draw area in pixels; world-space layers are
// clipped to it so they never paint over the frame border.
func (v viewport) clipRect() image.Rectangle {
	return image.Rect(
		int(math.Round(v.padX)),
		int(math.Round(v.padY)),
		int(math.Round(v.padX+v.drawSize)),
		int(math.Round(v.padY+v.drawSize)),
	)
}

// fillWorldRect alpha-composites a world-space rectangle onto dst,
// clipped to the draw area.
func (v viewport) fillWorldRect(dst *image.RGBA, x0, y0, x1, y1 float64, c color.NRGBA) {
	px0, py0 := v.view(x0, y0)
	px1, py1 := v.view(x1, y1)
	r := image.Rect(
		int(math.Round(px0)), int(math.Round(py0)),
		int(math.Round(px1)), int(math.Round(py1)),
	).Intersect(v.clipRect())
	if r.Empty() {
		return
	}
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Over)
}

// withAlpha converts a palette color to NRGBA at the given opacity.
func withAlpha(c model.Color, alpha float64) color.NRGBA {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(alpha*255 + 0.5)}
}

// drawText renders s with the fixed 7x13 face, dot at (x, y) baseline.
func drawText(dst *image.RGBA, x, y int, s string, c color.NRGBA) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
