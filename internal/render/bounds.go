package render

import "snitchvis/internal/model"

// Box is a world-coordinate bounding box. Spans are float64 because
// squaring the box can shift edges by half a block.
type Box struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// SpanX returns the box width in blocks.
func (b Box) SpanX() float64 { return b.MaxX - b.MinX }

// SpanY returns the box height in blocks.
func (b Box) SpanY() float64 { return b.MaxY - b.MinY }

// minBoxSpan is the smallest box edge rendered. A report whose events
// all hit one snitch produces a zero-area box, which would make the
// world-to-view scale blow up.
const minBoxSpan = 16

// computeBounds finds the square bounding box of the scene: the box
// around every event position, or around every snitch when allSnitches
// is set. The shorter axis is extended equally on both sides until the
// box is square, so the world is never stretched.
func computeBounds(events []model.Event, snitches []model.Snitch, allSnitches bool) Box {
	var b Box
	first := true
	include := func(x, y int) {
		fx, fy := float64(x), float64(y)
		if first {
			b = Box{MinX: fx, MinY: fy, MaxX: fx, MaxY: fy}
			first = false
			return
		}
		if fx < b.MinX {
			b.MinX = fx
		}
		if fx > b.MaxX {
			b.MaxX = fx
		}
		if fy < b.MinY {
			b.MinY = fy
		}
		if fy > b.MaxY {
			b.MaxY = fy
		}
	}

	if allSnitches && len(snitches) > 0 {
		for _, s := range snitches {
			include(s.X, s.Y)
		}
	} else {
		for _, ev := range events {
			include(ev.X, ev.Y)
		}
	}

	return square(b)
}

// square pads the shorter axis of b until both spans are equal, then
// enforces the minimum span.
func square(b Box) Box {
	dx, dy := b.SpanX(), b.SpanY()
	if dx > dy {
		pad := (dx - dy) / 2
		b.MinY -= pad
		b.MaxY += pad
	} else {
		pad := (dy - dx) / 2
		b.MinX -= pad
		b.MaxX += pad
	}

	if span := b.SpanX(); span < minBoxSpan {
		pad := (minBoxSpan - span) / 2
		b.MinX -= pad
		b.MaxX += pad
		b.MinY -= pad
		b.MaxY += pad
	}
	return b
}
