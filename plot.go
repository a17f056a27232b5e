package main

import (
	"image"
	"image/color"
	"math"

	"gioui.org/f32"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/widget/material"
	"github.com/dustin/go-humanize"
	"golang.org/x/exp/constraints"

	"git.sr.ht/~arlen/stripchart/chart"
)

// frameWidth and framePad mirror the border and inner padding the layout
// engine reserves around the stage.
const (
	frameWidth = 2
	framePad   = 2
)

var backgroundColor = color.NRGBA{R: 0xfa, G: 0xfa, B: 0xfa, A: 0xff}

var palette = []color.NRGBA{
	{R: 0xa4, G: 0x63, B: 0x3a, A: 0xff},
	{R: 0x85, G: 0x76, B: 0x25, A: 0xff},
	{R: 0x51, G: 0x85, B: 0x4d, A: 0xff},
	{R: 0x2b, G: 0x7f, B: 0xa8, A: 0xff},
	{R: 0x72, G: 0x6c, B: 0xae, A: 0xff},
	{R: 0x97, G: 0x5f, B: 0x91, A: 0xff},
}

func ceil[T constraints.Integer | constraints.Float](a T) T {
	return T(math.Ceil(float64(a)))
}

func floor[T constraints.Integer | constraints.Float](a T) T {
	return T(math.Floor(float64(a)))
}

// plotSurface adapts one Gio frame into the engine's Stage and renderer
// contracts. begin must run each frame before Engine.Render; outside a
// frame the surface ignores draw calls, since the next frame redraws
// everything anyway.
type plotSurface struct {
	gtx    C
	th     *material.Theme
	cfg    chart.Config
	geom   chart.Geometry
	active bool

	line linePlot
	bar  barPlot

	// seriesSlot pins each series label to a palette/legend slot in
	// first-seen order, so colors stay stable frame to frame and agree
	// with the legend table.
	seriesSlot map[string]int
}

func newPlotSurface(th *material.Theme) *plotSurface {
	s := &plotSurface{th: th, seriesSlot: map[string]int{}}
	s.line.s = s
	s.bar.s = s
	return s
}

func (s *plotSurface) begin(gtx C, cfg chart.Config, geom chart.Geometry) {
	s.gtx = gtx
	s.cfg = cfg
	s.geom = geom
	s.active = true
}

func (s *plotSurface) end() {
	s.active = false
}

func (s *plotSurface) Clear() {
	if !s.active {
		return
	}
	gtx := s.gtx
	paint.FillShape(gtx.Ops, backgroundColor, clip.Rect{Max: gtx.Constraints.Max}.Op())
	if s.cfg.ShowFrame {
		right := frameWidth + framePad + int(ceil(s.geom.StageWidth)) + framePad
		bottom := frameWidth + framePad + int(ceil(s.geom.StageHeight)) + framePad
		paint.FillShape(gtx.Ops, s.cfg.FrameColor, clip.Stroke{
			Path:  clip.RRect{Rect: image.Rect(frameWidth/2, frameWidth/2, right, bottom)}.Path(gtx.Ops),
			Width: frameWidth,
		}.Op())
	}
}

// PrintRuler draws gridlines across the stage and humanized range labels
// in the right gutter.
func (s *plotSurface) PrintRuler(min, max float64) {
	if !s.active {
		return
	}
	gtx := s.gtx
	left := frameWidth
	width := int(s.geom.StageWidth)
	bottom := float64(frameWidth) + s.geom.StageHeight
	for p := 0; p <= 100; p += 10 {
		y := int(bottom - float64(p)*s.geom.YSegment)
		a := uint8(40)
		if p%50 == 0 {
			a = 90
		}
		paint.FillShape(gtx.Ops, color.NRGBA{A: a}, clip.Rect{
			Min: image.Pt(left, y),
			Max: image.Pt(left+width, y+1),
		}.Op())
	}
	for _, tick := range []struct {
		value   float64
		percent int
	}{
		{max, 100},
		{(min + max) / 2, 50},
		{min, 0},
	} {
		l := material.Body2(s.th, humanize.SIWithDigits(tick.value, 2, ""))
		l.Color = s.cfg.TextColor
		l.MaxLines = 1
		y := int(bottom-float64(tick.percent)*s.geom.YSegment) - 8
		if y < 0 {
			y = 0
		}
		offset := op.Offset(image.Pt(left+width+4, y)).Push(gtx.Ops)
		tgtx := gtx
		tgtx.Constraints.Min = image.Point{}
		l.Layout(tgtx)
		offset.Pop()
	}
}

func (s *plotSurface) colorFor(op chart.DrawOp) color.NRGBA {
	idx := op.Index
	if op.ID != "" {
		slot, ok := s.seriesSlot[op.ID]
		if !ok {
			slot = len(s.seriesSlot)
			s.seriesSlot[op.ID] = slot
		}
		idx = slot
	}
	if idx < len(s.cfg.Legend) {
		return s.cfg.Legend[idx].Color
	}
	return palette[idx%len(palette)]
}

func (s *plotSurface) samplePoint(op chart.DrawOp) f32.Point {
	x := float64(frameWidth) + (float64(op.Batch)+0.5)*s.geom.XSegment
	y := float64(frameWidth) + s.geom.StageHeight - float64(op.Percent)*s.geom.YSegment
	return f32.Pt(float32(x), float32(y))
}

// linePlot accumulates one polyline per series as the engine walks the
// window, then strokes them all when the engine rewinds the frame.
type linePlot struct {
	s      *plotSurface
	series [][]f32.Point
	colors []color.NRGBA
}

func (l *linePlot) Draw(op chart.DrawOp) {
	if !l.s.active {
		return
	}
	for len(l.series) <= op.Index {
		l.series = append(l.series, nil)
		l.colors = append(l.colors, color.NRGBA{})
	}
	l.colors[op.Index] = l.s.colorFor(op)
	l.series[op.Index] = append(l.series[op.Index], l.s.samplePoint(op))
}

// Rewind strokes the accumulated polylines and returns the horizontal
// cursor to the left edge for the next frame.
func (l *linePlot) Rewind() {
	if !l.s.active {
		return
	}
	gtx := l.s.gtx
	width := float32(gtx.Dp(2))
	for i, pts := range l.series {
		if len(pts) == 0 {
			continue
		}
		var p clip.Path
		p.Begin(gtx.Ops)
		p.MoveTo(pts[0])
		for _, pt := range pts[1:] {
			p.LineTo(pt)
		}
		if len(pts) == 1 {
			// A lone sample still deserves a visible mark.
			p.LineTo(pts[0].Add(f32.Pt(width, 0)))
		}
		paint.FillShape(gtx.Ops, l.colors[i], clip.Stroke{
			Path:  p.End(),
			Width: width,
		}.Op())
		l.series[i] = l.series[i][:0]
	}
}

// barPlot fills one rectangle per sample. Bars within a time-step arrive
// largest first, so later (smaller) bars paint on top and stay visible.
type barPlot struct {
	s *plotSurface
}

func (b *barPlot) Draw(op chart.DrawOp) {
	if !b.s.active {
		return
	}
	g := b.s.geom
	gap := g.XSegment * 0.2
	x0 := float64(frameWidth) + float64(op.Batch)*g.XSegment + gap/2
	x1 := x0 + g.XSegment - gap
	if x1 < x0+1 {
		x1 = x0 + 1
	}
	bottom := float64(frameWidth) + g.StageHeight
	top := bottom - float64(op.Percent)*g.YSegment
	paint.FillShape(b.s.gtx.Ops, b.s.colorFor(op), clip.Rect{
		Min: image.Pt(int(floor(x0)), int(floor(top))),
		Max: image.Pt(int(ceil(x1)), int(ceil(bottom))),
	}.Op())
}
