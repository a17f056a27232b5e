package main

import (
	"image"
	"image/color"
	"strconv"

	"gioui.org/f32"
	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/widget/material"

	"git.sr.ht/~arlen/stripchart/chart"
)

// hoverState tracks the pointer over the plot area and surfaces the
// samples of the time-step beneath it.
type hoverState struct {
	pos       f32.Point
	isHovered bool
}

func (h *hoverState) update(gtx C, tag event.Tag) {
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target: tag,
			Kinds:  pointer.Enter | pointer.Leave | pointer.Move,
		})
		if !ok {
			break
		}
		switch ev := ev.(type) {
		case pointer.Event:
			switch ev.Kind {
			case pointer.Enter:
				h.isHovered = true
				h.pos = ev.Position
			case pointer.Leave, pointer.Cancel:
				h.isHovered = false
			case pointer.Move:
				h.pos = ev.Position
			}
		}
	}
}

// layout draws a marker over the hovered time-step with a readout of its
// raw values, and fires the engine's hover callback if one is configured.
func (h *hoverState) layout(gtx C, th *material.Theme, engine *chart.Engine, surface *plotSurface) D {
	if !h.isHovered {
		return D{}
	}
	batch, samples, ok := engine.BatchAt(float64(h.pos.X) - frameWidth)
	if !ok {
		return D{}
	}
	if cb := engine.Config().OnHover; cb != nil {
		cb(chart.HoverData{Batch: batch, Samples: samples})
	}
	geom := engine.Geometry()
	xL := frameWidth + int(float64(batch)*geom.XSegment)
	xR := xL + max(int(geom.XSegment), gtx.Dp(1))
	paint.FillShape(gtx.Ops, color.NRGBA{A: 60}, clip.Rect{
		Min: image.Pt(xL, frameWidth),
		Max: image.Pt(xR, frameWidth+int(geom.StageHeight)),
	}.Op())

	children := make([]layout.FlexChild, 0, len(samples))
	for i := range samples {
		s := samples[i]
		swatch := surface.colorFor(chart.DrawOp{Batch: batch, Index: i, Percent: s.Percent, ID: s.ID})
		label := strconv.FormatFloat(s.Raw, 'f', 3, 64)
		if s.ID != "" {
			label = s.ID + ": " + label
		}
		children = append(children, layout.Rigid(func(gtx C) D {
			return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
				layout.Rigid(func(gtx C) D {
					size := image.Pt(gtx.Dp(8), gtx.Dp(8))
					paint.FillShape(gtx.Ops, swatch, clip.Ellipse{Max: size}.Op(gtx.Ops))
					return D{Size: size}
				}),
				layout.Rigid(layout.Spacer{Width: 8}.Layout),
				layout.Rigid(material.Body2(th, label).Layout),
			)
		}))
	}

	origConstraints := gtx.Constraints
	gtx.Constraints.Min = image.Point{}
	readoutMacro := op.Record(gtx.Ops)
	readoutDims := layout.Background{}.Layout(gtx,
		func(gtx C) D {
			paint.FillShape(gtx.Ops, color.NRGBA{R: 255, G: 255, B: 255, A: 200}, clip.Rect{Max: gtx.Constraints.Min}.Op())
			return D{Size: gtx.Constraints.Min}
		},
		func(gtx C) D {
			return layout.UniformInset(10).Layout(gtx, func(gtx C) D {
				return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
			})
		},
	)
	readoutCall := readoutMacro.Stop()
	gtx.Constraints = origConstraints

	pos := image.Point{}
	if xL > gtx.Constraints.Max.X-xR {
		pos.X = max(xL-readoutDims.Size.X, 0)
	} else {
		pos.X = min(xR, gtx.Constraints.Max.X-readoutDims.Size.X)
	}
	if offscreenY := gtx.Constraints.Max.Y - (int(h.pos.Y) + readoutDims.Size.Y); offscreenY < 0 {
		pos.Y = int(h.pos.Y) + offscreenY
	} else {
		pos.Y = int(h.pos.Y)
	}
	transform := op.Offset(pos).Push(gtx.Ops)
	readoutCall.Add(gtx.Ops)
	transform.Pop()
	return readoutDims
}
