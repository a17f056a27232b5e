package chart

import (
	"fmt"
	"image/color"
)

// Type selects how the window is drawn.
type Type uint8

const (
	// Line draws one polyline per series across the window.
	Line Type = iota
	// Bar draws one bar per sample, largest first within each time-step.
	Bar
)

// LegendEntry describes one series in the chart legend. A non-empty legend
// reserves a gutter below the stage.
type LegendEntry struct {
	Label string
	Color color.NRGBA
}

// HoverData is handed to the OnHover callback while the pointer rests over
// a time-step of the window.
type HoverData struct {
	// Batch is the chronological position of the hovered time-step.
	Batch int
	// Samples are the stored samples of that time-step, oldest series
	// first. Read-only.
	Samples []Sample
}

// Config describes one chart. The zero value is usable: New merges it
// against the defaults below and validates the result. A Config is never
// mutated after the engine is created; size changes go through
// Engine.Resize instead.
type Config struct {
	Type          Type
	Width, Height int
	// WindowSize is the number of time-steps kept and displayed. Older
	// batches are evicted first-in, first-out.
	WindowSize int
	// MinValue and MaxValue bound the displayed range. MaxValue must be
	// greater than MinValue. MaxValue defaults to 100 only when both
	// fields are zero; a config that sets MinValue alone must also supply
	// a MaxValue above it or New fails with ErrInvalidRange.
	MinValue, MaxValue float64
	// AutoExpand grows MaxValue (with headroom) whenever a reading
	// exceeds it, renormalizing the whole window. The range never
	// shrinks back.
	AutoExpand bool
	ShowRuler  bool
	ShowFrame  bool
	TextColor  color.NRGBA
	FrameColor color.NRGBA
	Legend     []LegendEntry
	// PaddingRight and PaddingBottom are added to the gutters the ruler
	// and legend already reserve.
	PaddingRight, PaddingBottom int
	// Responsive charts expect Resize calls as the host surface changes.
	Responsive bool
	// OnHover, when set, is invoked by the hover collaborator; the engine
	// itself never calls it.
	OnHover func(HoverData)
	// Ready gates the transition out of the configuring state: Start
	// blocks until the channel is closed (or yields). A nil channel means
	// the host is ready immediately.
	Ready <-chan struct{}
}

func (c Config) withDefaults() Config {
	if c.Width == 0 {
		c.Width = 640
	}
	if c.Height == 0 {
		c.Height = 320
	}
	if c.WindowSize == 0 {
		c.WindowSize = 100
	}
	if c.MinValue == 0 && c.MaxValue == 0 {
		c.MaxValue = 100
	}
	if c.TextColor == (color.NRGBA{}) {
		c.TextColor = color.NRGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xff}
	}
	if c.FrameColor == (color.NRGBA{}) {
		c.FrameColor = color.NRGBA{R: 0x90, G: 0x90, B: 0x90, A: 0xff}
	}
	return c
}

func (c Config) validate() error {
	if c.MaxValue <= c.MinValue {
		return fmt.Errorf("%w (min %v, max %v)", ErrInvalidRange, c.MinValue, c.MaxValue)
	}
	if c.WindowSize < 1 {
		return fmt.Errorf("chart: window size must be positive, got %d", c.WindowSize)
	}
	if c.Width < 1 || c.Height < 1 {
		return fmt.Errorf("chart: surface size %dx%d is not drawable", c.Width, c.Height)
	}
	return nil
}
