// Package chart normalizes streaming numeric samples into a bounded,
// percent-scaled window and replays that window through pluggable
// renderers. Drawing itself happens outside the package: the engine only
// decides what to draw, in what order.
package chart

import (
	"cmp"
	"context"
	"errors"
	"io"
	"log"
	"slices"
)

// DrawOp tags one sample's draw instruction.
type DrawOp struct {
	// Batch is the chronological position of the sample's time-step
	// within the window.
	Batch int
	// Index is the sample's position in the batch's draw order: insertion
	// order for lines, descending-value order for bars.
	Index   int
	Percent int
	ID      string
}

// Stage clears and decorates the drawing surface between frames.
type Stage interface {
	Clear()
	// PrintRuler redraws the value ruler for the given range. Besides the
	// regular per-frame call, it fires whenever auto-expansion changes
	// the range, so labels never lag the data.
	PrintRuler(min, max float64)
}

// Renderer draws one sample per call.
type Renderer interface {
	Draw(DrawOp)
}

// LineRenderer is a Renderer whose horizontal cursor advances with every
// draw; Rewind returns it to the left edge once a frame's line is complete.
type LineRenderer interface {
	Renderer
	Rewind()
}

type engineState uint8

const (
	stateConfiguring engineState = iota
	stateReady
	stateClosed
)

// Engine owns the data window, range, and geometry of one chart and
// dispatches draw instructions to the attached renderers. An Engine is not
// safe for concurrent use; a single caller drives Append and Render.
type Engine struct {
	cfg   Config
	scale scale
	win   *window
	geom  Geometry

	stage Stage
	line  LineRenderer
	bar   Renderer

	state         engineState
	width, height int
	skipFrame     bool
	scratch       []Sample
}

// New merges cfg against its defaults, validates it, and derives the
// initial range and geometry. The engine accepts data immediately but
// renders nothing until Start resolves the readiness gate.
func New(cfg Config, stage Stage, line LineRenderer, bar Renderer) (*Engine, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:    cfg,
		scale:  newScale(cfg.MinValue, cfg.MaxValue, cfg.AutoExpand),
		win:    newWindow(cfg.WindowSize),
		stage:  stage,
		line:   line,
		bar:    bar,
		width:  cfg.Width,
		height: cfg.Height,
	}
	e.geom = computeGeometry(cfg, e.width, e.height)
	return e, nil
}

// Start awaits the host readiness gate, if any, then unlocks rendering. It
// is awaited exactly once during startup; calling it again is a no-op.
func (e *Engine) Start(ctx context.Context) error {
	if e.state == stateClosed {
		return ErrClosed
	}
	if e.cfg.Ready != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.cfg.Ready:
		}
	}
	e.state = stateReady
	return nil
}

// Config returns the merged configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Geometry returns the currently derived layout.
func (e *Engine) Geometry() Geometry {
	return e.geom
}

// Range returns the active normalization range. Under auto-expansion max
// may have grown past the configured value.
func (e *Engine) Range() (min, max float64) {
	return e.scale.min, e.scale.max
}

// Window exposes the stored batches oldest-first. Callers must treat the
// result as read-only.
func (e *Engine) Window() [][]Sample {
	return e.win.batches
}

// BatchAt maps a stage-relative x coordinate to the time-step drawn there.
func (e *Engine) BatchAt(x float64) (batch int, samples []Sample, ok bool) {
	if x < 0 || e.geom.XSegment <= 0 {
		return 0, nil, false
	}
	i := int(x / e.geom.XSegment)
	if i >= e.win.len() {
		return 0, nil, false
	}
	return i, e.win.batches[i], true
}

// Append normalizes one time-step of readings into a batch and stores it,
// evicting the oldest batch once the window is full. If a reading grows
// the range, every stored sample is renormalized before Append returns, so
// the next Render never sees a stale percent.
func (e *Engine) Append(in Input) error {
	if e.state == stateClosed {
		return ErrClosed
	}
	rs, err := resolve(in)
	if err != nil {
		return err
	}
	batch := make([]Sample, len(rs))
	expanded := false
	for i, r := range rs {
		p, grew := e.scale.percent(r.Value)
		expanded = expanded || grew
		batch[i] = Sample{Percent: p, Raw: r.Value, ID: r.ID}
	}
	if expanded {
		if err := e.win.renormalize(&e.scale); err != nil {
			// A corrupted window poisons the next frame, not the engine.
			e.skipFrame = true
			log.Printf("chart: renormalization failed: %v", err)
			return err
		}
		// Rescale the new batch too: an early reading in it may have been
		// normalized before a later one grew the range.
		for i := range batch {
			batch[i].Percent, _ = e.scale.percent(batch[i].Raw)
		}
		if e.cfg.ShowRuler && e.stage != nil {
			e.stage.PrintRuler(e.scale.min, e.scale.max)
		}
	}
	e.win.push(batch)
	return nil
}

// Resize re-derives geometry for a new surface size. Range and window
// contents are unaffected.
func (e *Engine) Resize(width, height int) {
	if width == e.width && height == e.height {
		return
	}
	e.width, e.height = width, height
	e.geom = computeGeometry(e.cfg, width, height)
}

// Render clears the stage and replays the window through the renderer for
// the configured mode. Batches draw in chronological order. In line mode
// samples keep their insertion order and the renderer is rewound once at
// the end of the frame; in bar mode each batch draws largest-first without
// disturbing the stored order. Before Start, Render does nothing.
func (e *Engine) Render() error {
	if e.state != stateReady {
		if e.state == stateClosed {
			return ErrClosed
		}
		return nil
	}
	if e.skipFrame {
		e.skipFrame = false
		return nil
	}
	e.stage.Clear()
	if e.cfg.ShowRuler {
		e.stage.PrintRuler(e.scale.min, e.scale.max)
	}
	switch e.cfg.Type {
	case Bar:
		for bi, batch := range e.win.batches {
			e.scratch = append(e.scratch[:0], batch...)
			slices.SortStableFunc(e.scratch, func(a, b Sample) int {
				return cmp.Compare(b.Percent, a.Percent)
			})
			for i, s := range e.scratch {
				e.bar.Draw(DrawOp{Batch: bi, Index: i, Percent: s.Percent, ID: s.ID})
			}
		}
	default:
		for bi, batch := range e.win.batches {
			for i, s := range batch {
				e.line.Draw(DrawOp{Batch: bi, Index: i, Percent: s.Percent, ID: s.ID})
			}
		}
		if e.win.len() > 0 {
			e.line.Rewind()
		}
	}
	return nil
}

// Close releases the engine and any attached collaborator that implements
// io.Closer. A closed engine never accepts data or renders again.
func (e *Engine) Close() error {
	if e.state == stateClosed {
		return nil
	}
	e.state = stateClosed
	var err error
	seen := make(map[io.Closer]bool, 3)
	for _, c := range []any{e.stage, e.line, e.bar} {
		if closer, ok := c.(io.Closer); ok && !seen[closer] {
			seen[closer] = true
			err = errors.Join(err, closer.Close())
		}
	}
	return err
}
