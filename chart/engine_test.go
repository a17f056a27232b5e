package chart

import (
	"context"
	"errors"
	"math"
	"testing"
)

type fakeStage struct {
	clears   int
	rulers   int
	rulerMin float64
	rulerMax float64
	closed   int
}

func (s *fakeStage) Clear() { s.clears++ }

func (s *fakeStage) PrintRuler(min, max float64) {
	s.rulers++
	s.rulerMin, s.rulerMax = min, max
}

func (s *fakeStage) Close() error {
	s.closed++
	return nil
}

type fakeRenderer struct {
	ops     []DrawOp
	rewinds int
}

func (r *fakeRenderer) Draw(op DrawOp) { r.ops = append(r.ops, op) }
func (r *fakeRenderer) Rewind()        { r.rewinds++ }

func newTestEngine(t *testing.T, cfg Config) (*Engine, *fakeStage, *fakeRenderer, *fakeRenderer) {
	t.Helper()
	stage := &fakeStage{}
	line := &fakeRenderer{}
	bar := &fakeRenderer{}
	e, err := New(cfg, stage, line, bar)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return e, stage, line, bar
}

func TestNewRejectsFlatRange(t *testing.T) {
	for _, r := range []struct{ min, max float64 }{{5, 5}, {10, 3}, {5, 0}} {
		_, err := New(Config{MinValue: r.min, MaxValue: r.max}, &fakeStage{}, &fakeRenderer{}, &fakeRenderer{})
		if !errors.Is(err, ErrInvalidRange) {
			t.Errorf("min %v max %v: err = %v, want ErrInvalidRange", r.min, r.max, err)
		}
	}
}

func TestAppendRejectsBadInput(t *testing.T) {
	e, _, _, _ := newTestEngine(t, Config{WindowSize: 3})
	for name, in := range map[string]Input{
		"nil input":   nil,
		"empty batch": Readings{},
		"NaN":         Scalar(math.NaN()),
		"+Inf":        Scalar(math.Inf(1)),
		"NaN in batch": Readings{
			{Value: 1},
			{Value: math.NaN()},
		},
	} {
		if err := e.Append(in); !errors.Is(err, ErrInvalidSample) {
			t.Errorf("%s: err = %v, want ErrInvalidSample", name, err)
		}
	}
	if got := len(e.Window()); got != 0 {
		t.Errorf("rejected input still stored %d batches", got)
	}
}

func TestAppendClampsWhenExpansionDisabled(t *testing.T) {
	e, _, _, _ := newTestEngine(t, Config{WindowSize: 3, MinValue: 0, MaxValue: 100})
	for _, v := range []float64{10, 200, 50, 90} {
		if err := e.Append(Scalar(v)); err != nil {
			t.Fatalf("Append(%v) failed: %v", v, err)
		}
	}
	win := e.Window()
	if len(win) != 3 {
		t.Fatalf("window length = %d, want 3", len(win))
	}
	want := []int{100, 50, 90}
	for i, batch := range win {
		if batch[0].Percent != want[i] {
			t.Errorf("batch %d percent = %d, want %d", i, batch[0].Percent, want[i])
		}
	}
	if _, max := e.Range(); max != 100 {
		t.Errorf("max grew to %v with expansion disabled", max)
	}
}

func TestAppendExpandsAndRenormalizes(t *testing.T) {
	e, stage, _, _ := newTestEngine(t, Config{
		WindowSize: 3,
		MinValue:   0,
		MaxValue:   100,
		AutoExpand: true,
		ShowRuler:  true,
	})
	if err := e.Append(Scalar(10)); err != nil {
		t.Fatalf("Append(10) failed: %v", err)
	}
	if got := e.Window()[0][0].Percent; got != 10 {
		t.Fatalf("raw 10 against [0,100] = %d, want 10", got)
	}
	rulersBefore := stage.rulers
	if err := e.Append(Scalar(200)); err != nil {
		t.Fatalf("Append(200) failed: %v", err)
	}
	if _, max := e.Range(); max != 220 {
		t.Errorf("max = %v after expansion, want 220", max)
	}
	if got := e.Window()[0][0].Percent; got != 5 {
		t.Errorf("raw 10 renormalized to %d, want 5 against [0,220]", got)
	}
	if got := e.Window()[1][0].Percent; got != 91 {
		t.Errorf("raw 200 stored as %d, want 91 against [0,220]", got)
	}
	if stage.rulers != rulersBefore+1 || stage.rulerMax != 220 {
		t.Errorf("ruler not reprinted for the new range: prints %d, max %v", stage.rulers, stage.rulerMax)
	}
}

func TestRenderEmptyWindow(t *testing.T) {
	e, stage, line, bar := newTestEngine(t, Config{WindowSize: 3})
	if err := e.Render(); err != nil {
		t.Fatalf("Render of empty window failed: %v", err)
	}
	if stage.clears != 1 {
		t.Errorf("stage cleared %d times, want 1", stage.clears)
	}
	if len(line.ops) != 0 || len(bar.ops) != 0 || line.rewinds != 0 {
		t.Errorf("empty window issued draw instructions: %d line, %d bar, %d rewinds",
			len(line.ops), len(bar.ops), line.rewinds)
	}
}

func TestRenderLineOrder(t *testing.T) {
	e, _, line, bar := newTestEngine(t, Config{WindowSize: 5})
	batches := []Readings{
		{{Value: 20, ID: "a"}, {Value: 40, ID: "b"}},
		{{Value: 60, ID: "a"}, {Value: 30, ID: "b"}},
	}
	for _, b := range batches {
		if err := e.Append(b); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if err := e.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	want := []DrawOp{
		{Batch: 0, Index: 0, Percent: 20, ID: "a"},
		{Batch: 0, Index: 1, Percent: 40, ID: "b"},
		{Batch: 1, Index: 0, Percent: 60, ID: "a"},
		{Batch: 1, Index: 1, Percent: 30, ID: "b"},
	}
	if len(line.ops) != len(want) {
		t.Fatalf("line drew %d ops, want %d", len(line.ops), len(want))
	}
	for i, op := range line.ops {
		if op != want[i] {
			t.Errorf("op %d = %+v, want %+v", i, op, want[i])
		}
	}
	if line.rewinds != 1 {
		t.Errorf("rewound %d times, want exactly 1 per frame", line.rewinds)
	}
	if len(bar.ops) != 0 {
		t.Errorf("bar renderer drew %d ops in line mode", len(bar.ops))
	}
}

func TestRenderBarSortsDescendingStable(t *testing.T) {
	e, _, line, bar := newTestEngine(t, Config{Type: Bar, WindowSize: 5})
	err := e.Append(Readings{
		{Value: 10, ID: "a"},
		{Value: 30, ID: "b"},
		{Value: 30, ID: "c"},
		{Value: 20, ID: "d"},
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := e.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	wantIDs := []string{"b", "c", "d", "a"}
	if len(bar.ops) != len(wantIDs) {
		t.Fatalf("bar drew %d ops, want %d", len(bar.ops), len(wantIDs))
	}
	for i, op := range bar.ops {
		if op.ID != wantIDs[i] {
			t.Errorf("draw %d is %q, want %q (equal values must keep input order)", i, op.ID, wantIDs[i])
		}
		if op.Batch != 0 || op.Index != i {
			t.Errorf("draw %d tagged (%d,%d), want (0,%d)", i, op.Batch, op.Index, i)
		}
	}
	// The stored window keeps insertion order; only the draw order sorts.
	storedIDs := []string{"a", "b", "c", "d"}
	for i, s := range e.Window()[0] {
		if s.ID != storedIDs[i] {
			t.Errorf("stored sample %d is %q, want %q", i, s.ID, storedIDs[i])
		}
	}
	if len(line.ops) != 0 {
		t.Errorf("line renderer drew %d ops in bar mode", len(line.ops))
	}
}

func TestStartGate(t *testing.T) {
	stage := &fakeStage{}
	gate := make(chan struct{})
	e, err := New(Config{Ready: gate}, stage, &fakeRenderer{}, &fakeRenderer{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	// Rendering before the gate resolves draws nothing and is not an error.
	if err := e.Render(); err != nil {
		t.Fatalf("Render before Start failed: %v", err)
	}
	if stage.clears != 0 {
		t.Error("stage cleared before the readiness gate resolved")
	}
	// A cancelled context abandons the wait.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := e.Start(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Start with cancelled context = %v, want context.Canceled", err)
	}
	close(gate)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start failed after gate closed: %v", err)
	}
	if err := e.Render(); err != nil {
		t.Fatalf("Render failed after Start: %v", err)
	}
	if stage.clears != 1 {
		t.Errorf("stage cleared %d times after Start, want 1", stage.clears)
	}
}

func TestStartInlineWithRenderLoop(t *testing.T) {
	stage := &fakeStage{}
	gate := make(chan struct{})
	e, err := New(Config{Ready: gate}, stage, &fakeRenderer{}, &fakeRenderer{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	// A host frame loop owns the engine exclusively: it renders no-ops
	// until its surface is up, then closes the gate and starts the engine
	// inline before the next draw. Start must return immediately once the
	// gate has resolved so the loop never stalls.
	for frame := 0; frame < 1000; frame++ {
		if frame == 3 {
			close(gate)
			if err := e.Start(context.Background()); err != nil {
				t.Fatalf("Start after resolved gate failed: %v", err)
			}
		}
		if err := e.Render(); err != nil {
			t.Fatalf("Render on frame %d failed: %v", frame, err)
		}
	}
	if stage.clears != 1000-3 {
		t.Errorf("stage cleared %d times, want %d (frames after the gate)", stage.clears, 1000-3)
	}
}

func TestRenormalizeFailureSkipsOneFrame(t *testing.T) {
	e, stage, line, _ := newTestEngine(t, Config{
		WindowSize: 3,
		MinValue:   0,
		MaxValue:   100,
		AutoExpand: true,
	})
	if err := e.Append(Scalar(10)); err != nil {
		t.Fatalf("Append(10) failed: %v", err)
	}
	// Corrupt the stored raw behind the engine's back so the expansion's
	// full renormalization fails.
	e.win.batches[0][0].Raw = math.NaN()
	if err := e.Append(Scalar(200)); !errors.Is(err, ErrInvalidSample) {
		t.Fatalf("Append over a corrupted window = %v, want ErrInvalidSample", err)
	}
	// The failure poisons only the next frame, which draws nothing.
	if err := e.Render(); err != nil {
		t.Fatalf("Render of the poisoned frame failed: %v", err)
	}
	if stage.clears != 0 || len(line.ops) != 0 {
		t.Errorf("poisoned frame still drew: %d clears, %d ops", stage.clears, len(line.ops))
	}
	// The engine itself survives and renders normally afterwards.
	if err := e.Render(); err != nil {
		t.Fatalf("Render after the poisoned frame failed: %v", err)
	}
	if stage.clears != 1 {
		t.Errorf("stage cleared %d times after recovery, want 1", stage.clears)
	}
	if len(line.ops) == 0 {
		t.Error("no draw instructions after recovery")
	}
}

func TestCloseReleasesCollaborators(t *testing.T) {
	e, stage, _, _ := newTestEngine(t, Config{WindowSize: 3})
	if err := e.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if stage.closed != 1 {
		t.Errorf("stage closed %d times, want 1", stage.closed)
	}
	if err := e.Append(Scalar(1)); !errors.Is(err, ErrClosed) {
		t.Errorf("Append after Close = %v, want ErrClosed", err)
	}
	if err := e.Render(); !errors.Is(err, ErrClosed) {
		t.Errorf("Render after Close = %v, want ErrClosed", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
	if stage.closed != 1 {
		t.Errorf("stage closed again on repeat Close: %d times", stage.closed)
	}
}

func TestResizeRederivesGeometry(t *testing.T) {
	e, _, _, _ := newTestEngine(t, Config{WindowSize: 10, Width: 400, Height: 200})
	before := e.Geometry()
	e.Resize(800, 200)
	after := e.Geometry()
	if want := float64(800-borderWidth-innerPadding) / 10; after.XSegment != want {
		t.Errorf("x segment after resize = %v, want %v (was %v)", after.XSegment, want, before.XSegment)
	}
	if after.YSegment != before.YSegment {
		t.Errorf("width-only resize moved y segment %v -> %v", before.YSegment, after.YSegment)
	}
}

func TestBatchAt(t *testing.T) {
	e, _, _, _ := newTestEngine(t, Config{WindowSize: 10, Width: 400, Height: 200})
	for _, v := range []float64{11, 22} {
		if err := e.Append(Scalar(v)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	seg := e.Geometry().XSegment
	if i, samples, ok := e.BatchAt(seg * 1.5); !ok || i != 1 || samples[0].Raw != 22 {
		t.Errorf("BatchAt(mid of segment 1) = %d (ok=%v), want batch 1", i, ok)
	}
	if _, _, ok := e.BatchAt(seg * 5); ok {
		t.Error("BatchAt past the populated window reported a batch")
	}
	if _, _, ok := e.BatchAt(-1); ok {
		t.Error("BatchAt(-1) reported a batch")
	}
}
