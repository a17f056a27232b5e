package chart

import (
	"fmt"
	"math"
	"slices"
)

// window is the bounded, insertion-ordered store of recent sample batches.
// Batch i is time-step i of the visible window; eviction is strictly FIFO
// and the stored order is never rearranged.
type window struct {
	batches [][]Sample
	cap     int
}

func newWindow(capacity int) *window {
	return &window{batches: make([][]Sample, 0, capacity+1), cap: capacity}
}

// push appends a fully-normalized batch, evicting the oldest batch if the
// window ran over capacity. Because push runs after every single append,
// capacity is only ever exceeded by one.
func (w *window) push(b []Sample) {
	w.batches = append(w.batches, b)
	if len(w.batches) > w.cap {
		w.batches = slices.Delete(w.batches, 0, 1)
	}
}

func (w *window) len() int {
	return len(w.batches)
}

// renormalize rewrites every stored percent from its retained raw value
// against the given scale. Raws are never touched, so running it twice
// yields the same window.
func (w *window) renormalize(s *scale) error {
	for _, batch := range w.batches {
		for i := range batch {
			if math.IsNaN(batch[i].Raw) || math.IsInf(batch[i].Raw, 0) {
				return fmt.Errorf("stored sample %q: %w", batch[i].ID, ErrInvalidSample)
			}
			batch[i].Percent, _ = s.percent(batch[i].Raw)
		}
	}
	return nil
}
