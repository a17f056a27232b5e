package chart

import "testing"

func TestWindowLengthInvariant(t *testing.T) {
	const capacity = 3
	w := newWindow(capacity)
	for i := 1; i <= 7; i++ {
		w.push([]Sample{{Percent: 1, Raw: float64(i)}})
		want := i
		if want > capacity {
			want = capacity
		}
		if w.len() != want {
			t.Errorf("after %d pushes len = %d, want %d", i, w.len(), want)
		}
	}
}

func TestWindowEvictsOldestFirst(t *testing.T) {
	w := newWindow(3)
	for i := 0; i < 5; i++ {
		w.push([]Sample{{Percent: 1, Raw: float64(i)}})
	}
	for i, batch := range w.batches {
		if want := float64(i + 2); batch[0].Raw != want {
			t.Errorf("batch %d holds raw %v, want %v", i, batch[0].Raw, want)
		}
	}
}

func TestWindowRenormalizeIdempotent(t *testing.T) {
	w := newWindow(4)
	w.push([]Sample{{Percent: 10, Raw: 10}, {Percent: 55, Raw: 55}})
	w.push([]Sample{{Percent: 90, Raw: 90}})

	s := newScale(0, 220, false)
	if err := w.renormalize(&s); err != nil {
		t.Fatalf("renormalize failed: %v", err)
	}
	first := snapshotPercents(w)
	if err := w.renormalize(&s); err != nil {
		t.Fatalf("second renormalize failed: %v", err)
	}
	second := snapshotPercents(w)
	if len(first) != len(second) {
		t.Fatalf("window size changed across renormalizations: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("sample %d: percent %d then %d, want identical", i, first[i], second[i])
		}
	}
	// Spot-check the derived values against the wider range.
	if got := w.batches[0][0].Percent; got != 5 {
		t.Errorf("raw 10 against [0,220] = %d, want 5", got)
	}
	if got := w.batches[1][0].Percent; got != 41 {
		t.Errorf("raw 90 against [0,220] = %d, want 41", got)
	}
}

func snapshotPercents(w *window) []int {
	var out []int
	for _, batch := range w.batches {
		for _, s := range batch {
			out = append(out, s.Percent)
		}
	}
	return out
}
