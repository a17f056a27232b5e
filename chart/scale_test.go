package chart

import "testing"

func TestScaleBounds(t *testing.T) {
	for _, r := range []struct {
		min, max float64
	}{
		{0, 100},
		{-50, 150},
		{12, 412},
		{0.5, 2.5},
	} {
		s := newScale(r.min, r.max, false)
		if p, grew := s.percent(r.min); p != 1 || grew {
			t.Errorf("[%v,%v]: percent(min) = %d (grew=%v), want 1", r.min, r.max, p, grew)
		}
		if p, _ := s.percent(r.max); p != 100 {
			t.Errorf("[%v,%v]: percent(max) = %d, want 100", r.min, r.max, p)
		}
	}
}

func TestScaleMonotonic(t *testing.T) {
	s := newScale(12, 412, false)
	prev := 0
	for raw := 12.0; raw <= 412; raw += 0.25 {
		p, _ := s.percent(raw)
		if p < prev {
			t.Fatalf("percent(%v) = %d, below previous %d", raw, p, prev)
		}
		prev = p
	}
}

func TestScaleClampsWithoutExpansion(t *testing.T) {
	s := newScale(0, 100, false)
	if p, grew := s.percent(200); p != 100 || grew {
		t.Errorf("percent(200) = %d (grew=%v), want 100 clamped", p, grew)
	}
	if s.max != 100 {
		t.Errorf("max moved to %v without auto-expand", s.max)
	}
	if p, _ := s.percent(-40); p != 1 {
		t.Errorf("percent(-40) = %d, want 1 (floor clamp)", p)
	}
}

func TestScaleExpands(t *testing.T) {
	s := newScale(0, 100, true)
	p, grew := s.percent(200)
	if !grew {
		t.Fatal("expected percent(200) to grow the range")
	}
	if s.max != 220 {
		t.Errorf("max = %v after expansion, want 220", s.max)
	}
	// round(200/220*100) = 91: the triggering reading lands inside the
	// grown range, not at a clamped 100.
	if p != 91 {
		t.Errorf("percent(200) = %d after expansion, want 91", p)
	}
	// Smaller readings never shrink the range back.
	if p, grew := s.percent(50); grew || p != 23 {
		t.Errorf("percent(50) = %d (grew=%v), want 23 against max 220", p, grew)
	}
	if s.max != 220 {
		t.Errorf("max shrank to %v", s.max)
	}
}

func TestScaleExpandsNegative(t *testing.T) {
	s := newScale(-100, -50, true)
	p, grew := s.percent(-20)
	if !grew {
		t.Fatal("expected percent(-20) to grow the range")
	}
	// -20*1.1 would shrink below the reading itself; the scale must still
	// admit it.
	if s.max < -20 {
		t.Errorf("max = %v, excludes the reading that grew it", s.max)
	}
	if p < 1 || p > 100 {
		t.Errorf("percent(-20) = %d, outside [1,100]", p)
	}
}
