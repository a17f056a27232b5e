package chart

import "math"

// expandHeadroom is the growth factor applied to a reading that exceeds the
// maximum while auto-expansion is enabled, so the next few readings fit
// without another full renormalization.
const expandHeadroom = 1.1

// scale maps raw readings onto the 0-100 percent axis.
type scale struct {
	min, max, span float64
	autoExpand     bool
}

func newScale(min, max float64, autoExpand bool) scale {
	return scale{min: min, max: max, span: max - min, autoExpand: autoExpand}
}

// percent converts a raw reading into a display percent in [1,100].
// expanded reports whether the scale grew to admit the reading; the caller
// must renormalize previously stored samples when it did. The maximum only
// ever grows for the lifetime of the scale.
func (s *scale) percent(raw float64) (p int, expanded bool) {
	if s.autoExpand && raw > s.max {
		next := raw * expandHeadroom
		if next < raw {
			// Negative readings scale the wrong way; admit them exactly.
			next = raw
		}
		s.max = next
		s.span = s.max - s.min
		expanded = true
	}
	v := raw
	if v < s.min {
		v = s.min
	}
	if v > s.max {
		v = s.max
	}
	p = int(math.Round((v - s.min) / s.span * 100))
	if p < 1 {
		// A reading at the floor of the range still occupies one percent
		// of the stage, so every stored sample is displayable.
		p = 1
	}
	return p, expanded
}
