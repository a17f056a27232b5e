package chart

import (
	"fmt"
	"math"
)

// Sample is one normalized datapoint retained by the window.
type Sample struct {
	// Percent is the display value in [1,100], derived from Raw and the
	// current range. It is rewritten whenever the range grows.
	Percent int
	// Raw is the original reading, kept so Percent can be recomputed.
	Raw float64
	// ID carries the series label the reading arrived with, if any.
	ID string
}

// Reading is one raw input value, optionally tagged with a series label.
type Reading struct {
	Value float64
	ID    string
}

// Input is one time-step of data passed to Engine.Append: a bare value, a
// tagged reading, or several readings at once. Scalar, Reading, and
// Readings are the only implementations.
type Input interface {
	readings() ([]Reading, error)
}

// Scalar is a single untagged value.
type Scalar float64

func (s Scalar) readings() ([]Reading, error) {
	return []Reading{{Value: float64(s)}}, nil
}

func (r Reading) readings() ([]Reading, error) {
	return []Reading{r}, nil
}

// Readings is a multi-series time-step: one reading per series, appended
// together and kept positionally aligned across the window.
type Readings []Reading

func (rs Readings) readings() ([]Reading, error) {
	if len(rs) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrInvalidSample)
	}
	return rs, nil
}

// resolve flattens an Input into canonical readings, rejecting anything
// that could poison the window.
func resolve(in Input) ([]Reading, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: nil input", ErrInvalidSample)
	}
	rs, err := in.readings()
	if err != nil {
		return nil, err
	}
	for _, r := range rs {
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			return nil, fmt.Errorf("%w: non-finite value %v", ErrInvalidSample, r.Value)
		}
	}
	return rs, nil
}
