package chart

// Fixed layout constants. The border is drawn by the stage when ShowFrame
// is set, but its thickness is always reserved.
const (
	borderWidth  = 2
	innerPadding = 2
	// rulerGutter is the extra right padding reserved when the ruler is
	// shown; legendGutter the extra bottom padding for a non-empty legend.
	rulerGutter  = 30
	legendGutter = 30
)

// Geometry is the derived pixel layout of the stage. It is recomputed from
// scratch on every size- or padding-affecting change; there is no
// incremental update path.
type Geometry struct {
	// StageWidth and StageHeight are the drawable area inside borders,
	// padding, and gutters.
	StageWidth, StageHeight float64
	// XSegment is the horizontal space of one time-step; YSegment the
	// vertical space of one percent. Percent space is always 0-100
	// regardless of the raw range.
	XSegment, YSegment float64
	// PaddingRight and PaddingBottom include the ruler and legend gutters
	// when those are configured.
	PaddingRight, PaddingBottom int
}

// computeGeometry derives the stage geometry for the given surface size.
// Pure function of its arguments.
func computeGeometry(cfg Config, width, height int) Geometry {
	g := Geometry{
		PaddingRight:  cfg.PaddingRight,
		PaddingBottom: cfg.PaddingBottom,
	}
	if cfg.ShowRuler {
		g.PaddingRight += rulerGutter
	}
	if len(cfg.Legend) > 0 {
		g.PaddingBottom += legendGutter
	}
	g.StageWidth = float64(width - borderWidth - g.PaddingRight - innerPadding)
	g.StageHeight = float64(height - borderWidth - g.PaddingBottom - innerPadding)
	g.XSegment = g.StageWidth / float64(cfg.WindowSize)
	g.YSegment = g.StageHeight / 100
	return g
}
