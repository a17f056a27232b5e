package chart

import "testing"

func TestComputeGeometry(t *testing.T) {
	base := Config{WindowSize: 60, MaxValue: 100, Width: 640, Height: 320}
	for _, tc := range []struct {
		name                        string
		mutate                      func(*Config)
		paddingRight, paddingBottom int
	}{
		{
			name:   "bare",
			mutate: func(*Config) {},
		},
		{
			name:         "ruler reserves the right gutter",
			mutate:       func(c *Config) { c.ShowRuler = true },
			paddingRight: 30,
		},
		{
			name:          "legend reserves the bottom gutter",
			mutate:        func(c *Config) { c.Legend = []LegendEntry{{Label: "a"}} },
			paddingBottom: 30,
		},
		{
			name: "configured padding stacks with gutters",
			mutate: func(c *Config) {
				c.ShowRuler = true
				c.Legend = []LegendEntry{{Label: "a"}, {Label: "b"}}
				c.PaddingRight = 10
				c.PaddingBottom = 5
			},
			paddingRight:  40,
			paddingBottom: 35,
		},
	} {
		cfg := base
		tc.mutate(&cfg)
		g := computeGeometry(cfg, cfg.Width, cfg.Height)
		if g.PaddingRight != tc.paddingRight {
			t.Errorf("%s: padding right = %d, want %d", tc.name, g.PaddingRight, tc.paddingRight)
		}
		if g.PaddingBottom != tc.paddingBottom {
			t.Errorf("%s: padding bottom = %d, want %d", tc.name, g.PaddingBottom, tc.paddingBottom)
		}
		wantW := float64(cfg.Width - borderWidth - g.PaddingRight - innerPadding)
		wantH := float64(cfg.Height - borderWidth - g.PaddingBottom - innerPadding)
		if g.StageWidth != wantW || g.StageHeight != wantH {
			t.Errorf("%s: stage %vx%v, want %vx%v", tc.name, g.StageWidth, g.StageHeight, wantW, wantH)
		}
		if g.XSegment != wantW/60 {
			t.Errorf("%s: x segment = %v, want %v", tc.name, g.XSegment, wantW/60)
		}
		if g.YSegment != wantH/100 {
			t.Errorf("%s: y segment = %v, want %v", tc.name, g.YSegment, wantH/100)
		}
	}
}

func TestGeometryIgnoresRawRange(t *testing.T) {
	a := computeGeometry(Config{WindowSize: 10, MinValue: 0, MaxValue: 100, Width: 400, Height: 200}, 400, 200)
	b := computeGeometry(Config{WindowSize: 10, MinValue: -5000, MaxValue: 9000, Width: 400, Height: 200}, 400, 200)
	if a.YSegment != b.YSegment {
		t.Errorf("y segment follows the raw range: %v vs %v; percent space is fixed", a.YSegment, b.YSegment)
	}
}
