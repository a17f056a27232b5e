package main

import (
	"image"
	"image/color"
	"log"
	"strconv"

	"gioui.org/io/event"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/component"
	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"git.sr.ht/~arlen/stripchart/backend"
	"git.sr.ht/~arlen/stripchart/chart"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

var pauseIcon = func() *widget.Icon {
	icon, _ := widget.NewIcon(icons.AVPause)
	return icon
}()

var playIcon = func() *widget.Icon {
	icon, _ := widget.NewIcon(icons.AVPlayArrow)
	return icon
}()

// UI holds the state of and draws the top-level UI: a toolbar, the plot
// area, and a legend table.
type UI struct {
	ws   backend.WindowState
	expl *explorer.Explorer

	engine  *chart.Engine
	surface *plotSurface
	hover   hoverState

	paused     bool
	pauseBtn   widget.Clickable
	openBtn    widget.Clickable
	legendGrid component.GridState

	// seriesOrder and latest feed the legend table: labels in first-seen
	// order and the most recent raw value per series.
	seriesOrder []string
	latest      map[string]float64

	lastSize image.Point

	th           *material.Theme
	statusStream *stream.Stream[backend.Status]
	status       backend.Status
}

func NewUI(ws backend.WindowState, expl *explorer.Explorer, engine *chart.Engine, surface *plotSurface) *UI {
	return &UI{
		ws:           ws,
		expl:         expl,
		engine:       engine,
		surface:      surface,
		latest:       map[string]float64{},
		th:           surface.th,
		statusStream: stream.New(ws.Controller, ws.Bundle.Datasource.Status),
	}
}

// Paused reports whether the user froze the display. While paused, the
// window keeps its contents and new time-steps queue up behind it.
func (ui *UI) Paused() bool {
	return ui.paused
}

// Ingest appends one time-step to the engine and records the latest raw
// value per series for the legend.
func (ui *UI) Ingest(batch []chart.Reading) {
	if err := ui.engine.Append(chart.Readings(batch)); err != nil {
		log.Printf("dropping batch: %v", err)
		return
	}
	for _, r := range batch {
		if _, ok := ui.latest[r.ID]; !ok {
			ui.seriesOrder = append(ui.seriesOrder, r.ID)
		}
		ui.latest[r.ID] = r.Value
	}
}

// Update the state of the UI and process events. Runs once at the top of
// every frame.
func (ui *UI) Update(gtx C) {
	ui.statusStream.ReadInto(gtx, &ui.status, backend.Status{})
	if ui.pauseBtn.Clicked(gtx) {
		ui.paused = !ui.paused
	}
	if ui.openBtn.Clicked(gtx) {
		go func() {
			if err := ui.ws.Bundle.Datasource.OpenWith(ui.expl); err != nil {
				log.Printf("opening recorded data: %v", err)
			}
		}()
	}
}

// Layout the UI into the provided context.
func (ui *UI) Layout(gtx C) D {
	ui.Update(gtx)
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(ui.layoutToolbar),
		layout.Flexed(1, ui.layoutPlot),
		layout.Rigid(ui.layoutLegend),
	)
}

func (ui *UI) layoutToolbar(gtx C) D {
	icon := pauseIcon
	if ui.paused {
		icon = playIcon
	}
	return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Min = image.Point{}
			return material.Clickable(gtx, &ui.pauseBtn, func(gtx C) D {
				return layout.UniformInset(4).Layout(gtx, func(gtx C) D {
					side := gtx.Dp(24)
					gtx.Constraints = layout.Exact(image.Pt(side, side))
					return icon.Layout(gtx, ui.th.Fg)
				})
			})
		}),
		layout.Rigid(layout.Spacer{Width: 8}.Layout),
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Min = image.Point{}
			return material.Button(ui.th, &ui.openBtn, "Open CSV").Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Width: 12}.Layout),
		layout.Flexed(1, func(gtx C) D {
			l := material.Body2(ui.th, ui.statusLine())
			l.MaxLines = 1
			if ui.status.Err != nil {
				l.Color = color.NRGBA{R: 150, A: 255}
			}
			return l.Layout(gtx)
		}),
	)
}

func (ui *UI) statusLine() string {
	if ui.status.Err != nil {
		return ui.status.Err.Error()
	}
	switch ui.status.Mode {
	case backend.ModeStreaming:
		return "streaming " + ui.status.Source
	case backend.ModeFollowing:
		return "following " + ui.status.Source
	case backend.ModeScraping:
		return "scraping " + ui.status.Source
	}
	return "waiting for data"
}

func (ui *UI) layoutPlot(gtx C) D {
	sz := gtx.Constraints.Max
	if ui.engine.Config().Responsive && sz != ui.lastSize {
		ui.lastSize = sz
		ui.engine.Resize(sz.X, sz.Y)
	}
	defer clip.Rect{Max: sz}.Push(gtx.Ops).Pop()
	event.Op(gtx.Ops, ui)
	ui.hover.update(gtx, ui)
	ui.surface.begin(gtx, ui.engine.Config(), ui.engine.Geometry())
	if err := ui.engine.Render(); err != nil {
		log.Printf("rendering: %v", err)
	}
	ui.surface.end()
	ui.hover.layout(gtx, ui.th, ui.engine, ui.surface)
	return D{Size: sz}
}

type legendRow struct {
	label string
	color color.NRGBA
	value string
}

func (ui *UI) legendRows() []legendRow {
	cfg := ui.engine.Config()
	if len(cfg.Legend) > 0 {
		rows := make([]legendRow, 0, len(cfg.Legend))
		for _, entry := range cfg.Legend {
			rows = append(rows, legendRow{
				label: entry.Label,
				color: entry.Color,
				value: ui.latestLabel(entry.Label),
			})
		}
		return rows
	}
	rows := make([]legendRow, 0, len(ui.seriesOrder))
	for i, id := range ui.seriesOrder {
		rows = append(rows, legendRow{
			label: id,
			color: palette[i%len(palette)],
			value: ui.latestLabel(id),
		})
	}
	return rows
}

func (ui *UI) latestLabel(id string) string {
	v, ok := ui.latest[id]
	if !ok {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func (ui *UI) layoutLegend(gtx C) D {
	rows := ui.legendRows()
	if len(rows) == 0 {
		return D{}
	}
	table := component.Table(ui.th, &ui.legendGrid)
	table.HScrollbarStyle.Indicator.MinorWidth = 0
	table.HScrollbarStyle.Track.MinorPadding = 0
	table.VScrollbarStyle.Indicator.MinorWidth = 0
	table.VScrollbarStyle.Track.MinorPadding = 0
	colorColWidth := gtx.Dp(50)
	valueColWidth := gtx.Dp(100)
	nameColWidth := gtx.Constraints.Max.X - colorColWidth - valueColWidth - gtx.Dp(table.VScrollbarStyle.Width())
	rowHeight := gtx.Sp(20)
	const (
		colorCol = iota
		nameCol
		valueCol
		numCols
	)
	gtx.Constraints.Max.Y = min(gtx.Constraints.Max.Y, rowHeight*(min(len(rows), 5)+1))
	gtx.Constraints.Min = gtx.Constraints.Max
	return table.Layout(gtx, len(rows), numCols,
		func(axis layout.Axis, index, constraint int) int {
			if axis == layout.Vertical {
				return min(constraint, rowHeight)
			}
			var size int
			switch index {
			case colorCol:
				size = colorColWidth
			case nameCol:
				size = nameColWidth
			case valueCol:
				size = valueColWidth
			}
			return min(size, constraint)
		},
		func(gtx C, index int) D {
			var l material.LabelStyle
			switch index {
			case colorCol:
				l = material.Body1(ui.th, "Color")
			case nameCol:
				l = material.Body1(ui.th, "Series")
				l.Alignment = text.Middle
			case valueCol:
				l = material.Body1(ui.th, "Latest")
				l.Alignment = text.End
			default:
				l = material.Body1(ui.th, "???")
			}
			l.Color = ui.th.ContrastFg
			return layout.Background{}.Layout(gtx,
				func(gtx C) D {
					paint.FillShape(gtx.Ops, ui.th.ContrastBg, clip.Rect{Max: gtx.Constraints.Max}.Op())
					return D{Size: gtx.Constraints.Min}
				},
				l.Layout,
			)
		},
		func(gtx C, row, col int) (dims D) {
			defer func() {
				dims.Size = gtx.Constraints.Constrain(dims.Size)
			}()
			entry := rows[row]
			dims = layout.UniformInset(2).Layout(gtx, func(gtx C) D {
				switch col {
				case colorCol:
					return layout.Center.Layout(gtx, func(gtx C) D {
						sideLen := gtx.Dp(10)
						sz := image.Pt(sideLen, sideLen)
						paint.FillShape(gtx.Ops, entry.color, clip.Rect{Max: sz}.Op())
						return D{Size: sz}
					})
				case nameCol:
					return material.Body2(ui.th, entry.label).Layout(gtx)
				case valueCol:
					l := material.Body2(ui.th, entry.value)
					l.Alignment = text.End
					return l.Layout(gtx)
				default:
					return material.Body2(ui.th, "???").Layout(gtx)
				}
			})
			return dims
		},
	)
}
