package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"gioui.org/app"
	"gioui.org/font/gofont"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/text"
	"gioui.org/widget/material"
	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.sr.ht/~arlen/stripchart/backend"
	"git.sr.ht/~arlen/stripchart/chart"
)

func main() {
	var (
		chartType   = flag.String("type", "line", "plot style, line or bar")
		windowSize  = flag.Int("window", 100, "number of time-steps kept on screen")
		minValue    = flag.Float64("min", 0, "raw value plotted at the bottom of the stage")
		maxValue    = flag.Float64("max", 100, "raw value plotted at the top of the stage")
		expand      = flag.Bool("expand", true, "grow the range when a value exceeds it instead of clamping")
		ruler       = flag.Bool("ruler", true, "draw gridlines and range labels")
		frame       = flag.Bool("frame", true, "draw a border around the stage")
		responsive  = flag.Bool("responsive", true, "rescale the plot when the window resizes")
		legend      = flag.String("legend", "", "comma-separated series labels, assigned to columns in order")
		follow      = flag.String("follow", "", "CSV file to tail as it grows")
		scrapeURL   = flag.String("scrape-url", "", "Prometheus metrics endpoint to poll for data")
		scrapeEvery = flag.Duration("scrape-interval", time.Second, "poll interval for -scrape-url")
		metricsAddr = flag.String("metrics-addr", "", "listen address for this process's own /metrics endpoint")
	)
	flag.Parse()

	cfg := chart.Config{
		WindowSize: *windowSize,
		MinValue:   *minValue,
		MaxValue:   *maxValue,
		AutoExpand: *expand,
		ShowRuler:  *ruler,
		ShowFrame:  *frame,
		Responsive: *responsive,
	}
	switch *chartType {
	case "line":
		cfg.Type = chart.Line
	case "bar":
		cfg.Type = chart.Bar
	default:
		log.Fatalf("unknown chart type %q", *chartType)
	}
	if *legend != "" {
		for i, label := range strings.Split(*legend, ",") {
			cfg.Legend = append(cfg.Legend, chart.LegendEntry{
				Label: strings.TrimSpace(label),
				Color: palette[i%len(palette)],
			})
		}
	}
	ready := make(chan struct{})
	cfg.Ready = ready

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Printf("metrics endpoint: %v", err)
			}
		}()
	}

	appCtx, cancel := context.WithCancel(context.Background())
	go func() {
		w := app.NewWindow(app.Title("stripchart"))
		mutator := stream.NewMutator(appCtx)
		ws := backend.NewWindowState(appCtx, backend.NewBundle(appCtx, mutator), w)
		expl := explorer.NewExplorer(w)
		ds := ws.Bundle.Datasource
		switch {
		case *scrapeURL != "":
			ds.ScrapeMetrics(*scrapeURL, *scrapeEvery)
		case *follow != "":
			if err := ds.FollowCSV(*follow); err != nil {
				log.Fatal(err)
			}
		default:
			ds.StreamCSV("stdin", os.Stdin)
		}

		// Wake the window whenever a time-step arrives so the frame loop
		// can drain it.
		queued := make(chan []chart.Reading, 1024)
		go func() {
			for batch := range ds.Batches() {
				select {
				case queued <- batch:
				case <-appCtx.Done():
					return
				}
				w.Invalidate()
			}
		}()

		if err := loop(appCtx, w, ws, expl, cfg, ready, queued); err != nil {
			log.Fatal(err)
		}
		cancel()
		os.Exit(0)
	}()
	app.Main()
}

func loop(ctx context.Context, w *app.Window, ws backend.WindowState, expl *explorer.Explorer, cfg chart.Config, ready chan struct{}, queued <-chan []chart.Reading) error {
	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()), text.NoSystemFonts())
	surface := newPlotSurface(th)
	engine, err := chart.New(cfg, surface, &surface.line, &surface.bar)
	if err != nil {
		return err
	}
	ui := NewUI(ws, expl, engine, surface)

	// The engine holds back rendering until the window has produced a
	// frame, so a slow display pipeline never observes a half-built plot.
	// Start runs on this goroutine, after the gate closes, because the
	// engine is single-caller: every Start/Append/Render happens here.
	var firstFrame sync.Once

	var ops op.Ops
	for {
		ev := w.NextEvent()
		expl.ListenEvents(ev)
		switch ev := ev.(type) {
		case system.DestroyEvent:
			if err := engine.Close(); err != nil {
				log.Printf("closing engine: %v", err)
			}
			return ev.Err
		case system.FrameEvent:
			firstFrame.Do(func() {
				close(ready)
				if err := engine.Start(ctx); err != nil {
					log.Printf("starting engine: %v", err)
				}
			})
			gtx := layout.NewContext(&ops, ev)
			if !ui.Paused() {
			drain:
				for {
					select {
					case batch := <-queued:
						ui.Ingest(batch)
					default:
						break drain
					}
				}
			}
			ui.Layout(gtx)
			ev.Frame(gtx.Ops)
		}
	}
}
