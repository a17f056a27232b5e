// Package backend acquires chart data from the outside world: CSV streams
// (finished or still being written) and Prometheus metrics endpoints. Each
// source emits positionally-aligned batches of readings on a channel and
// publishes its status through a skel stream for the UI to observe.
package backend

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"
	"github.com/fsnotify/fsnotify"

	"git.sr.ht/~arlen/stripchart/chart"
)

// Mode identifies what kind of source is feeding the chart.
type Mode uint8

const (
	ModeNone Mode = iota
	// ModeStreaming reads a pipe or file that ends when the producer does.
	ModeStreaming
	// ModeFollowing tails a file that is still being written.
	ModeFollowing
	// ModeScraping polls a metrics endpoint on an interval.
	ModeScraping
)

// Status is the observable state of a source.
type Status struct {
	Mode   Mode
	Source string
	// Series lists the discovered series labels in batch order.
	Series []string
	Err    error
}

// Datasource turns external inputs into chart batches. Batches arrive on
// Batches in time-step order. Only one source should be active per
// datasource; starting a second one interleaves batches.
type Datasource struct {
	pool    *stream.MutationPool[string, Status]
	batches chan []chart.Reading
	appCtx  context.Context
}

func NewDatasource(appCtx context.Context, mutator *stream.Mutator) *Datasource {
	return &Datasource{
		pool:    stream.NewMutationPool[string, Status](mutator),
		batches: make(chan []chart.Reading, 1024),
		appCtx:  appCtx,
	}
}

// Batches is the stream of normalizable time-steps, oldest first.
func (d *Datasource) Batches() <-chan []chart.Reading {
	return d.batches
}

// Status emits a snapshot whenever the most recently started source's
// status changes.
func (d *Datasource) Status(ctx context.Context) <-chan Status {
	return stream.Multiplex(d.pool.Stream(ctx), func(ctx context.Context, state string, mutations map[string]*stream.Mutation[Status]) (<-chan Status, string) {
		for id, m := range mutations {
			if id != state {
				state = id
				return m.Stream(ctx), state
			}
		}
		return nil, state
	})
}

// StreamCSV consumes CSV records from r until the stream ends.
func (d *Datasource) StreamCSV(name string, r io.Reader) {
	d.run(name, Status{Mode: ModeStreaming, Source: name}, func(ctx context.Context, update func(func(*Status))) error {
		return d.readCSV(ctx, r, nil, update)
	})
}

// FollowCSV tails path: instead of stopping at EOF it waits for the file
// to grow and keeps parsing.
func (d *Datasource) FollowCSV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %q: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		f.Close()
		return fmt.Errorf("creating file watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		f.Close()
		watcher.Close()
		return fmt.Errorf("watching %q: %w", path, err)
	}
	d.run(path, Status{Mode: ModeFollowing, Source: path}, func(ctx context.Context, update func(func(*Status))) error {
		defer f.Close()
		defer watcher.Close()
		return d.readCSV(ctx, NewTailReader(f), watcher, update)
	})
	return nil
}

// OpenWith prompts for a recorded CSV via the platform file dialog and
// streams it.
func (d *Datasource) OpenWith(expl *explorer.Explorer) error {
	file, err := expl.ChooseFile("csv")
	if err != nil {
		return err
	}
	name := "chosen file"
	if f, ok := file.(interface{ Name() string }); ok {
		name = f.Name()
	}
	d.run(name, Status{Mode: ModeStreaming, Source: name}, func(ctx context.Context, update func(func(*Status))) error {
		defer file.Close()
		return d.readCSV(ctx, file, nil, update)
	})
	return nil
}

// run registers a source session in the mutation pool and executes its body
// on a fresh goroutine. The body reports status changes through update and
// a terminal error through its return value.
func (d *Datasource) run(id string, initial Status, body func(ctx context.Context, update func(func(*Status))) error) {
	stream.Mutate(d.pool, id, func(ctx context.Context) <-chan Status {
		out := make(chan Status, 1)
		go func() {
			defer close(out)
			st := initial
			emit := func() {
				select {
				case out <- st:
				case <-ctx.Done():
				}
			}
			emit()
			update := func(f func(*Status)) {
				f(&st)
				emit()
			}
			if err := body(ctx, update); err != nil && !errors.Is(err, context.Canceled) {
				st.Err = err
				emit()
			}
		}()
		return out
	})
}

// readCSV parses one CSV stream. The first record is headings with a
// timestamp column first; every following record is one time-step whose
// data cells become tagged readings. The timestamp column is parsed only
// for validity: the window is positional, so arrival order is what places
// a batch. Blank cells are skipped so a ragged tail doesn't sink a batch.
// When watcher is non-nil, EOF means "wait for more writes" instead of
// "done".
func (d *Datasource) readCSV(ctx context.Context, r io.Reader, watcher *fsnotify.Watcher, update func(func(*Status))) error {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	headings, err := cr.Read()
	if err != nil {
		return fmt.Errorf("reading csv headings: %w", err)
	}
	if len(headings) < 2 {
		return fmt.Errorf("csv needs a timestamp column and at least one series, got %d columns", len(headings))
	}
	series := make([]string, len(headings)-1)
	for i, h := range headings[1:] {
		series[i] = strings.TrimSpace(h)
	}
	update(func(s *Status) { s.Series = series })

readLoop:
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if watcher == nil {
					return nil
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case ev, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if ev.Op.Has(fsnotify.Write) {
						continue readLoop
					}
					continue readLoop
				}
			}
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				log.Printf("backend: dropping malformed record: %v", err)
				continue
			}
			return fmt.Errorf("reading csv record: %w", err)
		}
		if len(rec) < 2 {
			continue
		}
		if _, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64); err != nil {
			log.Printf("backend: dropping record with bad timestamp %q: %v", rec[0], err)
			continue
		}
		batch := make([]chart.Reading, 0, len(rec)-1)
		for i, cell := range rec[1:] {
			if i >= len(series) {
				break
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				log.Printf("backend: dropping value %q for %s: %v", cell, series[i], err)
				continue
			}
			batch = append(batch, chart.Reading{Value: v, ID: series[i]})
		}
		if len(batch) == 0 {
			continue
		}
		select {
		case d.batches <- batch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
