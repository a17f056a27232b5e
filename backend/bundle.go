package backend

import (
	"context"

	"gioui.org/app"
	"git.sr.ht/~gioverse/skel/stream"
)

// WindowState carries the per-window stream controller alongside the shared
// bundle.
type WindowState struct {
	Bundle
	Controller *stream.Controller
}

func NewWindowState(ctx context.Context, bundle Bundle, win *app.Window) WindowState {
	return WindowState{
		Bundle:     bundle,
		Controller: stream.NewController(ctx, win.Invalidate),
	}
}

// Bundle aggregates the non-UI services of the application.
type Bundle struct {
	Datasource *Datasource
}

func NewBundle(ctx context.Context, mutator *stream.Mutator) Bundle {
	return Bundle{
		Datasource: NewDatasource(ctx, mutator),
	}
}
