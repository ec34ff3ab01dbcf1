package lattice

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/lattice/pkg/domain"
)

// EventRenderer formats one event for display.
// This allows for TUI rendering without coupling the core package.
type EventRenderer func(domain.Event) (string, error)

// Runner streams a run to a writer, one rendered line per event.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Runner struct {
	Output   io.Writer
	Mode     domain.StreamMode
	Headless bool
	Header   bool // print a header line before the first event
	Renderer EventRenderer
}

// NewRunner creates a Runner writing values-mode events to w.
func NewRunner(w io.Writer) *Runner {
	return &Runner{
		Output: w,
		Mode:   domain.ModeValues,
		Header: true,
	}
}

// Run executes the engine until the run terminates and returns its handle.
// The returned error is the run's terminal error, if any.
func (r *Runner) Run(ctx context.Context, engine *Engine, initial domain.State) (*Run, error) {
	if r.Output == nil {
		return nil, fmt.Errorf("output writer must be set (use os.Stdout)")
	}

	run := engine.Start(ctx, initial, r.Mode)
	if r.Header && !r.Headless {
		fmt.Fprintf(r.Output, "--- %s (run %s) ---\n", engine.Graph().Name(), run.ID())
	}

	for ev, err := range run.Events() {
		if err != nil {
			return run, err
		}
		if r.Headless {
			continue
		}

		line, rerr := r.render(ev)
		if rerr != nil {
			return run, fmt.Errorf("render error: %w", rerr)
		}
		fmt.Fprintln(r.Output, line)
	}
	return run, nil
}

func (r *Runner) render(ev domain.Event) (string, error) {
	if r.Renderer != nil {
		return r.Renderer(ev)
	}
	if ev.Mode == domain.ModeUpdates {
		return fmt.Sprintf("[%d] %v: %v", ev.Step, ev.Nodes, ev.Updates), nil
	}
	return fmt.Sprintf("[%d] %v: %v", ev.Step, ev.Nodes, ev.Values), nil
}
