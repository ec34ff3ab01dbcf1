package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/observability"
	"github.com/aretw0/lattice/pkg/session"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	EngineOptions
	Input     string   // raw JSON object
	Set       []string // key=value assignments
	Mode      string
	Headless  bool
	JSON      bool
	Debug     bool
	Watch     bool
	SessionID string
	RedisAddr string
}

// Execute handles the 'run' command logic, dispatching to Session or Watch mode.
func Execute(ctx context.Context, opts RunOptions, out io.Writer) error {
	if opts.Watch {
		if opts.Headless || opts.JSON {
			return fmt.Errorf("--watch cannot be combined with --headless or --json")
		}
		return RunWatch(ctx, opts, out)
	}
	return handleExecutionError(runOnce(ctx, opts, out))
}

func runOnce(ctx context.Context, opts RunOptions, out io.Writer) error {
	logger := createLogger(opts.Debug)

	input, err := parseInput(opts.Input, opts.Set)
	if err != nil {
		return err
	}
	mode := domain.StreamMode(opts.Mode)
	if mode == "" {
		mode = domain.ModeValues
	}
	if !mode.Valid() {
		return fmt.Errorf("unknown stream mode %q (use values or updates)", opts.Mode)
	}

	d := newDisplay(out, opts.JSON, opts.Headless)
	var hooks domain.LifecycleHooks
	if opts.Debug {
		hooks = observability.LogHooks(logger)
	}

	if opts.SessionID != "" {
		return runSession(ctx, opts, input, d, hooks, logger)
	}

	engine, err := createEngine(opts.EngineOptions, hooks, logger)
	if err != nil {
		return err
	}
	d.banner()

	r := &lattice.Runner{
		Output:   out,
		Mode:     mode,
		Headless: d.headless,
		Header:   !d.quiet(),
		Renderer: d.printer.Render,
	}
	if d.json {
		r.Renderer = jsonLine
	}

	run, err := r.Run(ctx, engine, input)
	if err != nil {
		return err
	}
	return d.final(run.State())
}

// runSession continues a conversation thread. Events are printed from the
// OnStep hook since the session manager consumes the stream itself.
func runSession(ctx context.Context, opts RunOptions, input domain.State, d *display, hooks domain.LifecycleHooks, logger *slog.Logger) error {
	store, sessionOpts, closeStore, err := openStore(ctx, opts.RedisAddr)
	if err != nil {
		return err
	}
	defer closeStore()

	var printErr error
	printer := domain.LifecycleHooks{
		OnStep: func(_ context.Context, ev *domain.Event) {
			if printErr == nil {
				printErr = d.event(*ev)
			}
		},
	}

	engine, err := createEngine(opts.EngineOptions, observability.Combine(hooks, printer), logger)
	if err != nil {
		return err
	}
	d.banner()

	mgr := session.NewManager(store, append(sessionOpts, session.WithLogger(logger))...)
	if !d.quiet() {
		printSystemMessage(d.out, "Session '%s' active.", opts.SessionID)
	}
	final, err := mgr.Invoke(ctx, opts.SessionID, engine, input)
	if err != nil {
		return err
	}
	if printErr != nil {
		return printErr
	}
	return d.final(final)
}

// jsonLine renders an event as one NDJSON line.
func jsonLine(ev domain.Event) (string, error) {
	data, err := json.Marshal(ev)
	return string(data), err
}
