package lattice

import (
	"context"
	"io"
	"iter"
	"log/slog"

	"github.com/aretw0/lattice/internal/runtime"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/dsl"
)

// Run is the handle of a single execution. See Engine.Start.
type Run = runtime.Run

// Engine is the high-level entry point for the Lattice library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime       *runtime.Engine
	graph         *dsl.Graph
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	maxSteps      int
	concurrency   int
	strictRouting bool
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxSteps sets the step budget of each run (default 25).
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// WithConcurrency lets up to n nodes of the same tick run in parallel.
// Merge order stays the declaration order of the nodes.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		e.concurrency = n
	}
}

// WithStrictRouting double-checks every router decision for determinism.
func WithStrictRouting(strict bool) Option {
	return func(e *Engine) {
		e.strictRouting = strict
	}
}

// New initializes a new Lattice Engine for a compiled graph.
func New(graph *dsl.Graph, opts ...Option) *Engine {
	eng := &Engine{graph: graph}
	for _, opt := range opts {
		opt(eng)
	}

	// Ensure logger is initialized (so we don't pass nil to runtime)
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if graph.Name() != "" {
		eng.logger = eng.logger.With("graph", graph.Name())
	}

	eng.runtime = runtime.NewEngine(graph,
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithMaxSteps(eng.maxSteps),
		runtime.WithConcurrency(eng.concurrency),
		runtime.WithStrictRouting(eng.strictRouting),
	)
	return eng
}

// Invoke runs the graph to completion and returns the terminal State.
// On abort the State reflects the last completed tick.
func (e *Engine) Invoke(ctx context.Context, initial domain.State) (domain.State, error) {
	return e.runtime.Invoke(ctx, initial)
}

// Stream returns the lazy event sequence of a new run.
// Ranging over it drives the run; breaking out of the loop cancels it.
func (e *Engine) Stream(ctx context.Context, initial domain.State, mode domain.StreamMode) iter.Seq2[domain.Event, error] {
	return e.runtime.Stream(ctx, initial, mode)
}

// Start prepares a run and returns its handle, for callers that need the
// run status and final State alongside the events.
func (e *Engine) Start(ctx context.Context, initial domain.State, mode domain.StreamMode) *Run {
	return e.runtime.Start(ctx, initial, mode)
}

// Graph returns the compiled graph definition.
func (e *Engine) Graph() *dsl.Graph {
	return e.graph
}

// MaxSteps returns the effective step budget.
func (e *Engine) MaxSteps() int {
	return e.runtime.MaxSteps()
}
