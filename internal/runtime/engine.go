package runtime

import (
	"context"
	"io"
	"iter"
	"log/slog"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/dsl"
	"github.com/google/uuid"
)

// Engine executes a compiled graph. It holds no per-run state and may start
// any number of concurrent runs.
type Engine struct {
	graph         *dsl.Graph
	logger        *slog.Logger
	hooks         domain.LifecycleHooks
	maxSteps      int
	concurrency   int
	strictRouting bool
	newRunID      func() string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithMaxSteps sets the step budget of every run. Values below 1 keep the default.
func WithMaxSteps(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithConcurrency runs up to n frontier nodes of a tick at the same time.
// Updates are still merged in declaration order. n <= 1 means sequential.
func WithConcurrency(n int) EngineOption {
	return func(e *Engine) {
		e.concurrency = n
	}
}

// WithStrictRouting evaluates every router twice against the same snapshot and
// aborts the run with a ConfigurationError when the answers differ.
func WithStrictRouting(strict bool) EngineOption {
	return func(e *Engine) {
		e.strictRouting = strict
	}
}

// WithRunIDGenerator replaces the UUID run ID generator.
func WithRunIDGenerator(fn func() string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newRunID = fn
		}
	}
}

// NewEngine creates an engine for a compiled graph.
func NewEngine(graph *dsl.Graph, opts ...EngineOption) *Engine {
	e := &Engine{
		graph:       graph,
		logger:      slog.New(slog.NewJSONHandler(io.Discard, nil)),
		maxSteps:    domain.DefaultMaxSteps,
		concurrency: 1,
		newRunID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the compiled graph the engine runs.
func (e *Engine) Graph() *dsl.Graph {
	return e.graph
}

// MaxSteps returns the step budget applied to each run.
func (e *Engine) MaxSteps() int {
	return e.maxSteps
}

// Start prepares a run. Nothing executes until the caller pulls from Events.
func (e *Engine) Start(ctx context.Context, initial domain.State, mode domain.StreamMode) *Run {
	return newRun(ctx, e, initial, mode)
}

// Stream returns the lazy event sequence of a new run.
func (e *Engine) Stream(ctx context.Context, initial domain.State, mode domain.StreamMode) iter.Seq2[domain.Event, error] {
	return e.Start(ctx, initial, mode).Events()
}

// Invoke drains a run and returns its terminal State.
// On abort it returns the State as of the last completed tick with the error.
func (e *Engine) Invoke(ctx context.Context, initial domain.State) (domain.State, error) {
	run := e.Start(ctx, initial, domain.ModeValues)
	for _, err := range run.Events() {
		if err != nil {
			return run.State(), err
		}
	}
	return run.State(), nil
}
