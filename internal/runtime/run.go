package runtime

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/lattice/pkg/channels"
	"github.com/aretw0/lattice/pkg/domain"
)

var (
	// ErrStreamConsumed is yielded when the events of a run are ranged over twice.
	ErrStreamConsumed = errors.New("event stream already consumed")

	// ErrStreamAbandoned is the terminal error of a run whose consumer stopped
	// pulling events before it finished. It matches context.Canceled.
	ErrStreamAbandoned = fmt.Errorf("event stream abandoned: %w", context.Canceled)
)

// Run is the execution context of one invocation: the State store, the
// frontier and the step counter. It is owned by a single consumer.
type Run struct {
	id     string
	ctx    context.Context
	engine *Engine
	mode   domain.StreamMode
	logger *slog.Logger

	mu       sync.Mutex
	store    *channels.Store
	frontier []string
	step     int
	status   domain.RunStatus
	err      error
	consumed bool
}

func newRun(ctx context.Context, e *Engine, initial domain.State, mode domain.StreamMode) *Run {
	if mode == "" {
		mode = domain.ModeValues
	}
	id := e.newRunID()
	return &Run{
		id:     id,
		ctx:    ctx,
		engine: e,
		mode:   mode,
		logger: e.logger.With("run_id", id),
		store:  channels.NewStore(e.graph.Schema(), initial),
		status: domain.StatusRunning,
	}
}

// ID returns the run identifier carried by every event.
func (r *Run) ID() string { return r.id }

// Mode returns the stream mode of the run.
func (r *Run) Mode() domain.StreamMode { return r.mode }

// Status returns the current state of the run's state machine.
func (r *Run) Status() domain.RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// State returns the latest merged snapshot.
func (r *Run) State() domain.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Snapshot().Clone()
}

// Err returns the error that aborted the run, if any.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Steps returns the number of completed ticks.
func (r *Run) Steps() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.step
}

// Frontier returns the nodes scheduled for the next tick.
func (r *Run) Frontier() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.frontier)
}

// Events returns the lazy, non-restartable event sequence of the run.
// Each pull runs exactly one tick. Breaking out of the range stops the run
// before any further node is invoked. The last element carries the error
// that aborted the run, if any.
func (r *Run) Events() iter.Seq2[domain.Event, error] {
	return func(yield func(domain.Event, error) bool) {
		r.mu.Lock()
		if r.consumed {
			r.mu.Unlock()
			yield(domain.Event{}, ErrStreamConsumed)
			return
		}
		r.consumed = true
		r.mu.Unlock()

		if err := r.begin(); err != nil {
			r.finish(err)
			yield(domain.Event{}, err)
			return
		}

		for !r.done() {
			if err := r.checkBudget(); err != nil {
				r.finish(err)
				yield(domain.Event{}, err)
				return
			}

			event, ran, err := r.tick()
			if err != nil {
				r.finish(err)
				yield(domain.Event{}, err)
				return
			}

			// Routing is pure, so it runs before the event is handed out: a
			// consumer stopping after the final event still sees Completed.
			routeErr := r.advance(ran)

			if !yield(event, nil) {
				if routeErr == nil && r.done() {
					r.finish(nil)
				} else {
					r.finish(ErrStreamAbandoned)
				}
				return
			}
			if routeErr != nil {
				r.finish(routeErr)
				yield(domain.Event{}, routeErr)
				return
			}
		}
		r.finish(nil)
	}
}

// begin validates the request and computes the initial frontier from START.
func (r *Run) begin() error {
	r.logger.Info("run started", "mode", r.mode, "max_steps", r.engine.maxSteps)
	if r.engine.hooks.OnRunStart != nil {
		r.engine.hooks.OnRunStart(r.ctx, &domain.RunEvent{
			RunID:     r.id,
			Timestamp: time.Now(),
			Status:    domain.StatusRunning,
		})
	}

	if !r.mode.Valid() {
		return fmt.Errorf("unknown stream mode %q", r.mode)
	}
	if err := r.ctx.Err(); err != nil {
		return err
	}
	return r.advance([]string{domain.Start})
}

// advance routes the nodes that just ran and installs the next frontier.
func (r *Run) advance(ran []string) error {
	next, err := r.engine.resolveNext(r.store.Snapshot(), ran)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.frontier = next
	r.mu.Unlock()
	r.logger.Debug("frontier resolved", "step", r.step, "frontier", next)
	return nil
}

// done reports whether the whole frontier collapsed to END.
func (r *Run) done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frontier) == 0 || (len(r.frontier) == 1 && r.frontier[0] == domain.End)
}

func (r *Run) checkBudget() error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	if r.step+1 > r.engine.maxSteps {
		return &domain.ExecutionLimitError{
			MaxSteps: r.engine.maxSteps,
			Frontier: r.Frontier(),
		}
	}
	return nil
}

// tick invokes the frontier against the pre-tick snapshot and merges the
// updates in declaration order.
func (r *Run) tick() (domain.Event, []string, error) {
	step := r.step + 1
	frontier := r.Frontier()
	snapshot := r.store.Snapshot()

	r.logger.Debug("tick started", "step", step, "nodes", frontier)
	updates, err := r.engine.invokeAll(r.ctx, r.id, step, frontier, snapshot)
	if err != nil {
		return domain.Event{}, nil, err
	}

	r.mu.Lock()
	err = r.store.Merge(updates...)
	if err == nil {
		r.step = step
	}
	r.mu.Unlock()
	if err != nil {
		var me *channels.MergeError
		if errors.As(err, &me) {
			return domain.Event{}, nil, &domain.ExecutionError{
				Node: frontier[me.Index],
				Step: step,
				Err:  fmt.Errorf("merge update: %w", me.Err),
			}
		}
		return domain.Event{}, nil, err
	}

	event := domain.Event{
		RunID: r.id,
		Step:  step,
		Mode:  r.mode,
		Nodes: frontier,
	}
	switch r.mode {
	case domain.ModeUpdates:
		event.Updates = make(map[string]domain.Update, len(frontier))
		for i, name := range frontier {
			event.Updates[name] = updates[i].Clone()
		}
	default:
		event.Values = r.store.Snapshot().Clone()
	}

	if r.engine.hooks.OnStep != nil {
		r.engine.hooks.OnStep(r.ctx, &event)
	}
	return event, frontier, nil
}

// finish moves the run to its terminal state exactly once.
func (r *Run) finish(err error) {
	r.mu.Lock()
	if r.status != domain.StatusRunning {
		r.mu.Unlock()
		return
	}
	r.status = domain.StatusCompleted
	if err != nil {
		r.status = domain.StatusAborted
		r.err = err
	}
	status, steps := r.status, r.step
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn("run aborted", "steps", steps, "err", err)
	} else {
		r.logger.Info("run completed", "steps", steps)
	}
	if r.engine.hooks.OnRunEnd != nil {
		r.engine.hooks.OnRunEnd(r.ctx, &domain.RunEvent{
			RunID:     r.id,
			Timestamp: time.Now(),
			Status:    status,
			Steps:     steps,
			Err:       err,
		})
	}
}
