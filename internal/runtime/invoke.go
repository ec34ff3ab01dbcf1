package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	"golang.org/x/sync/errgroup"
)

// invokeAll runs every frontier node against the same snapshot and returns
// their updates in frontier order. The first failure aborts the tick.
func (e *Engine) invokeAll(ctx context.Context, runID string, step int, frontier []string, snapshot domain.State) ([]domain.Update, error) {
	updates := make([]domain.Update, len(frontier))

	if e.concurrency <= 1 || len(frontier) == 1 {
		for i, name := range frontier {
			update, err := e.invoke(ctx, runID, step, name, snapshot)
			if err != nil {
				return nil, err
			}
			updates[i] = update
		}
		return updates, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, name := range frontier {
		g.Go(func() error {
			update, err := e.invoke(gctx, runID, step, name, snapshot)
			if err != nil {
				return err
			}
			updates[i] = update
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return updates, nil
}

// invoke runs a single node. Failures, panics included, become an
// *domain.ExecutionError carrying the node name.
func (e *Engine) invoke(ctx context.Context, runID string, step int, name string, snapshot domain.State) (update domain.Update, err error) {
	node, ok := e.graph.Node(name)
	if !ok {
		return nil, &domain.ExecutionError{Node: name, Step: step, Err: fmt.Errorf("node is not registered")}
	}

	// a node skipped after a sibling failed is never reported as started
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	if e.hooks.OnNodeStart != nil {
		e.hooks.OnNodeStart(ctx, &domain.NodeEvent{RunID: runID, Step: step, Node: name, Timestamp: start})
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
		if err != nil {
			update = nil
			err = &domain.ExecutionError{Node: name, Step: step, Err: err}
		}

		elapsed := time.Since(start)
		e.logger.Debug("node finished", "run_id", runID, "step", step, "node", name, "duration", elapsed, "err", err)
		if e.hooks.OnNodeEnd != nil {
			e.hooks.OnNodeEnd(ctx, &domain.NodeEvent{
				RunID:     runID,
				Step:      step,
				Node:      name,
				Timestamp: time.Now(),
				Duration:  elapsed,
				Err:       err,
			})
		}
	}()

	return node.Compute(ctx, snapshot.Clone())
}
