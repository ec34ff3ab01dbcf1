package nodes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/lattice/pkg/channels"
	"github.com/aretw0/lattice/pkg/domain"
)

// ErrTimeout is wrapped by the error of a node that exceeded its time budget.
var ErrTimeout = errors.New("node timed out")

// Retry re-invokes node until it succeeds or attempts are exhausted.
// The wait before retry n is n*backoff. Cancellation of ctx stops retrying.
func Retry(node domain.Node, attempts int, backoff time.Duration) domain.Node {
	if attempts < 1 {
		attempts = 1
	}
	return domain.NodeFunc(func(ctx context.Context, state domain.State) (domain.Update, error) {
		var lastErr error
		for attempt := 1; attempt <= attempts; attempt++ {
			update, err := node.Compute(ctx, state)
			if err == nil {
				return update, nil
			}
			lastErr = err
			if attempt == attempts {
				break
			}

			select {
			case <-ctx.Done():
				return nil, errors.Join(lastErr, ctx.Err())
			case <-time.After(time.Duration(attempt) * backoff):
			}
		}
		return nil, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
	})
}

// Timeout bounds the wall-clock time of a single invocation.
// The node must honor ctx cancellation for the budget to take effect.
func Timeout(node domain.Node, d time.Duration) domain.Node {
	return domain.NodeFunc(func(ctx context.Context, state domain.State) (domain.Update, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		update, err := node.Compute(ctx, state)
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %w", ErrTimeout, d, err)
		}
		return update, err
	})
}

// Static returns a node that always emits the same update.
func Static(update domain.Update) domain.Node {
	return domain.NodeFunc(func(context.Context, domain.State) (domain.Update, error) {
		return update.Clone(), nil
	})
}

// Chain runs several computations as one node.
// Each step sees the State with the previous steps' updates applied through
// schema, and the chain returns the combined update, so an append channel
// receives every step's items in order.
func Chain(schema channels.Schema, steps ...domain.Node) domain.Node {
	return domain.NodeFunc(func(ctx context.Context, state domain.State) (domain.Update, error) {
		view := state
		combined := domain.State{}
		for i, step := range steps {
			update, err := step.Compute(ctx, view.Clone())
			if err != nil {
				return nil, fmt.Errorf("chain step %d: %w", i, err)
			}
			if view, err = schema.Merge(view, update); err != nil {
				return nil, fmt.Errorf("chain step %d: %w", i, err)
			}
			if combined, err = schema.Merge(combined, update); err != nil {
				return nil, fmt.Errorf("chain step %d: %w", i, err)
			}
		}
		return domain.Update(combined), nil
	})
}
