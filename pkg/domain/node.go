package domain

import "context"

// Node is a single computation step of a graph.
// It reads a snapshot of the State and returns only the channels it changes.
// Implementations may be pure functions, closures or remote calls; the engine
// treats each invocation as independent and keeps no per-node memory.
type Node interface {
	Compute(ctx context.Context, state State) (Update, error)
}

// NodeFunc adapts an ordinary function to the Node interface.
type NodeFunc func(ctx context.Context, state State) (Update, error)

// Compute calls f(ctx, state).
func (f NodeFunc) Compute(ctx context.Context, state State) (Update, error) {
	return f(ctx, state)
}
