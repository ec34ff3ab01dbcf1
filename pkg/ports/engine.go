package ports

import (
	"context"
	"iter"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/dsl"
)

// Engine is the run surface consumed by adapters (sessions, HTTP, MCP).
// *lattice.Engine implements it.
type Engine interface {
	// Invoke runs the graph to completion and returns the terminal State.
	Invoke(ctx context.Context, initial domain.State) (domain.State, error)

	// Stream returns the lazy event sequence of a new run.
	Stream(ctx context.Context, initial domain.State, mode domain.StreamMode) iter.Seq2[domain.Event, error]

	// Graph returns the compiled graph for introspection.
	Graph() *dsl.Graph
}
