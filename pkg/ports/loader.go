package ports

import (
	"context"

	"github.com/aretw0/lattice/pkg/dsl"
)

// GraphLoader builds a compiled graph from an external definition
// (a manifest file, a database row, ...).
type GraphLoader interface {
	LoadGraph(ctx context.Context) (*dsl.Graph, error)
}
