package dsl

import (
	"slices"

	"github.com/aretw0/lattice/pkg/channels"
	"github.com/aretw0/lattice/pkg/domain"
)

// Graph is a compiled, read-only graph definition.
// It is safe to share across concurrent runs.
type Graph struct {
	name       string
	order      []string
	index      map[string]int
	nodes      map[string]domain.Node
	edges      []domain.Edge
	routes     []domain.ConditionalEdge
	successors map[string][]string
	routesFrom map[string][]domain.ConditionalEdge
	schema     channels.Schema
}

func newGraph(b *Builder) *Graph {
	g := &Graph{
		name:       b.name,
		order:      slices.Clone(b.order),
		index:      make(map[string]int, len(b.order)),
		nodes:      make(map[string]domain.Node, len(b.nodes)),
		edges:      slices.Clone(b.edges),
		successors: make(map[string][]string),
		routesFrom: make(map[string][]domain.ConditionalEdge),
		schema:     channels.NewSchema(b.reducers),
	}
	for i, name := range g.order {
		g.index[name] = i
		g.nodes[name] = b.nodes[name]
	}
	for _, e := range g.edges {
		g.successors[e.From] = append(g.successors[e.From], e.To)
	}
	for _, r := range b.routes {
		r.Candidates = slices.Clone(r.Candidates)
		g.routes = append(g.routes, r)
		g.routesFrom[r.From] = append(g.routesFrom[r.From], r)
	}
	return g
}

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// Nodes returns the node names in declaration order.
func (g *Graph) Nodes() []string { return slices.Clone(g.order) }

// Node returns the computation registered under name.
func (g *Graph) Node(name string) (domain.Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Order returns the declaration index of a node, used as the merge tiebreak.
// End sorts after every node; unknown names and Start return -1.
func (g *Graph) Order(name string) int {
	if name == domain.End {
		return len(g.order)
	}
	if i, ok := g.index[name]; ok {
		return i
	}
	return -1
}

// Edges returns the static edges in declaration order.
func (g *Graph) Edges() []domain.Edge { return slices.Clone(g.edges) }

// ConditionalEdges returns the conditional edges in declaration order.
func (g *Graph) ConditionalEdges() []domain.ConditionalEdge {
	return cloneRoutes(g.routes)
}

// Successors returns the static targets of a node.
func (g *Graph) Successors(from string) []string {
	return slices.Clone(g.successors[from])
}

// Routes returns the conditional edges leaving a node.
func (g *Graph) Routes(from string) []domain.ConditionalEdge {
	return cloneRoutes(g.routesFrom[from])
}

// Schema returns the channel reducers of the graph.
func (g *Graph) Schema() channels.Schema { return g.schema }

func cloneRoutes(routes []domain.ConditionalEdge) []domain.ConditionalEdge {
	if routes == nil {
		return nil
	}
	out := make([]domain.ConditionalEdge, len(routes))
	for i, r := range routes {
		r.Candidates = slices.Clone(r.Candidates)
		out[i] = r
	}
	return out
}
