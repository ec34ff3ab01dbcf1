package runtime_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/aretw0/lattice/internal/runtime"
	"github.com/aretw0/lattice/pkg/channels"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/dsl"
	"github.com/stretchr/testify/require"
)

// counted wraps a node and counts its invocations.
type counted struct {
	calls atomic.Int32
	node  domain.Node
}

func (c *counted) Compute(ctx context.Context, state domain.State) (domain.Update, error) {
	c.calls.Add(1)
	return c.node.Compute(ctx, state)
}

func appendNode(value string) *counted {
	return &counted{node: dsl.Emit("messages", []string{value})}
}

func lastMessage(state domain.State) string {
	msgs, _ := state["messages"].([]string)
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

// graphBuilder collects builder calls and fails the test on the first error.
type graphBuilder struct {
	t *testing.T
	b *dsl.Builder
}

func newGraph(t *testing.T) *graphBuilder {
	t.Helper()
	b := dsl.New(t.Name())
	b.Channel("messages", channels.Append)
	return &graphBuilder{t: t, b: b}
}

func (g *graphBuilder) node(name string, n domain.Node) *graphBuilder {
	g.t.Helper()
	require.NoError(g.t, g.b.AddNode(name, n))
	return g
}

func (g *graphBuilder) edge(from, to string) *graphBuilder {
	g.t.Helper()
	require.NoError(g.t, g.b.AddEdge(from, to))
	return g
}

func (g *graphBuilder) route(from string, r domain.Router, candidates ...string) *graphBuilder {
	g.t.Helper()
	require.NoError(g.t, g.b.AddConditionalEdges(from, r, candidates...))
	return g
}

func (g *graphBuilder) engine(opts ...runtime.EngineOption) *runtime.Engine {
	g.t.Helper()
	graph, err := g.b.Compile()
	require.NoError(g.t, err)
	return runtime.NewEngine(graph, opts...)
}
