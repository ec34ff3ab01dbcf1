package dsl

import (
	"fmt"
	"slices"

	"github.com/aretw0/lattice/internal/validator"
	"github.com/aretw0/lattice/pkg/channels"
	"github.com/aretw0/lattice/pkg/domain"
)

// Builder manages the graph construction.
// Every method reports a problem it can decide on the spot and also records it,
// so a definition that was ever invalid never compiles.
type Builder struct {
	name     string
	order    []string
	nodes    map[string]domain.Node
	edges    []domain.Edge
	routes   []domain.ConditionalEdge
	reducers map[string]channels.Reducer
	issues   []domain.BuildIssue
}

// New creates a new graph builder.
func New(name string) *Builder {
	return &Builder{
		name:     name,
		nodes:    make(map[string]domain.Node),
		reducers: make(map[string]channels.Reducer),
	}
}

// Channel declares the reducer of a channel. A nil reducer means Overwrite.
// Undeclared channels also default to Overwrite.
func (b *Builder) Channel(name string, reducer channels.Reducer) *Builder {
	if reducer == nil {
		reducer = channels.Overwrite
	}
	b.reducers[name] = reducer
	return b
}

// AddNode registers a node under a unique name.
func (b *Builder) AddNode(name string, node domain.Node) error {
	switch {
	case name == "":
		return b.fail(domain.IssueInvalidName, name, "node name is empty")
	case domain.IsSentinel(name):
		return b.fail(domain.IssueInvalidName, name, "name is reserved")
	case slices.Contains(b.order, name):
		return b.fail(domain.IssueDuplicateNode, name, "already registered")
	case node == nil:
		b.order = append(b.order, name)
		return b.fail(domain.IssueNilNode, name, "computation is nil")
	}

	b.order = append(b.order, name)
	b.nodes[name] = node
	return nil
}

// AddEdge adds a static edge, always taken after from completes.
// Endpoints may be declared later; they are resolved by Compile.
func (b *Builder) AddEdge(from, to string) error {
	switch {
	case from == "" || to == "":
		return b.fail(domain.IssueInvalidEdge, from, fmt.Sprintf("edge %q -> %q has an empty endpoint", from, to))
	case from == domain.End:
		return b.fail(domain.IssueInvalidEdge, from, "no edge may leave END")
	case to == domain.Start:
		return b.fail(domain.IssueInvalidEdge, from, "no edge may enter START")
	}

	e := domain.Edge{From: from, To: to}
	if !slices.Contains(b.edges, e) {
		b.edges = append(b.edges, e)
	}
	return nil
}

// AddConditionalEdges routes from to the name router returns.
// candidates enumerates every name the router may legally return.
func (b *Builder) AddConditionalEdges(from string, router domain.Router, candidates ...string) error {
	var errs []error
	record := func(kind domain.IssueKind, detail string) {
		errs = append(errs, b.fail(kind, from, detail))
	}

	if from == "" {
		record(domain.IssueInvalidEdge, "conditional edge has an empty source")
	}
	if from == domain.End {
		record(domain.IssueInvalidEdge, "no edge may leave END")
	}
	if router == nil {
		record(domain.IssueNilRouter, "router is nil")
	}
	if len(candidates) == 0 {
		record(domain.IssueEmptyCandidates, "router declares no candidates")
	}
	for _, c := range candidates {
		if c == "" || c == domain.Start {
			record(domain.IssueInvalidCandidate, fmt.Sprintf("candidate %q can never be routed to", c))
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}

	unique := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if !slices.Contains(unique, c) {
			unique = append(unique, c)
		}
	}
	b.routes = append(b.routes, domain.ConditionalEdge{
		From:       from,
		Router:     router,
		Candidates: unique,
	})
	return nil
}

// Compile validates the definition and returns an immutable Graph.
// On failure it returns a *domain.BuildError listing every violated invariant.
func (b *Builder) Compile() (*Graph, error) {
	issues := slices.Clone(b.issues)
	issues = append(issues, validator.ValidateGraph(validator.Definition{
		Nodes:  b.order,
		Edges:  b.edges,
		Routes: b.routes,
	})...)
	if len(issues) > 0 {
		return nil, &domain.BuildError{Issues: issues}
	}
	return newGraph(b), nil
}

// MustCompile is like Compile but panics on error.
func (b *Builder) MustCompile() *Graph {
	g, err := b.Compile()
	if err != nil {
		panic(err)
	}
	return g
}

func (b *Builder) fail(kind domain.IssueKind, node, detail string) error {
	issue := domain.BuildIssue{Kind: kind, Node: node, Detail: detail}
	b.issues = append(b.issues, issue)
	return &domain.BuildError{Issues: []domain.BuildIssue{issue}}
}
