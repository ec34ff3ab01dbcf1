package manifest

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/dsl"
)

// Build compiles the manifest into a graph using the kinds of catalog.
// Parameter errors are returned as soon as they are found; structural problems
// are reported together by the compiler as a *domain.BuildError.
func (m *Manifest) Build(catalog *Catalog) (*dsl.Graph, error) {
	if catalog == nil {
		catalog = NewCatalog()
	}
	b := dsl.New(m.Name)

	for _, channel := range slices.Sorted(maps.Keys(m.Channels)) {
		name := m.Channels[channel]
		reducer, ok := catalog.reducer(name)
		if !ok {
			return nil, fmt.Errorf("channel %q: unknown reducer %q", channel, name)
		}
		b.Channel(channel, reducer)
	}

	for _, spec := range m.Nodes {
		factory, ok := catalog.nodes[spec.Kind]
		if !ok {
			return nil, fmt.Errorf("node %q: unknown kind %q", spec.Name, spec.Kind)
		}
		node, err := factory(spec.Name, spec.With)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", spec.Name, err)
		}
		// Issues are recorded by the builder and reported by Compile.
		_ = b.AddNode(spec.Name, node)
	}

	for _, e := range m.Edges {
		_ = b.AddEdge(alias(e.From), alias(e.To))
	}

	for _, spec := range m.Routes {
		factory, ok := catalog.routers[spec.Kind]
		if !ok {
			return nil, fmt.Errorf("route from %q: unknown kind %q", spec.From, spec.Kind)
		}
		router, derived, err := factory(spec.With)
		if err != nil {
			return nil, fmt.Errorf("route from %q: %w", spec.From, err)
		}
		candidates := derived
		if len(spec.Candidates) > 0 {
			candidates = make([]string, len(spec.Candidates))
			for i, c := range spec.Candidates {
				candidates[i] = alias(c)
			}
		}
		_ = b.AddConditionalEdges(alias(spec.From), router, candidates...)
	}

	return b.Compile()
}

// Loader builds a graph from a manifest file on every call.
type Loader struct {
	Path    string
	Catalog *Catalog
}

// NewLoader creates a loader for the manifest at path.
func NewLoader(path string, catalog *Catalog) *Loader {
	return &Loader{Path: path, Catalog: catalog}
}

// LoadGraph implements ports.GraphLoader.
func (l *Loader) LoadGraph(ctx context.Context) (*dsl.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := Load(l.Path)
	if err != nil {
		return nil, err
	}
	return m.Build(l.Catalog)
}

// alias maps the manifest spellings START and END to the sentinels.
func alias(name string) string {
	switch name {
	case "START":
		return domain.Start
	case "END":
		return domain.End
	}
	return name
}
