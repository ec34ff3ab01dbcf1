/*
Package dsl provides the builder used to assemble lattice graphs in Go.

Nodes are registered under unique names, wired with static edges or
conditional routers, and compiled into an immutable Graph. Compilation
either succeeds or returns a *domain.BuildError that lists every violated
invariant; a graph is never partially compiled.

Example usage:

	b := dsl.New("research")
	b.Channel("messages", channels.Append)

	_ = b.AddNode("researcher", researcher)
	_ = b.AddNode("writer", writer)

	_ = b.AddEdge(domain.Start, "researcher")
	_ = b.AddConditionalEdges("researcher", route, "researcher", "writer")
	_ = b.AddEdge("writer", domain.End)

	graph, err := b.Compile()
	if err != nil {
		// *domain.BuildError
	}
	// ... pass graph to lattice.New(...)
*/
package dsl
