/*
Package lattice is a directed-graph orchestration engine for composing
independent computation steps ("nodes") that share incrementally merged state.

# Concept

A graph is a set of named nodes wired by static edges and conditional routers,
entered at START and left at END. Each node reads a snapshot of the State and
returns only the channels it changes; every channel has a reducer (overwrite or
append) that folds those partial updates into the next snapshot. The engine
runs the graph tick by tick: invoke the frontier, merge in declaration order,
route, repeat, until the whole frontier collapses to END or the step budget is
exhausted.

# Key Features

  - Deterministic Execution: given the same State, routers pick the same next nodes and merges replay identically.
  - Validated Graphs: compilation lists every structural defect and never partially succeeds.
  - Pull-Based Streaming: events are produced only as fast as the caller consumes them.
  - Typed Errors: BuildError, ConfigurationError, ExecutionError and ExecutionLimitError.

# Usage

	b := dsl.New("research")
	b.Channel("messages", channels.Append)
	_ = b.AddNode("researcher", researcher)
	_ = b.AddNode("writer", writer)
	_ = b.AddEdge(domain.Start, "researcher")
	_ = b.AddEdge("researcher", "writer")
	_ = b.AddEdge("writer", domain.End)

	graph, err := b.Compile()
	if err != nil {
		log.Fatal(err)
	}

	eng := lattice.New(graph, lattice.WithMaxSteps(10))
	for ev, err := range eng.Stream(ctx, domain.State{"messages": []string{"Summarize X"}}, domain.ModeUpdates) {
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(ev.Nodes, ev.Updates)
	}
*/
package lattice
