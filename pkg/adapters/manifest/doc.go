/*
Package manifest loads graph definitions from YAML.

A manifest names the graph, declares channel reducers, lists nodes by kind and
wires them with static edges and routes:

	name: dynamic-team
	max_steps: 10
	channels:
	  messages: messages
	nodes:
	  - name: researcher
	    kind: agent
	    with: {prompt: "Research the topic", replies: ["NEED_MORE_RESEARCH", "RESEARCH_COMPLETE"]}
	  - name: writer
	    kind: agent
	    with: {prompt: "Write the report", replies: ["Final report"]}
	edges:
	  - {from: START, to: researcher}
	  - {from: writer, to: END}
	routes:
	  - from: researcher
	    kind: marker
	    with:
	      markers: {RESEARCH_COMPLETE: writer, NEED_MORE_RESEARCH: researcher}
	      fallback: END

Node and route kinds are resolved through a Catalog; their "with" parameters
are decoded with mapstructure, so unknown keys are rejected.
*/
package manifest
