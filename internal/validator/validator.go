// Package validator checks the structural invariants of a graph definition.
package validator

import (
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
)

// Definition is the raw shape of a graph as collected by a builder.
type Definition struct {
	// Nodes lists the registered node names in declaration order.
	Nodes  []string
	Edges  []domain.Edge
	Routes []domain.ConditionalEdge
}

// ValidateGraph crawls the definition from START and reports dangling
// targets, invalid candidates, unreachable nodes and dead ends.
// It returns every issue found, in a stable order.
func ValidateGraph(def Definition) []domain.BuildIssue {
	var issues []domain.BuildIssue

	declared := make(map[string]bool, len(def.Nodes))
	for _, name := range def.Nodes {
		declared[name] = true
	}
	known := func(name string) bool {
		return declared[name] || domain.IsSentinel(name)
	}

	if len(def.Nodes) == 0 {
		issues = append(issues, domain.BuildIssue{
			Kind:   domain.IssueNoEntry,
			Detail: "graph declares no nodes",
		})
	}

	// adjacency over static edges and route candidates
	next := make(map[string][]string)
	for _, e := range def.Edges {
		for _, endpoint := range []string{e.From, e.To} {
			if !known(endpoint) {
				issues = append(issues, domain.BuildIssue{
					Kind:   domain.IssueDanglingEdge,
					Node:   endpoint,
					Detail: fmt.Sprintf("edge %s -> %s references an undeclared node", e.From, e.To),
				})
			}
		}
		next[e.From] = append(next[e.From], e.To)
	}

	for _, r := range def.Routes {
		if !known(r.From) {
			issues = append(issues, domain.BuildIssue{
				Kind:   domain.IssueDanglingEdge,
				Node:   r.From,
				Detail: "conditional edge leaves an undeclared node",
			})
		}
		for _, c := range r.Candidates {
			if c == domain.End || declared[c] {
				continue
			}
			issues = append(issues, domain.BuildIssue{
				Kind:   domain.IssueInvalidCandidate,
				Node:   r.From,
				Detail: fmt.Sprintf("candidate %q is neither a declared node nor END", c),
			})
		}
		next[r.From] = append(next[r.From], r.Candidates...)
	}

	if len(def.Nodes) > 0 && len(next[domain.Start]) == 0 {
		issues = append(issues, domain.BuildIssue{
			Kind:   domain.IssueNoEntry,
			Detail: "no edge leaves START",
		})
	}

	// Crawler
	visited := map[string]bool{domain.Start: true}
	queue := []string{domain.Start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, target := range next[current] {
			if !visited[target] {
				visited[target] = true
				queue = append(queue, target)
			}
		}
	}

	for _, name := range def.Nodes {
		if !visited[name] {
			issues = append(issues, domain.BuildIssue{
				Kind:   domain.IssueUnreachableNode,
				Node:   name,
				Detail: "no path from START",
			})
		}
		if len(next[name]) == 0 {
			issues = append(issues, domain.BuildIssue{
				Kind:   domain.IssueDeadEnd,
				Node:   name,
				Detail: "node has no outgoing edge; route it to END explicitly",
			})
		}
	}

	return issues
}
