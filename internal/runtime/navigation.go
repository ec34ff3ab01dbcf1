package runtime

import (
	"fmt"
	"slices"

	"github.com/aretw0/lattice/pkg/domain"
)

// resolveNext returns the next frontier for the nodes that just ran:
// the union of their static targets and router choices, in declaration order.
// END is kept only when nothing else is pending.
func (e *Engine) resolveNext(state domain.State, ran []string) ([]string, error) {
	seen := make(map[string]bool)
	var next []string
	add := func(target string) {
		if !seen[target] {
			seen[target] = true
			next = append(next, target)
		}
	}

	for _, from := range ran {
		for _, target := range e.graph.Successors(from) {
			add(target)
		}
		for _, route := range e.graph.Routes(from) {
			target, err := e.route(state, route)
			if err != nil {
				return nil, err
			}
			add(target)
		}
	}

	if len(next) > 1 && seen[domain.End] {
		next = slices.DeleteFunc(next, func(name string) bool { return name == domain.End })
	}
	slices.SortStableFunc(next, func(a, b string) int {
		return e.graph.Order(a) - e.graph.Order(b)
	})
	return next, nil
}

// route evaluates one conditional edge against a snapshot.
func (e *Engine) route(state domain.State, edge domain.ConditionalEdge) (string, error) {
	target, err := evaluate(edge, state)
	if err != nil {
		return "", err
	}
	if !edge.Allows(target) {
		return "", &domain.ConfigurationError{
			Node:       edge.From,
			Target:     target,
			Candidates: edge.Candidates,
		}
	}

	if e.strictRouting {
		again, err := evaluate(edge, state)
		if err != nil {
			return "", err
		}
		if again != target {
			return "", &domain.ConfigurationError{
				Node:       edge.From,
				Target:     again,
				Candidates: edge.Candidates,
				Reason:     fmt.Sprintf("router is not deterministic: returned %q then %q", target, again),
			}
		}
	}
	return target, nil
}

// evaluate calls the router; a panic aborts the run like any routing error.
func evaluate(edge domain.ConditionalEdge, state domain.State) (target string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &domain.ConfigurationError{
				Node:       edge.From,
				Candidates: edge.Candidates,
				Reason:     fmt.Sprintf("router panicked: %v", p),
			}
		}
	}()
	return edge.Router(state.Clone()), nil
}
