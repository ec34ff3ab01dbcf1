package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// IssueKind names a violated graph invariant.
type IssueKind string

const (
	IssueDuplicateNode    IssueKind = "duplicate_node"
	IssueNilNode          IssueKind = "nil_node"
	IssueInvalidName      IssueKind = "invalid_name"
	IssueInvalidEdge      IssueKind = "invalid_edge"
	IssueDanglingEdge     IssueKind = "dangling_edge"
	IssueNoEntry          IssueKind = "no_entry"
	IssueUnreachableNode  IssueKind = "unreachable_node"
	IssueDeadEnd          IssueKind = "dead_end"
	IssueNilRouter        IssueKind = "nil_router"
	IssueEmptyCandidates  IssueKind = "empty_candidates"
	IssueInvalidCandidate IssueKind = "invalid_candidate"
)

// BuildIssue is a single invariant violation found while building a graph.
type BuildIssue struct {
	Kind   IssueKind
	Node   string
	Detail string
}

func (i BuildIssue) String() string {
	if i.Node == "" {
		return fmt.Sprintf("%s: %s", i.Kind, i.Detail)
	}
	return fmt.Sprintf("%s %q: %s", i.Kind, i.Node, i.Detail)
}

// BuildError reports every invariant a graph definition violates.
// A graph that fails to build is never partially compiled.
type BuildError struct {
	Issues []BuildIssue
}

func (e *BuildError) Error() string {
	if len(e.Issues) == 1 {
		return "build error: " + e.Issues[0].String()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "build error: %d issues:\n", len(e.Issues))
	for i, issue := range e.Issues {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, issue.String())
	}
	return sb.String()
}

// Has reports whether the error contains an issue of the given kind.
func (e *BuildError) Has(kind IssueKind) bool {
	for _, issue := range e.Issues {
		if issue.Kind == kind {
			return true
		}
	}
	return false
}

// ConfigurationError is returned when a router picks a name outside its
// declared candidates. It aborts the current run; the graph stays valid.
type ConfigurationError struct {
	Node       string
	Target     string
	Candidates []string
	Reason     string
}

func (e *ConfigurationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("router of node %q: %s", e.Node, e.Reason)
	}
	return fmt.Sprintf("router of node %q returned %q, expected one of %v", e.Node, e.Target, e.Candidates)
}

// ExecutionError wraps the failure of a node computation.
type ExecutionError struct {
	Node string
	Step int
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("node %q failed at step %d: %v", e.Node, e.Step, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// ExecutionLimitError is returned when a run exhausts its step budget.
type ExecutionLimitError struct {
	MaxSteps int
	Frontier []string
}

func (e *ExecutionLimitError) Error() string {
	return fmt.Sprintf("step budget of %d exhausted with pending nodes %v", e.MaxSteps, e.Frontier)
}
