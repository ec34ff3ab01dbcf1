package domain

import (
	"context"
	"time"
)

// StreamMode selects the payload of the events emitted by a run.
type StreamMode string

const (
	// ModeValues emits the full State snapshot after every tick.
	ModeValues StreamMode = "values"
	// ModeUpdates emits, per tick, each node's raw PartialUpdate.
	ModeUpdates StreamMode = "updates"
)

// Valid reports whether m is a known stream mode.
func (m StreamMode) Valid() bool {
	return m == ModeValues || m == ModeUpdates
}

// Event describes one completed tick.
type Event struct {
	RunID string     `json:"run_id"`
	Step  int        `json:"step"`
	Mode  StreamMode `json:"mode"`

	// Nodes lists the nodes invoked in this tick, in merge order.
	Nodes []string `json:"nodes"`

	// Values is the merged snapshot (ModeValues only).
	Values State `json:"values,omitempty"`

	// Updates maps node name to its raw update (ModeUpdates only).
	Updates map[string]Update `json:"updates,omitempty"`
}

// RunEvent describes the start or the end of a run.
type RunEvent struct {
	RunID     string
	Timestamp time.Time
	Status    RunStatus
	Steps     int
	Err       error
}

// NodeEvent describes one node invocation.
type NodeEvent struct {
	RunID     string
	Step      int
	Node      string
	Timestamp time.Time
	Duration  time.Duration // set on end
	Err       error         // set on end
}

// LifecycleHooks defines callbacks for engine observability.
// Every hook is optional. Hooks run on the executor's goroutine, except
// OnNodeStart/OnNodeEnd which run on the node's goroutine when a tick is
// executed concurrently.
type LifecycleHooks struct {
	OnRunStart  func(context.Context, *RunEvent)
	OnNodeStart func(context.Context, *NodeEvent)
	OnNodeEnd   func(context.Context, *NodeEvent)
	OnStep      func(context.Context, *Event)
	OnRunEnd    func(context.Context, *RunEvent)
}
