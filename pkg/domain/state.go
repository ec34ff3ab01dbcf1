package domain

import (
	"maps"
	"sort"
	"time"
)

// State maps channel names to their current values.
// A State handed to a node is a snapshot: writing to it has no effect on the run.
type State map[string]any

// Update is a PartialUpdate: only the channels a node invocation changes.
type Update map[string]any

// Clone returns a shallow copy of the state.
// Channel values are shared; reducers never modify a value in place.
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	return State(maps.Clone(map[string]any(s)))
}

// Get returns the value of a channel and whether it is set.
func (s State) Get(channel string) (any, bool) {
	v, ok := s[channel]
	return v, ok
}

// Channels returns the channel names in lexical order.
func (s State) Channels() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of the update.
func (u Update) Clone() Update {
	if u == nil {
		return Update{}
	}
	return Update(maps.Clone(map[string]any(u)))
}

// RunStatus is the state of the executor's state machine.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed" // the whole frontier collapsed to End
	StatusAborted   RunStatus = "aborted"   // error, routing violation or step budget
)

// Checkpoint is the persisted form of a conversation thread (session).
type Checkpoint struct {
	SessionID string    `json:"session_id"`
	Values    State     `json:"values"`
	Runs      int       `json:"runs"`
	Steps     int       `json:"steps"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCheckpoint creates an empty checkpoint for a session.
func NewCheckpoint(sessionID string) *Checkpoint {
	return &Checkpoint{
		SessionID: sessionID,
		Values:    State{},
	}
}
