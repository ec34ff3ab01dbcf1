package channels

import (
	"fmt"
	"sort"

	"github.com/aretw0/lattice/pkg/domain"
)

// Schema declares the reducer of each channel.
// A Schema is immutable: With returns a new Schema.
type Schema struct {
	reducers map[string]Reducer
}

// NewSchema creates a schema from a channel → reducer mapping.
func NewSchema(reducers map[string]Reducer) Schema {
	s := Schema{reducers: make(map[string]Reducer, len(reducers))}
	for name, r := range reducers {
		s.reducers[name] = r
	}
	return s
}

// With returns a copy of the schema declaring one more channel.
func (s Schema) With(channel string, reducer Reducer) Schema {
	next := NewSchema(s.reducers)
	next.reducers[channel] = reducer
	return next
}

// Reducer returns the reducer of a channel, Overwrite when undeclared.
func (s Schema) Reducer(channel string) Reducer {
	if r, ok := s.reducers[channel]; ok && r != nil {
		return r
	}
	return Overwrite
}

// Declared returns the declared channel names in lexical order.
func (s Schema) Declared() []string {
	names := make([]string, 0, len(s.reducers))
	for name := range s.reducers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge applies an update to a snapshot and returns the new snapshot.
// The input snapshot is never modified. Channels are reduced in lexical order
// so a failing reducer is reported deterministically.
func (s Schema) Merge(state domain.State, update domain.Update) (domain.State, error) {
	next := state.Clone()
	if len(update) == 0 {
		return next, nil
	}

	keys := make([]string, 0, len(update))
	for k := range update {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, channel := range keys {
		merged, err := s.Reducer(channel)(state[channel], update[channel])
		if err != nil {
			return nil, fmt.Errorf("channel %q: %w", channel, err)
		}
		next[channel] = merged
	}
	return next, nil
}

// MergeAll folds updates into state in the given order.
func (s Schema) MergeAll(state domain.State, updates ...domain.Update) (domain.State, error) {
	current := state.Clone()
	for _, u := range updates {
		var err error
		if current, err = s.Merge(current, u); err != nil {
			return nil, err
		}
	}
	return current, nil
}
