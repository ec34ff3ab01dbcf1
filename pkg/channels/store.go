package channels

import (
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
)

// MergeError reports which update of a batch could not be reduced.
type MergeError struct {
	Index int
	Err   error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("update %d: %v", e.Index, e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

// Store holds the evolving State of a single run.
// It is owned by exactly one executor, which is its sole mutator, so it needs
// no locking. Snapshots it hands out are never modified afterwards.
type Store struct {
	schema  Schema
	current domain.State
}

// NewStore initializes a store from caller-supplied channel values.
func NewStore(schema Schema, initial domain.State) *Store {
	return &Store{
		schema:  schema,
		current: initial.Clone(),
	}
}

// Snapshot returns the current State. Callers must treat it as read-only;
// the next Merge replaces it instead of modifying it.
func (s *Store) Snapshot() domain.State {
	return s.current
}

// Merge reduces updates into the store, in order, as one batch.
// If any update fails the store keeps its previous snapshot and the error is
// a *MergeError naming the failing update.
func (s *Store) Merge(updates ...domain.Update) error {
	next := s.current
	for i, u := range updates {
		var err error
		if next, err = s.schema.Merge(next, u); err != nil {
			return &MergeError{Index: i, Err: err}
		}
	}
	s.current = next
	return nil
}

// Schema returns the channel schema of the store.
func (s *Store) Schema() Schema {
	return s.schema
}
