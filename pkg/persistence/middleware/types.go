// Package middleware wraps a ports.StateStore to transform checkpoints on
// their way to and from storage.
package middleware

import "github.com/aretw0/lattice/pkg/ports"

// Middleware allows wrapping a StateStore to add behavior.
type Middleware func(ports.StateStore) ports.StateStore

// Chain wraps store with mws. The first middleware is the outermost one, so
// it sees checkpoints first on Save and last on Load.
func Chain(store ports.StateStore, mws ...Middleware) ports.StateStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
