package dsl

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
)

// Pure lifts a context-free function into a Node.
func Pure(fn func(domain.State) domain.Update) domain.Node {
	return domain.NodeFunc(func(_ context.Context, state domain.State) (domain.Update, error) {
		return fn(state), nil
	})
}

// Emit returns a node that writes a fixed value to one channel.
func Emit(channel string, value any) domain.Node {
	return Pure(func(domain.State) domain.Update {
		return domain.Update{channel: value}
	})
}
