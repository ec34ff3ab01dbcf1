package ports

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
)

// StateStore defines the interface for persisting conversation threads.
// A checkpoint carries the channel values of a session between invocations.
type StateStore interface {
	// Save persists the checkpoint for a given session ID.
	Save(ctx context.Context, sessionID string, cp *domain.Checkpoint) error

	// Load retrieves the checkpoint for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Checkpoint, error)

	// Delete removes the checkpoint for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of the stored sessions.
	List(ctx context.Context) ([]string, error)
}
