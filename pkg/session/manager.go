package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.StateStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the lease of distributed locks (default 30s).
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(), // Default to no-op
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Invoke continues a conversation thread: it loads the session checkpoint,
// merges input into it through the graph's reducers, runs the graph and saves
// the terminal State. A failed run leaves the checkpoint untouched.
func (m *Manager) Invoke(ctx context.Context, sessionID string, engine ports.Engine, input domain.State) (domain.State, error) {
	var final domain.State
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		cp, err := m.loadOrNew(ctx, sessionID)
		if err != nil {
			return err
		}

		initial, err := engine.Graph().Schema().Merge(cp.Values, domain.Update(input))
		if err != nil {
			return fmt.Errorf("merge input into session %s: %w", sessionID, err)
		}

		final = initial
		steps := 0
		for ev, err := range engine.Stream(ctx, initial, domain.ModeValues) {
			if err != nil {
				return err
			}
			final = ev.Values
			steps = ev.Step
		}

		cp.Values = final
		cp.Runs++
		cp.Steps += steps
		cp.UpdatedAt = m.now().UTC()
		if err := m.store.Save(ctx, sessionID, cp); err != nil {
			return fmt.Errorf("failed to save session %s: %w", sessionID, err)
		}
		m.logger.Debug("session saved", "session_id", sessionID, "runs", cp.Runs, "steps", steps)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return final, nil
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	var cp *domain.Checkpoint
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		cp, err = m.store.Load(ctx, sessionID)
		return err
	})
	return cp, err
}

// LoadOrCreate tries to load a session. If not found, it initializes a new one.
func (m *Manager) LoadOrCreate(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	var cp *domain.Checkpoint
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		cp, err = m.store.Load(ctx, sessionID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		cp = domain.NewCheckpoint(sessionID)
		cp.UpdatedAt = m.now().UTC()

		// Persist immediately to reserve the ID
		if err := m.store.Save(ctx, sessionID, cp); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		return nil
	})
	return cp, err
}

// Save persists the session checkpoint.
func (m *Manager) Save(ctx context.Context, sessionID string, cp *domain.Checkpoint) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, cp)
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func (m *Manager) loadOrNew(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	cp, err := m.store.Load(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.NewCheckpoint(sessionID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	return cp, nil
}
