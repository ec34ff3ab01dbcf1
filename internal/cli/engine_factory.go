package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/adapters/manifest"
	"github.com/aretw0/lattice/pkg/domain"
)

// EngineOptions are the engine flags shared by every command.
type EngineOptions struct {
	File        string
	MaxSteps    int
	Concurrency int
	Strict      bool
}

// createEngine loads the manifest and initializes an engine with standard CLI
// conventions. A --max-steps flag wins over the manifest's max_steps.
func createEngine(opts EngineOptions, hooks domain.LifecycleHooks, logger *slog.Logger) (*lattice.Engine, error) {
	m, err := manifest.Load(opts.File)
	if err != nil {
		return nil, err
	}
	graph, err := m.Build(manifest.NewCatalog())
	if err != nil {
		return nil, fmt.Errorf("error building graph: %w", err)
	}

	engineOpts := []lattice.Option{
		lattice.WithLogger(logger),
		lattice.WithLifecycleHooks(hooks),
	}

	maxSteps := m.MaxSteps
	if opts.MaxSteps > 0 {
		maxSteps = opts.MaxSteps
	}
	if maxSteps > 0 {
		engineOpts = append(engineOpts, lattice.WithMaxSteps(maxSteps))
	}
	if opts.Concurrency > 1 {
		engineOpts = append(engineOpts, lattice.WithConcurrency(opts.Concurrency))
	}
	if opts.Strict {
		engineOpts = append(engineOpts, lattice.WithStrictRouting(true))
	}

	return lattice.New(graph, engineOpts...), nil
}

// LoadEngine is createEngine without hooks, for commands that only inspect.
func LoadEngine(opts EngineOptions) (*lattice.Engine, error) {
	return createEngine(opts, domain.LifecycleHooks{}, createLogger(false))
}
