package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/lattice/pkg/domain"
)

// LogHooks writes run and node lifecycle events to logger.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			logger.InfoContext(ctx, "run started", "run_id", e.RunID)
		},
		OnNodeEnd: func(ctx context.Context, e *domain.NodeEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "node failed", "run_id", e.RunID, "step", e.Step, "node", e.Node, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "node finished", "run_id", e.RunID, "step", e.Step, "node", e.Node, "duration", e.Duration)
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			logger.InfoContext(ctx, "run finished", "run_id", e.RunID, "status", e.Status, "steps", e.Steps, "err", e.Err)
		},
	}
}

// Combine returns hooks that call every given hook set in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, s := range sets {
		out.OnRunStart = chain(out.OnRunStart, s.OnRunStart)
		out.OnNodeStart = chain(out.OnNodeStart, s.OnNodeStart)
		out.OnNodeEnd = chain(out.OnNodeEnd, s.OnNodeEnd)
		out.OnStep = chain(out.OnStep, s.OnStep)
		out.OnRunEnd = chain(out.OnRunEnd, s.OnRunEnd)
	}
	return out
}

func chain[E any](first, next func(context.Context, E)) func(context.Context, E) {
	switch {
	case next == nil:
		return first
	case first == nil:
		return next
	}
	return func(ctx context.Context, e E) {
		first(ctx, e)
		next(ctx, e)
	}
}
