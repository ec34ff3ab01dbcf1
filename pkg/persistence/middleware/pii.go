package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

type piiMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks, before saving, every
// value whose key matches one of the patterns. Nested maps are searched too.
// Loaded checkpoints keep the mask.
func NewPIIMiddleware(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("pii pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return func(next ports.StateStore) ports.StateStore {
		return &piiMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, cp *domain.Checkpoint) error {
	masked := *cp
	masked.Values = m.mask(cp.Values)
	return m.next.Save(ctx, sessionID, &masked)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// mask returns a copy of values; the engine's own state is never touched.
func (m *piiMiddleware) mask(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		switch {
		case m.sensitive(k):
			out[k] = Mask
		case isMap(v):
			out[k] = m.mask(v.(map[string]any))
		default:
			out[k] = v
		}
	}
	return out
}

func (m *piiMiddleware) sensitive(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

func isMap(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}
