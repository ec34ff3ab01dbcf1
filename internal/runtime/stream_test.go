package runtime_test

import (
	"context"
	"iter"
	"testing"

	"github.com/aretw0/lattice/internal/runtime"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearEngine(t *testing.T, a, b *counted, opts ...runtime.EngineOption) *runtime.Engine {
	t.Helper()
	return newGraph(t).
		node("a", a).
		node("b", b).
		edge(domain.Start, "a").
		edge("a", "b").
		edge("b", domain.End).
		engine(opts...)
}

func TestStream_IsLazy(t *testing.T) {
	a, b := appendNode("a1"), appendNode("b1")
	run := linearEngine(t, a, b).Start(context.Background(), nil, domain.ModeValues)
	assert.EqualValues(t, 0, a.calls.Load(), "nothing runs before the first pull")

	next, stop := iter.Pull2(run.Events())
	defer stop()

	_, err, ok := next()
	require.True(t, ok)
	require.NoError(t, err)
	assert.EqualValues(t, 1, a.calls.Load())
	assert.EqualValues(t, 0, b.calls.Load(), "no node runs ahead of demand")
}

func TestStream_AbandonStopsTheRun(t *testing.T) {
	a, b := appendNode("a1"), appendNode("b1")
	run := linearEngine(t, a, b).Start(context.Background(), nil, domain.ModeValues)

	for _, err := range run.Events() {
		require.NoError(t, err)
		break
	}

	assert.EqualValues(t, 0, b.calls.Load())
	assert.Equal(t, domain.StatusAborted, run.Status())
	assert.ErrorIs(t, run.Err(), runtime.ErrStreamAbandoned)
	assert.ErrorIs(t, run.Err(), context.Canceled)
	assert.Equal(t, []string{"a1"}, run.State()["messages"])
}

func TestStream_BreakAfterFinalEventCompletes(t *testing.T) {
	run := linearEngine(t, appendNode("a1"), appendNode("b1")).Start(context.Background(), nil, domain.ModeValues)

	for ev, err := range run.Events() {
		require.NoError(t, err)
		if ev.Step == 2 {
			break
		}
	}
	assert.Equal(t, domain.StatusCompleted, run.Status())
	assert.NoError(t, run.Err())
}

func TestStream_IsNotRestartable(t *testing.T) {
	a := appendNode("a1")
	run := linearEngine(t, a, appendNode("b1")).Start(context.Background(), nil, domain.ModeValues)

	for range run.Events() {
	}
	var errs []error
	for _, err := range run.Events() {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], runtime.ErrStreamConsumed)
	assert.EqualValues(t, 1, a.calls.Load())
}

func TestStream_ValuesAreSnapshots(t *testing.T) {
	run := linearEngine(t, appendNode("a1"), appendNode("b1")).Start(
		context.Background(), domain.State{"messages": []string{"u0"}}, domain.ModeValues)

	var values []any
	for ev, err := range run.Events() {
		require.NoError(t, err)
		assert.Equal(t, run.ID(), ev.RunID)
		values = append(values, ev.Values["messages"])
		ev.Values["messages"] = "tampered"
	}

	assert.Equal(t, []any{
		[]string{"u0", "a1"},
		[]string{"u0", "a1", "b1"},
	}, values)
	assert.Equal(t, []string{"u0", "a1", "b1"}, run.State()["messages"])
}

func TestStream_RunIDGenerator(t *testing.T) {
	engine := linearEngine(t, appendNode("a1"), appendNode("b1"),
		runtime.WithRunIDGenerator(func() string { return "run-1" }))

	for ev, err := range engine.Stream(context.Background(), nil, domain.ModeUpdates) {
		require.NoError(t, err)
		assert.Equal(t, "run-1", ev.RunID)
		assert.Equal(t, domain.ModeUpdates, ev.Mode)
	}
}

func TestStream_InvalidMode(t *testing.T) {
	a := appendNode("a1")
	run := linearEngine(t, a, appendNode("b1")).Start(context.Background(), nil, domain.StreamMode("debug"))

	for _, err := range run.Events() {
		assert.ErrorContains(t, err, "unknown stream mode")
	}
	assert.Equal(t, domain.StatusAborted, run.Status())
	assert.EqualValues(t, 0, a.calls.Load())
}
