package channels_test

import (
	"testing"

	"github.com/aretw0/lattice/pkg/channels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverwrite(t *testing.T) {
	got, err := channels.Overwrite("old", "new")
	require.NoError(t, err)
	assert.Equal(t, "new", got)
}

func TestAppend(t *testing.T) {
	tests := []struct {
		name string
		old  any
		new  any
		want any
	}{
		{"typed slices", []string{"u0"}, []string{"a1", "a2"}, []string{"u0", "a1", "a2"}},
		{"single item into typed slice", []string{"u0"}, "a1", []string{"u0", "a1"}},
		{"nil old slice", nil, []string{"a1"}, []string{"a1"}},
		{"nil old single item", nil, "a1", []string{"a1"}},
		{"nil new keeps old", []int{1}, nil, []int{1}},
		{"mixed element types degrade to any", []any{"u0"}, []string{"a1"}, []any{"u0", "a1"}},
		{"non-assignable item degrades to any", []string{"u0"}, 42, []any{"u0", 42}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := channels.Append(tt.old, tt.new)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAppend_NeverAliasesOld(t *testing.T) {
	old := make([]string, 1, 8)
	old[0] = "u0"

	first, err := channels.Append(old, "a1")
	require.NoError(t, err)
	second, err := channels.Append(old, "b1")
	require.NoError(t, err)

	assert.Equal(t, []string{"u0", "a1"}, first)
	assert.Equal(t, []string{"u0", "b1"}, second)
	assert.Equal(t, []string{"u0"}, old)
}

func TestAppend_RejectsScalarChannel(t *testing.T) {
	_, err := channels.Append("not a slice", "x")
	assert.ErrorContains(t, err, "not a slice")
}

func TestNamed(t *testing.T) {
	_, ok := channels.Named("append")
	assert.True(t, ok)
	_, ok = channels.Named("overwrite")
	assert.True(t, ok)
	_, ok = channels.Named("sum")
	assert.False(t, ok)
}
