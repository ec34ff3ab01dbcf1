package registry_test

import (
	"context"
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register("echo", func(ctx context.Context, args map[string]any) (any, error) {
		return args["text"], nil
	})

	t.Run("Execute", func(t *testing.T) {
		got, err := reg.Execute(context.Background(), "echo", map[string]any{"text": "hi"})
		require.NoError(t, err)
		assert.Equal(t, "hi", got)
	})

	t.Run("Unknown Tool", func(t *testing.T) {
		_, err := reg.Execute(context.Background(), "ghost", nil)
		assert.ErrorContains(t, err, "tool not found: ghost")
	})

	t.Run("Names", func(t *testing.T) {
		registry.RegisterBuiltins(reg)
		assert.Equal(t, []string{"calculate", "echo", "get_current_weather"}, reg.Names())
		assert.True(t, reg.Has("calculate"))
	})
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want float64
	}{
		{"Add", map[string]any{"a": 2, "b": 3, "op": "add"}, 5},
		{"Symbols", map[string]any{"a": 6, "b": 4, "op": "*"}, 24},
		{"Weak Typing", map[string]any{"a": "10", "b": "4", "op": "div"}, 2.5},
		{"Expression", map[string]any{"expression": "7 - 10"}, -3},
		{"Compact Expression", map[string]any{"expression": "22+10"}, 32},
		{"Signed Operands", map[string]any{"expression": "-2*1e-3"}, -0.002},
		{"Negative Right Operand", map[string]any{"expression": "3*-2"}, -6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := registry.Calculate(context.Background(), tt.args)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	t.Run("Malformed Expression", func(t *testing.T) {
		for _, expr := range []string{"22+", "22", "+"} {
			_, err := registry.Calculate(context.Background(), map[string]any{"expression": expr})
			assert.ErrorContains(t, err, "expected", expr)
		}
	})

	t.Run("Division By Zero", func(t *testing.T) {
		_, err := registry.Calculate(context.Background(), map[string]any{"a": 1, "b": 0, "op": "/"})
		assert.ErrorContains(t, err, "division by zero")
	})

	t.Run("Unknown Argument", func(t *testing.T) {
		_, err := registry.Calculate(context.Background(), map[string]any{"a": 1, "b": 2, "op": "+", "c": 3})
		assert.ErrorContains(t, err, "invalid arguments")
	})
}

func TestCurrentWeather(t *testing.T) {
	got, err := registry.CurrentWeather(context.Background(), map[string]any{"location": "Tokyo"})
	require.NoError(t, err)
	assert.Equal(t, registry.Weather{Location: "Tokyo", Temperature: "10", Unit: "celsius"}, got)

	got, err = registry.CurrentWeather(context.Background(), map[string]any{"location": "Lisbon"})
	require.NoError(t, err)
	assert.Equal(t, "fahrenheit", got.(registry.Weather).Unit)

	_, err = registry.CurrentWeather(context.Background(), map[string]any{"location": "London"})
	assert.ErrorContains(t, err, "maintenance")
}

func TestToolNode(t *testing.T) {
	reg := registry.NewRegistry()
	registry.RegisterBuiltins(reg)

	t.Run("Writes Result", func(t *testing.T) {
		node := registry.ToolNode(reg, "calculate", registry.ChannelArgs("args"), "result")
		update, err := node.Compute(context.Background(), domain.State{
			"args": map[string]any{"expression": "2 + 2"},
		})
		require.NoError(t, err)
		assert.Equal(t, domain.Update{"result": 4.0}, update)
	})

	t.Run("Tool Failure Is Node Failure", func(t *testing.T) {
		node := registry.ToolNode(reg, "get_current_weather",
			registry.StaticArgs(map[string]any{"location": "London"}), "weather")
		_, err := node.Compute(context.Background(), domain.State{})
		assert.ErrorContains(t, err, "tool get_current_weather")
	})

	t.Run("Missing Arguments", func(t *testing.T) {
		node := registry.ToolNode(reg, "calculate", registry.ChannelArgs("args"), "result")
		_, err := node.Compute(context.Background(), domain.State{})
		assert.ErrorContains(t, err, `channel "args" is empty`)
	})
}
