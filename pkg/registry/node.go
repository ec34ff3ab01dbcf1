package registry

import (
	"context"
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// ArgsFunc derives the arguments of a tool call from the State.
type ArgsFunc func(state domain.State) (map[string]any, error)

// StaticArgs always passes the same arguments.
func StaticArgs(args map[string]any) ArgsFunc {
	return func(domain.State) (map[string]any, error) {
		return args, nil
	}
}

// ChannelArgs reads the arguments from a channel holding a map.
func ChannelArgs(channel string) ArgsFunc {
	return func(state domain.State) (map[string]any, error) {
		v, ok := state[channel]
		if !ok {
			return nil, fmt.Errorf("channel %q is empty", channel)
		}
		args, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("channel %q holds %T, not arguments", channel, v)
		}
		return args, nil
	}
}

// ToolNode adapts a tool call to the node contract. Any dispatcher works: a
// local *Registry or a remote tool client.
// The tool result is written to the output channel; tool failures surface as
// ordinary node failures.
func ToolNode(reg ports.ToolDispatcher, tool string, args ArgsFunc, output string) domain.Node {
	return domain.NodeFunc(func(ctx context.Context, state domain.State) (domain.Update, error) {
		in, err := args(state)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", tool, err)
		}
		result, err := reg.Execute(ctx, tool, in)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", tool, err)
		}
		return domain.Update{output: result}, nil
	})
}
