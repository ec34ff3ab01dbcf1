package ports

import "context"

// ToolDispatcher executes a named tool. Local registries and remote tool
// servers both implement it, so either can back a tool node.
type ToolDispatcher interface {
	Execute(ctx context.Context, name string, args map[string]any) (any, error)
}
