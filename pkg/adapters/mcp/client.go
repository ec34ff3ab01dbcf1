package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/registry"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// Caller is the part of an MCP client used to call remote tools.
// *client.Client implements it.
type Caller interface {
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Client dispatches tool calls to a remote MCP server.
// It implements ports.ToolDispatcher.
type Client struct {
	caller Caller
}

// NewClient wraps an initialized MCP client.
func NewClient(caller Caller) *Client {
	return &Client{caller: caller}
}

// Execute calls the remote tool. Structured content is returned as is; text
// content is decoded as JSON when possible and returned as a string otherwise.
// A tool-level error becomes a Go error.
func (c *Client) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := c.caller.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", name, err)
	}

	text := contentText(res)
	if res.IsError {
		return nil, fmt.Errorf("remote tool %s: %s", name, text)
	}
	if res.StructuredContent != nil {
		return res.StructuredContent, nil
	}

	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err == nil {
		return decoded, nil
	}
	return text, nil
}

// ToolNode calls a remote MCP tool as a graph node and writes the result to
// the output channel.
func ToolNode(caller Caller, tool string, args registry.ArgsFunc, output string) domain.Node {
	return registry.ToolNode(NewClient(caller), tool, args, output)
}

// Connect starts and initializes c.
func Connect(ctx context.Context, c *client.Client) error {
	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("start mcp client: %w", err)
	}
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{
		Name:    "lattice",
		Version: strings.TrimSpace(lattice.Version),
	}
	if _, err := c.Initialize(ctx, req); err != nil {
		return fmt.Errorf("initialize mcp client: %w", err)
	}
	return nil
}

// NewInProcessClient returns a connected client talking to s without a
// transport, for tests and for embedding one graph inside another.
func NewInProcessClient(ctx context.Context, s *Server) (*client.Client, error) {
	c, err := client.NewInProcessClient(s.MCPServer())
	if err != nil {
		return nil, err
	}
	if err := Connect(ctx, c); err != nil {
		return nil, errors.Join(err, c.Close())
	}
	return c, nil
}

func contentText(res *mcp.CallToolResult) string {
	var parts []string
	for _, content := range res.Content {
		if tc, ok := mcp.AsTextContent(content); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
