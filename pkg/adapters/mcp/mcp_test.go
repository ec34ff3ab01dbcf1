package mcp_test

import (
	"context"
	"testing"

	"github.com/aretw0/lattice"
	lmcp "github.com/aretw0/lattice/pkg/adapters/mcp"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/channels"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/dsl"
	"github.com/aretw0/lattice/pkg/registry"
	"github.com/aretw0/lattice/pkg/session"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summarizer(t *testing.T) *lattice.Engine {
	t.Helper()
	b := dsl.New("summarizer").Channel("notes", channels.Append)
	require.NoError(t, b.AddNode("summarize", dsl.Pure(func(s domain.State) domain.Update {
		return domain.Update{"notes": []any{"summary"}, "done": true}
	})))
	require.NoError(t, b.AddEdge(domain.Start, "summarize"))
	require.NoError(t, b.AddEdge("summarize", domain.End))
	return lattice.New(b.MustCompile())
}

func connect(t *testing.T, srv *lmcp.Server) *client.Client {
	t.Helper()
	c, err := lmcp.NewInProcessClient(context.Background(), srv)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestServer_InvokeGraph(t *testing.T) {
	c := connect(t, lmcp.NewServer(summarizer(t)))

	tools, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	require.NoError(t, err)
	require.Len(t, tools.Tools, 1)
	assert.Equal(t, lmcp.InvokeTool, tools.Tools[0].Name)

	out, err := lmcp.NewClient(c).Execute(context.Background(), lmcp.InvokeTool, map[string]any{
		"input": map[string]any{"notes": []any{"draft"}},
	})
	require.NoError(t, err)

	result, ok := out.(map[string]any)
	require.True(t, ok, "structured content, got %T", out)
	values := result["values"].(map[string]any)
	assert.Equal(t, []any{"draft", "summary"}, values["notes"])
	assert.Equal(t, true, values["done"])
}

func TestServer_InvokeGraphWithSession(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	c := connect(t, lmcp.NewServer(summarizer(t), lmcp.WithSessions(mgr)))
	remote := lmcp.NewClient(c)

	for range 2 {
		_, err := remote.Execute(context.Background(), lmcp.InvokeTool, map[string]any{"session_id": "thread"})
		require.NoError(t, err)
	}

	cp, err := mgr.Load(context.Background(), "thread")
	require.NoError(t, err)
	assert.Equal(t, 2, cp.Runs)
	assert.Equal(t, []any{"summary", "summary"}, cp.Values["notes"])
}

func TestServer_SessionsDisabled(t *testing.T) {
	c := connect(t, lmcp.NewServer(summarizer(t)))
	_, err := lmcp.NewClient(c).Execute(context.Background(), lmcp.InvokeTool, map[string]any{"session_id": "x"})
	assert.ErrorContains(t, err, "sessions are not enabled")
}

func TestServer_FailureIsToolError(t *testing.T) {
	b := dsl.New("loop")
	require.NoError(t, b.AddNode("again", dsl.Emit("x", 1)))
	require.NoError(t, b.AddEdge(domain.Start, "again"))
	require.NoError(t, b.AddConditionalEdges("again", func(domain.State) string { return "again" }, "again", domain.End))
	c := connect(t, lmcp.NewServer(lattice.New(b.MustCompile(), lattice.WithMaxSteps(2))))

	_, err := lmcp.NewClient(c).Execute(context.Background(), lmcp.InvokeTool, nil)
	assert.ErrorContains(t, err, "step budget")
}

func TestServer_GraphResource(t *testing.T) {
	c := connect(t, lmcp.NewServer(summarizer(t)))

	req := mcp.ReadResourceRequest{}
	req.Params.URI = lmcp.GraphResource
	res, err := c.ReadResource(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)

	text, ok := res.Contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Contains(t, text.Text, "start_ --> summarize")
}

func TestToolNode_RemoteRegistry(t *testing.T) {
	reg := registry.NewRegistry()
	registry.RegisterBuiltins(reg)
	c := connect(t, lmcp.NewServer(summarizer(t), lmcp.WithTools(reg)))

	b := dsl.New("weather")
	require.NoError(t, b.AddNode("lookup", lmcp.ToolNode(c, "get_current_weather",
		registry.StaticArgs(map[string]any{"location": "Tokyo"}), "weather")))
	require.NoError(t, b.AddEdge(domain.Start, "lookup"))
	require.NoError(t, b.AddEdge("lookup", domain.End))

	final, err := lattice.New(b.MustCompile()).Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"location": "Tokyo", "temperature": "10", "unit": "celsius"}, final["weather"])

	_, err = lmcp.NewClient(c).Execute(context.Background(), "get_current_weather", map[string]any{"location": "London"})
	assert.ErrorContains(t, err, "under maintenance")
}
