package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/presentation/graph"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/registry"
	"github.com/aretw0/lattice/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Names exposed by the server.
const (
	InvokeTool    = "invoke_graph"
	GraphResource = "graph://mermaid"
)

// InvokeResult is the structured result of invoke_graph.
type InvokeResult struct {
	Values    domain.State `json:"values" jsonschema_description:"Terminal State of the run"`
	SessionID string       `json:"session_id,omitempty" jsonschema_description:"Session the run continued, if any"`
}

// Server wraps an engine and exposes it as an MCP Server.
type Server struct {
	engine    ports.Engine
	sessions  *session.Manager
	tools     *registry.Registry
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithSessions lets invoke_graph continue sessions through session_id.
func WithSessions(m *session.Manager) Option {
	return func(s *Server) {
		s.sessions = m
	}
}

// WithTools also exposes every tool of reg as an MCP tool.
func WithTools(reg *registry.Registry) Option {
	return func(s *Server) {
		s.tools = reg
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("lattice-mcp", strings.TrimSpace(lattice.Version),
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	g := s.engine.Graph()
	invoke := mcp.NewTool(InvokeTool,
		mcp.WithDescription(fmt.Sprintf("Run the %q graph to completion and return its terminal State.", g.Name())),
		mcp.WithObject("input", mcp.Description("Initial channel values, merged through the graph reducers")),
		mcp.WithString("session_id", mcp.Description("Continue this conversation thread (optional)")),
		mcp.WithOutputSchema[InvokeResult](),
	)
	s.mcpServer.AddTool(invoke, s.handleInvoke)

	if s.tools == nil {
		return
	}
	for _, name := range s.tools.Names() {
		tool := mcp.NewTool(name, mcp.WithDescription(fmt.Sprintf("Local tool %s.", name)))
		s.mcpServer.AddTool(tool, s.toolHandler(name))
	}
}

func (s *Server) handleInvoke(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	var input domain.State
	switch v := args["input"].(type) {
	case nil:
	case map[string]any:
		input = domain.State(v)
	case string:
		// Some clients send objects as JSON text.
		if err := json.Unmarshal([]byte(v), &input); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("input is not a JSON object: %v", err)), nil
		}
	default:
		return mcp.NewToolResultError(fmt.Sprintf("input must be an object, got %T", v)), nil
	}
	sessionID, _ := args["session_id"].(string)

	var (
		final domain.State
		err   error
	)
	switch {
	case sessionID != "" && s.sessions == nil:
		return mcp.NewToolResultError("sessions are not enabled on this server"), nil
	case sessionID != "":
		final, err = s.sessions.Invoke(ctx, sessionID, s.engine, input)
	default:
		final, err = s.engine.Invoke(ctx, input)
	}
	if err != nil {
		s.logger.Warn("mcp invoke failed", "session_id", sessionID, "err", err)
		return mcp.NewToolResultError(describe(err)), nil
	}

	result := InvokeResult{Values: final, SessionID: sessionID}
	text, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultStructured(result, string(text)), nil
}

func (s *Server) toolHandler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := s.tools.Execute(ctx, name, request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		text, err := json.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("encode %s result: %w", name, err)
		}
		return mcp.NewToolResultText(string(text)), nil
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphResource, "Graph flowchart",
		mcp.WithResourceDescription("Mermaid flowchart of the served graph"),
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphResource,
				MIMEType: "text/plain",
				Text:     graph.GenerateMermaid(s.engine.Graph(), nil),
			},
		}, nil
	})
}

// describe prefixes the error with its kind so remote callers can tell
// configuration problems from node failures.
func describe(err error) string {
	var (
		configErr *domain.ConfigurationError
		execErr   *domain.ExecutionError
		limitErr  *domain.ExecutionLimitError
	)
	switch {
	case errors.As(err, &limitErr):
		return "step budget: " + err.Error()
	case errors.As(err, &configErr):
		return "configuration: " + err.Error()
	case errors.As(err, &execErr):
		return "execution: " + err.Error()
	}
	return err.Error()
}
