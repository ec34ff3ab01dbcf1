package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/adapters/mcp"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/registry"
	"github.com/aretw0/lattice/pkg/session"
)

// MCPOptions configures the MCP server.
type MCPOptions struct {
	EngineOptions
	Transport string
	Port      int
	RedisAddr string
	LogLevel  string
}

// ServeMCP exposes the graph as an MCP tool. The built-in tools are exposed
// too. Logs always go to stderr so they cannot corrupt the stdio transport.
func ServeMCP(ctx context.Context, opts MCPOptions) error {
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.New(level)
	log.SetOutput(os.Stderr)

	engine, err := createEngine(opts.EngineOptions, domain.LifecycleHooks{}, logger)
	if err != nil {
		return err
	}

	store, sessionOpts, closeStore, err := openStore(ctx, opts.RedisAddr)
	if err != nil {
		return err
	}
	defer closeStore()

	tools := registry.NewRegistry()
	registry.RegisterBuiltins(tools)

	srv := mcp.NewServer(engine,
		mcp.WithSessions(session.NewManager(store, append(sessionOpts, session.WithLogger(logger))...)),
		mcp.WithTools(tools),
		mcp.WithLogger(logger),
	)

	switch opts.Transport {
	case "stdio":
		logger.Info("starting mcp server (stdio)", "graph", engine.Graph().Name())
		return srv.ServeStdio()
	case "sse":
		logger.Info("starting mcp server (sse)", "graph", engine.Graph().Name(), "port", opts.Port)
		return srv.ServeSSE(ctx, opts.Port)
	}
	return fmt.Errorf("unknown transport %q (supported: stdio, sse)", opts.Transport)
}
