package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aretw0/lattice/internal/logging"
	httpAdapter "github.com/aretw0/lattice/pkg/adapters/http"
	"github.com/aretw0/lattice/pkg/observability"
	"github.com/aretw0/lattice/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServeOptions configures the HTTP server.
type ServeOptions struct {
	EngineOptions
	Addr      string
	RedisAddr string
	LogLevel  string
}

// NewServeHandler builds the engine, the session manager and the HTTP routes,
// with Prometheus metrics on /metrics.
func NewServeHandler(ctx context.Context, opts ServeOptions) (http.Handler, func() error, error) {
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(level)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return nil, nil, err
	}

	engine, err := createEngine(opts.EngineOptions, observability.Combine(metrics.Hooks(), observability.LogHooks(logger)), logger)
	if err != nil {
		return nil, nil, err
	}

	store, sessionOpts, closeStore, err := openStore(ctx, opts.RedisAddr)
	if err != nil {
		return nil, nil, err
	}
	mgr := session.NewManager(store, append(sessionOpts, session.WithLogger(logger))...)

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Mount("/", httpAdapter.NewHandler(engine, httpAdapter.WithSessions(mgr), httpAdapter.WithLogger(logger)))
	return r, closeStore, nil
}

// Serve runs the HTTP server until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, opts ServeOptions, out io.Writer) error {
	handler, closeStore, err := NewServeHandler(ctx, opts)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		printSystemMessage(out, "Serving '%s' on %s", opts.File, srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			srv.Close()
			return fmt.Errorf("graceful shutdown did not complete: %w", err)
		}
		printSystemMessage(out, "Server stopped gracefully")
		return nil
	}
}
