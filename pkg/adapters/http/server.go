package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/presentation/graph"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/session"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Server exposes an engine over HTTP.
type Server struct {
	Engine   ports.Engine
	Sessions *session.Manager
	Streams  *StreamManager
	Logger   *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithSessions enables the /sessions endpoints.
func WithSessions(m *session.Manager) Option {
	return func(s *Server) {
		s.Sessions = m
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// InvokeRequest is the body of the invoke endpoints.
type InvokeRequest struct {
	Input domain.State `json:"input"`
}

// InvokeResponse carries the terminal State.
type InvokeResponse struct {
	Values domain.State `json:"values"`
}

// ErrorResponse is written for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// StreamLine is one NDJSON line of /stream: an event or the terminal error.
type StreamLine struct {
	Event *domain.Event  `json:"event,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine ports.Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		Logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/graph", s.GetGraph)
	r.Post("/invoke", s.Invoke)
	r.Post("/stream", s.Stream)

	if s.Sessions != nil {
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.ListSessions)
			r.Get("/{id}", s.GetSession)
			r.Delete("/{id}", s.DeleteSession)
			r.Post("/{id}/invoke", s.InvokeSession)
			r.Get("/{id}/events", s.SubscribeEvents)
		})
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Invoke handles POST /invoke.
func (s *Server) Invoke(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	final, err := s.Engine.Invoke(r.Context(), req.Input)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, InvokeResponse{Values: final})
}

// Stream handles POST /stream?mode=values|updates.
// Events are written as NDJSON and flushed one by one; a failure is reported
// on a final line since the status code is already sent.
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {
	mode := domain.StreamMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = domain.ModeValues
	}
	if !mode.Valid() {
		s.writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown stream mode %q", mode))
		return
	}

	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	for ev, err := range s.Engine.Stream(r.Context(), req.Input, mode) {
		line := StreamLine{Event: &ev}
		if err != nil {
			_, kind := classify(err)
			line = StreamLine{Error: &ErrorResponse{Error: err.Error(), Kind: kind}}
		}
		if encErr := enc.Encode(line); encErr != nil {
			// The client is gone; breaking abandons the run.
			s.Logger.Warn("stream write failed", "err", encErr)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// GetGraph handles GET /graph and returns the Mermaid flowchart.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, graph.GenerateMermaid(s.Engine.Graph(), nil))
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":     "lattice-http",
		"version": strings.TrimSpace(lattice.Version),
		"graph":   s.Engine.Graph().Name(),
		"nodes":   s.Engine.Graph().Nodes(),
	})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	cp, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cp)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// InvokeSession handles POST /sessions/{id}/invoke and broadcasts the
// resulting State diff to the session's subscribers.
func (s *Server) InvokeSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	var before domain.State
	if cp, err := s.Sessions.Load(r.Context(), id); err == nil {
		before = cp.Values
	}

	final, err := s.Sessions.Invoke(r.Context(), id, s.Engine, req.Input)
	if err != nil {
		s.fail(w, err)
		return
	}

	if diff := domain.Diff(before, final); diff != nil {
		if data, err := json.Marshal(diff); err == nil {
			s.Streams.Broadcast(id, string(data))
		}
	}
	s.writeJSON(w, http.StatusOK, InvokeResponse{Values: final})
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "internal", "streaming not supported")
		return
	}

	id := chi.URLParam(r, "id")
	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.Logger.Info("sse subscribed", "session_id", id)

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("sse client disconnected", "session_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (InvokeRequest, bool) {
	var req InvokeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid request body: %v", err))
		return req, false
	}
	return req, true
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "kind", kind, "err", err)
	}
	s.writeError(w, status, kind, err.Error())
}

// classify maps the engine's error taxonomy to an HTTP status.
func classify(err error) (int, string) {
	var (
		buildErr  *domain.BuildError
		configErr *domain.ConfigurationError
		execErr   *domain.ExecutionError
		limitErr  *domain.ExecutionLimitError
	)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &limitErr):
		return http.StatusUnprocessableEntity, "step_budget"
	case errors.As(err, &configErr):
		return http.StatusInternalServerError, "configuration"
	case errors.As(err, &buildErr):
		return http.StatusInternalServerError, "build"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		return 499, "canceled"
	case errors.As(err, &execErr):
		return http.StatusBadGateway, "execution"
	}
	return http.StatusInternalServerError, "internal"
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, kind, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg, Kind: kind})
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
}

// NewStreamManager creates an empty manager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

// Subscribe registers a buffered channel for a session.
// The returned function unregisters and closes it.
func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of a session.
// Slow clients whose buffer is full miss the message.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Subscribers returns the number of subscribers of a session.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}
