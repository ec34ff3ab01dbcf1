package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/channels"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/dsl"
	"github.com/aretw0/lattice/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func greeter(t *testing.T) *lattice.Engine {
	t.Helper()
	b := dsl.New("greeter").Channel("trace", channels.Append)
	require.NoError(t, b.AddNode("greet", dsl.Emit("trace", []string{"hi"})))
	require.NoError(t, b.AddNode("wave", dsl.Emit("trace", []string{"bye"})))
	require.NoError(t, b.AddEdge(domain.Start, "greet"))
	require.NoError(t, b.AddEdge("greet", "wave"))
	require.NoError(t, b.AddEdge("wave", domain.End))
	return lattice.New(b.MustCompile())
}

func looping(t *testing.T) *lattice.Engine {
	t.Helper()
	b := dsl.New("loop")
	require.NoError(t, b.AddNode("again", dsl.Emit("x", 1)))
	require.NoError(t, b.AddEdge(domain.Start, "again"))
	require.NoError(t, b.AddConditionalEdges("again", func(domain.State) string { return "again" }, "again", domain.End))
	return lattice.New(b.MustCompile(), lattice.WithMaxSteps(3))
}

func failing(t *testing.T) *lattice.Engine {
	t.Helper()
	b := dsl.New("failing")
	require.NoError(t, b.AddNode("boom", domain.NodeFunc(func(context.Context, domain.State) (domain.Update, error) {
		return nil, errors.New("upstream unavailable")
	})))
	require.NoError(t, b.AddEdge(domain.Start, "boom"))
	require.NoError(t, b.AddEdge("boom", domain.End))
	return lattice.New(b.MustCompile())
}

func post(t *testing.T, h http.Handler, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestInvoke(t *testing.T) {
	h := NewHandler(greeter(t))

	w := post(t, h, "/invoke", `{"input": {"trace": ["u0"]}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp InvokeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []any{"u0", "hi", "bye"}, resp.Values["trace"])
}

func TestInvoke_EmptyBody(t *testing.T) {
	h := NewHandler(greeter(t))
	w := post(t, h, "/invoke", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInvoke_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		engine *lattice.Engine
		body   string
		status int
		kind   string
	}{
		{"bad body", greeter(t), `{"input": [}`, http.StatusBadRequest, "bad_request"},
		{"step budget", looping(t), `{}`, http.StatusUnprocessableEntity, "step_budget"},
		{"node failure", failing(t), `{}`, http.StatusBadGateway, "execution"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, NewHandler(tt.engine), "/invoke", tt.body)
			assert.Equal(t, tt.status, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.kind, resp.Kind)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func readLines(t *testing.T, body string) []StreamLine {
	t.Helper()
	var lines []StreamLine
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		var line StreamLine
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		lines = append(lines, line)
	}
	return lines
}

func TestStream(t *testing.T) {
	h := NewHandler(greeter(t))

	w := post(t, h, "/stream?mode=updates", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/x-ndjson", w.Header().Get("Content-Type"))

	lines := readLines(t, w.Body.String())
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"greet"}, lines[0].Event.Nodes)
	assert.Equal(t, domain.ModeUpdates, lines[0].Event.Mode)
	assert.Contains(t, lines[0].Event.Updates, "greet")
	assert.Equal(t, []string{"wave"}, lines[1].Event.Nodes)
}

func TestStream_ReportsTerminalError(t *testing.T) {
	h := NewHandler(looping(t))

	w := post(t, h, "/stream", `{}`)
	require.Equal(t, http.StatusOK, w.Code)

	lines := readLines(t, w.Body.String())
	require.Len(t, lines, 4)
	for _, line := range lines[:3] {
		require.NotNil(t, line.Event)
		assert.Equal(t, domain.ModeValues, line.Event.Mode)
	}
	require.NotNil(t, lines[3].Error)
	assert.Equal(t, "step_budget", lines[3].Error.Kind)
}

func TestStream_UnknownMode(t *testing.T) {
	w := post(t, NewHandler(greeter(t)), "/stream?mode=debug", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetGraph(t *testing.T) {
	h := NewHandler(greeter(t))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/graph", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "graph TD\n"))
	assert.Contains(t, w.Body.String(), "greet --> wave")
}

func TestSessions(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	h := NewHandler(greeter(t), WithSessions(mgr))

	for range 2 {
		w := post(t, h, "/sessions/thread-1/invoke", `{"input": {"trace": ["u"]}}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions/thread-1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var cp domain.Checkpoint
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cp))
	assert.Equal(t, 2, cp.Runs)
	assert.Equal(t, []any{"u", "hi", "bye", "u", "hi", "bye"}, cp.Values["trace"])

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/sessions/thread-1", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions/thread-1", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessions_DisabledByDefault(t *testing.T) {
	w := post(t, NewHandler(greeter(t)), "/sessions/x/invoke", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubscribeEvents_Session(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	h := NewHandler(greeter(t), WithSessions(mgr))
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sessions/sess-1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)

	invoke, err := http.Post(srv.URL+"/sessions/sess-1/invoke", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	invoke.Body.Close()
	require.Equal(t, http.StatusOK, invoke.StatusCode)

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: {") {
			break
		}
	}
	assert.Contains(t, line, `"trace":["hi","bye"]`)
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("s")
	assert.Equal(t, 1, sm.Subscribers("s"))

	for i := range 12 {
		sm.Broadcast("s", fmt.Sprint(i))
	}
	assert.Len(t, ch, 10, "a full buffer drops messages")

	cancel()
	assert.Equal(t, 0, sm.Subscribers("s"))
}
