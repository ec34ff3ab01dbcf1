package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/lattice/pkg/adapters/redis"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counterFlow = `
name: counter
channels:
  trace: append
nodes:
  - name: first
    kind: emit
    with: {channel: trace, value: [a]}
  - name: second
    kind: emit
    with: {channel: trace, value: [b]}
edges:
  - {from: START, to: first}
  - {from: first, to: second}
  - {from: second, to: END}
`

func writeFlow(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

// syncBuffer is written by the watcher goroutine and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestParseInput(t *testing.T) {
	t.Run("JSON and assignments", func(t *testing.T) {
		in, err := parseInput(`{"topic": "graphs"}`, []string{"n=3", "flag=true", "name=ada", "list=[1,2]"})
		require.NoError(t, err)
		assert.Equal(t, domain.State{
			"topic": "graphs",
			"n":     float64(3),
			"flag":  true,
			"name":  "ada",
			"list":  []any{float64(1), float64(2)},
		}, in)
	})

	t.Run("Invalid assignment", func(t *testing.T) {
		_, err := parseInput("", []string{"novalue"})
		assert.ErrorContains(t, err, "expected key=value")
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		_, err := parseInput("{", nil)
		assert.ErrorContains(t, err, "--input")
	})

	t.Run("Control characters are stripped", func(t *testing.T) {
		in, err := parseInput("", []string{"name=a\x1b[31mda\x00\nline"})
		require.NoError(t, err)
		assert.Equal(t, "a[31mda\nline", in["name"])
	})

	t.Run("Oversized input", func(t *testing.T) {
		t.Setenv(EnvMaxInputSize, "8")
		_, err := parseInput(`{"topic": "graphs"}`, nil)
		assert.ErrorIs(t, err, ErrInputTooLarge)
	})

	t.Run("Invalid UTF-8", func(t *testing.T) {
		_, err := parseInput("", []string{"name=\xff"})
		assert.ErrorIs(t, err, ErrInvalidUTF8)
	})
}

func TestExecute_JSONMode(t *testing.T) {
	var out bytes.Buffer
	err := Execute(context.Background(), RunOptions{
		EngineOptions: EngineOptions{File: writeFlow(t, counterFlow)},
		Mode:          "updates",
		JSON:          true,
	}, &out)
	require.NoError(t, err)

	var events []domain.Event
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var ev domain.Event
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		events = append(events, ev)
	}
	require.Len(t, events, 2)
	assert.Equal(t, []string{"first"}, events[0].Nodes)
	assert.Equal(t, []string{"second"}, events[1].Nodes)
	assert.Equal(t, domain.ModeUpdates, events[1].Mode)
}

func TestExecute_HumanMode(t *testing.T) {
	var out bytes.Buffer
	err := Execute(context.Background(), RunOptions{
		EngineOptions: EngineOptions{File: writeFlow(t, counterFlow)},
		Set:           []string{"seed=1"},
	}, &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "--- counter (run ")
	assert.Contains(t, text, "[1] first")
	assert.Contains(t, text, "[2] second")
	assert.Contains(t, text, `"trace": [`)
}

func TestExecute_Errors(t *testing.T) {
	flow := writeFlow(t, counterFlow)
	tests := []struct {
		name string
		opts RunOptions
		want string
	}{
		{"missing manifest", RunOptions{EngineOptions: EngineOptions{File: filepath.Join(t.TempDir(), "none.yaml")}}, "read manifest"},
		{"unknown mode", RunOptions{EngineOptions: EngineOptions{File: flow}, Mode: "debug"}, "unknown stream mode"},
		{"budget", RunOptions{EngineOptions: EngineOptions{File: flow, MaxSteps: 1}, Headless: true}, "step budget of 1"},
		{"watch and json", RunOptions{EngineOptions: EngineOptions{File: flow}, Watch: true, JSON: true}, "--watch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Execute(context.Background(), tt.opts, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestExecute_SessionWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	opts := RunOptions{
		EngineOptions: EngineOptions{File: writeFlow(t, counterFlow)},
		SessionID:     "thread-1",
		RedisAddr:     mr.Addr(),
		Headless:      true,
	}

	var out bytes.Buffer
	for range 2 {
		out.Reset()
		require.NoError(t, Execute(context.Background(), opts, &out))
	}

	var final domain.State
	require.NoError(t, json.Unmarshal(out.Bytes(), &final))
	assert.Equal(t, []any{"a", "b", "a", "b"}, final["trace"])

	store, closeStore, err := OpenStore(context.Background(), mr.Addr())
	require.NoError(t, err)
	defer closeStore()
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"thread-1"}, ids)
}

func TestExecute_EncryptedSession(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv(EnvEncryptionKey, strings.Repeat("ab", 32))
	opts := RunOptions{
		EngineOptions: EngineOptions{File: writeFlow(t, counterFlow)},
		SessionID:     "secret-thread",
		RedisAddr:     mr.Addr(),
		Headless:      true,
	}
	require.NoError(t, Execute(context.Background(), opts, &bytes.Buffer{}))

	raw, err := mr.Get(redis.DefaultPrefix + "secret-thread")
	require.NoError(t, err)
	assert.NotContains(t, raw, `"trace"`)

	store, closeStore, err := OpenStore(context.Background(), mr.Addr())
	require.NoError(t, err)
	defer closeStore()
	cp, err := store.Load(context.Background(), "secret-thread")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, cp.Values["trace"])
}

func TestOpenStore_BadEnvironment(t *testing.T) {
	t.Setenv(EnvEncryptionKey, "not-hex")
	_, _, err := OpenStore(context.Background(), "")
	assert.ErrorContains(t, err, EnvEncryptionKey)

	t.Setenv(EnvEncryptionKey, "")
	t.Setenv(EnvRedactKeys, "(")
	_, _, err = OpenStore(context.Background(), "")
	assert.ErrorContains(t, err, EnvRedactKeys)
}

func TestRunWatch_ReloadsOnChange(t *testing.T) {
	old := watchInterval
	watchInterval = 10 * time.Millisecond
	defer func() { watchInterval = old }()

	path := writeFlow(t, counterFlow)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- Execute(ctx, RunOptions{EngineOptions: EngineOptions{File: path}, Watch: true}, out)
	}()

	require.Eventually(t, func() bool { return strings.Contains(out.String(), "[2] second") }, 2*time.Second, 10*time.Millisecond)

	changed := strings.Replace(counterFlow, "name: counter", "name: counter-v2", 1)
	require.NoError(t, os.WriteFile(path, []byte(changed), 0o600))
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "--- counter-v2") }, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "Change detected")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNewServeHandler(t *testing.T) {
	handler, closeStore, err := NewServeHandler(context.Background(), ServeOptions{
		EngineOptions: EngineOptions{File: writeFlow(t, counterFlow)},
		LogLevel:      "error",
	})
	require.NoError(t, err)
	defer closeStore()

	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/invoke", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), `lattice_runs_total{status="completed"} 1`)
	assert.Contains(t, body.String(), `lattice_node_invocations_total{node="first",outcome="ok"} 1`)
}
