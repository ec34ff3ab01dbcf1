package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flow = `
name: hello
nodes:
  - {name: greet, kind: emit, with: {channel: greeting, value: hello}}
edges:
  - {from: START, to: greet}
  - {from: greet, to: END}
`

const broken = `
name: broken
nodes:
  - {name: greet, kind: emit, with: {channel: greeting, value: hello}}
  - {name: orphan, kind: emit, with: {channel: greeting, value: bye}}
edges:
  - {from: START, to: greet}
  - {from: greet, to: ghost}
`

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func manifestFile(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "lattice version "))
}

func TestValidate(t *testing.T) {
	out, _, err := execute(t, "validate", manifestFile(t, flow))
	require.NoError(t, err)
	assert.Contains(t, out, `Graph "hello" is valid: 1 nodes, 2 edges, 0 routes.`)

	_, errOut, err := execute(t, "validate", manifestFile(t, broken))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, errOut, "dangling_edge")
	assert.Contains(t, errOut, "unreachable_node")
}

func TestGraph(t *testing.T) {
	out, _, err := execute(t, "graph", manifestFile(t, flow))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, "start_ --> greet")
}
