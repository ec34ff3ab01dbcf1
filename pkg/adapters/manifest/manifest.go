package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the YAML form of a graph definition.
type Manifest struct {
	Name     string            `yaml:"name"`
	MaxSteps int               `yaml:"max_steps,omitempty"`
	Channels map[string]string `yaml:"channels,omitempty"`
	Nodes    []NodeSpec        `yaml:"nodes"`
	Edges    []EdgeSpec        `yaml:"edges,omitempty"`
	Routes   []RouteSpec       `yaml:"routes,omitempty"`
}

// NodeSpec declares one node.
type NodeSpec struct {
	Name string         `yaml:"name"`
	Kind string         `yaml:"kind"`
	With map[string]any `yaml:"with,omitempty"`
}

// EdgeSpec declares a static edge. START and END name the sentinels.
type EdgeSpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// RouteSpec declares a conditional edge. Candidates may be omitted when the
// route kind can derive them from its parameters.
type RouteSpec struct {
	From       string         `yaml:"from"`
	Kind       string         `yaml:"kind"`
	Candidates []string       `yaml:"candidates,omitempty"`
	With       map[string]any `yaml:"with,omitempty"`
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a manifest. Unknown fields are rejected.
func Parse(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("parse manifest: document is empty")
		}
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Name == "" {
		return nil, errors.New("parse manifest: name is required")
	}
	if m.MaxSteps < 0 {
		return nil, fmt.Errorf("parse manifest: max_steps must not be negative, got %d", m.MaxSteps)
	}
	return &m, nil
}
