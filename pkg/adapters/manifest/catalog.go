package manifest

import (
	"fmt"
	"maps"
	"slices"

	"github.com/aretw0/lattice/pkg/agents"
	"github.com/aretw0/lattice/pkg/channels"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/dsl"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/registry"
	"github.com/mitchellh/mapstructure"
)

// NodeFactory builds the node declared as name with the given parameters.
type NodeFactory func(name string, params map[string]any) (domain.Node, error)

// RouterFactory builds a router and the candidates it may return.
type RouterFactory func(params map[string]any) (domain.Router, []string, error)

// Catalog resolves node kinds, route kinds and channel reducers.
type Catalog struct {
	nodes      map[string]NodeFactory
	routers    map[string]RouterFactory
	reducers   map[string]channels.Reducer
	generators map[string]agents.Generator
	tools      ports.ToolDispatcher
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithGenerator makes gen available to agent nodes under name.
// Agent nodes without a "generator" parameter use the one named "default".
func WithGenerator(name string, gen agents.Generator) CatalogOption {
	return func(c *Catalog) {
		c.generators[name] = gen
	}
}

// WithTools sets the dispatcher used by tool nodes.
// Defaults to a registry holding the built-in tools.
func WithTools(d ports.ToolDispatcher) CatalogOption {
	return func(c *Catalog) {
		c.tools = d
	}
}

// NewCatalog creates a catalog with the built-in kinds:
// nodes emit, agent and tool; routes marker, switch and supervisor;
// reducers overwrite, append and messages.
func NewCatalog(opts ...CatalogOption) *Catalog {
	c := &Catalog{
		nodes:      make(map[string]NodeFactory),
		routers:    make(map[string]RouterFactory),
		reducers:   map[string]channels.Reducer{"messages": agents.Messages},
		generators: make(map[string]agents.Generator),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tools == nil {
		reg := registry.NewRegistry()
		registry.RegisterBuiltins(reg)
		c.tools = reg
	}

	c.RegisterNode("emit", emitNode)
	c.RegisterNode("agent", c.agentNode)
	c.RegisterNode("tool", c.toolNode)
	c.RegisterRouter("marker", markerRouter)
	c.RegisterRouter("switch", switchRouter)
	c.RegisterRouter("supervisor", supervisorRouter)
	return c
}

// RegisterNode adds or replaces a node kind.
func (c *Catalog) RegisterNode(kind string, f NodeFactory) {
	c.nodes[kind] = f
}

// RegisterRouter adds or replaces a route kind.
func (c *Catalog) RegisterRouter(kind string, f RouterFactory) {
	c.routers[kind] = f
}

// RegisterReducer adds or replaces a channel reducer name.
func (c *Catalog) RegisterReducer(name string, r channels.Reducer) {
	c.reducers[name] = r
}

// NodeKinds lists the registered node kinds.
func (c *Catalog) NodeKinds() []string {
	return slices.Sorted(maps.Keys(c.nodes))
}

// RouteKinds lists the registered route kinds.
func (c *Catalog) RouteKinds() []string {
	return slices.Sorted(maps.Keys(c.routers))
}

func (c *Catalog) reducer(name string) (channels.Reducer, bool) {
	if r, ok := c.reducers[name]; ok {
		return r, true
	}
	return channels.Named(name)
}

type emitParams struct {
	Channel string `mapstructure:"channel"`
	Value   any    `mapstructure:"value"`
}

func emitNode(_ string, params map[string]any) (domain.Node, error) {
	var p emitParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if p.Channel == "" {
		return nil, fmt.Errorf("emit: channel is required")
	}
	return dsl.Emit(p.Channel, p.Value), nil
}

type agentParams struct {
	Prompt    string   `mapstructure:"prompt"`
	Channel   string   `mapstructure:"channel"`
	Generator string   `mapstructure:"generator"`
	Replies   []string `mapstructure:"replies"`
}

func (c *Catalog) agentNode(name string, params map[string]any) (domain.Node, error) {
	var p agentParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}

	var gen agents.Generator
	switch {
	case len(p.Replies) > 0 && p.Generator != "":
		return nil, fmt.Errorf("agent: replies and generator are exclusive")
	case len(p.Replies) > 0:
		gen = agents.Rotating(name, p.Replies...)
	default:
		key := p.Generator
		if key == "" {
			key = "default"
		}
		g, ok := c.generators[key]
		if !ok {
			return nil, fmt.Errorf("agent: unknown generator %q", key)
		}
		gen = g
	}

	opts := []agents.Option{agents.WithSystemPrompt(p.Prompt)}
	if p.Channel != "" {
		opts = append(opts, agents.WithChannel(p.Channel))
	}
	return agents.NewAgent(name, gen, opts...), nil
}

type toolParams struct {
	Tool        string         `mapstructure:"tool"`
	Args        map[string]any `mapstructure:"args"`
	ArgsChannel string         `mapstructure:"args_channel"`
	Output      string         `mapstructure:"output"`
}

func (c *Catalog) toolNode(name string, params map[string]any) (domain.Node, error) {
	var p toolParams
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if p.Tool == "" {
		p.Tool = name
	}
	if p.Output == "" {
		p.Output = name
	}

	var args registry.ArgsFunc
	switch {
	case p.ArgsChannel != "" && p.Args != nil:
		return nil, fmt.Errorf("tool: args and args_channel are exclusive")
	case p.ArgsChannel != "":
		args = registry.ChannelArgs(p.ArgsChannel)
	default:
		args = registry.StaticArgs(p.Args)
	}
	return registry.ToolNode(c.tools, p.Tool, args, p.Output), nil
}

type markerParams struct {
	Channel  string            `mapstructure:"channel"`
	Markers  map[string]string `mapstructure:"markers"`
	Fallback string            `mapstructure:"fallback"`
}

func markerRouter(params map[string]any) (domain.Router, []string, error) {
	var p markerParams
	if err := decode(params, &p); err != nil {
		return nil, nil, err
	}
	if len(p.Markers) == 0 {
		return nil, nil, fmt.Errorf("marker: markers are required")
	}
	if p.Channel == "" {
		p.Channel = agents.DefaultChannel
	}
	p.Fallback = alias(p.Fallback)
	if p.Fallback == "" {
		p.Fallback = domain.End
	}

	markers := make(map[string]string, len(p.Markers))
	for marker, target := range p.Markers {
		markers[marker] = alias(target)
	}
	return agents.MarkerRouter(p.Channel, markers, p.Fallback), targets(markers, p.Fallback), nil
}

type supervisorParams struct {
	Researcher string `mapstructure:"researcher"`
	Writer     string `mapstructure:"writer"`
	Channel    string `mapstructure:"channel"`
}

func supervisorRouter(params map[string]any) (domain.Router, []string, error) {
	var p supervisorParams
	if err := decode(params, &p); err != nil {
		return nil, nil, err
	}
	if p.Researcher == "" || p.Writer == "" {
		return nil, nil, fmt.Errorf("supervisor: researcher and writer are required")
	}
	s := agents.NewSupervisor(p.Researcher, p.Writer)
	if p.Channel != "" {
		s.Channel = p.Channel
	}
	return s.Route, s.Candidates(), nil
}

type switchParams struct {
	Channel string            `mapstructure:"channel"`
	Cases   map[string]string `mapstructure:"cases"`
	Default string            `mapstructure:"default"`
}

// switchRouter compares the formatted value of a channel with the case keys.
func switchRouter(params map[string]any) (domain.Router, []string, error) {
	var p switchParams
	if err := decode(params, &p); err != nil {
		return nil, nil, err
	}
	if p.Channel == "" {
		return nil, nil, fmt.Errorf("switch: channel is required")
	}
	p.Default = alias(p.Default)
	if p.Default == "" {
		p.Default = domain.End
	}

	cases := make(map[string]string, len(p.Cases))
	for value, target := range p.Cases {
		cases[value] = alias(target)
	}
	router := func(state domain.State) string {
		v, ok := state[p.Channel]
		if !ok {
			return p.Default
		}
		if target, ok := cases[fmt.Sprint(v)]; ok {
			return target
		}
		return p.Default
	}
	return router, targets(cases, p.Default), nil
}

// targets returns the distinct values of m plus extra, sorted.
func targets(m map[string]string, extra string) []string {
	out := slices.Collect(maps.Values(m))
	out = append(out, extra)
	slices.Sort(out)
	return slices.Compact(out)
}

func decode(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}
