package agents

import (
	"context"
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
)

// DefaultChannel is the conversation channel used when none is configured.
const DefaultChannel = "messages"

// Agent is a node that appends one generated assistant message to a conversation.
type Agent struct {
	name      string
	prompt    string
	channel   string
	generator Generator
}

// Option configures an Agent.
type Option func(*Agent)

// WithSystemPrompt sets the instructions passed to the generator.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		a.prompt = prompt
	}
}

// WithChannel sets the conversation channel (default "messages").
func WithChannel(channel string) Option {
	return func(a *Agent) {
		a.channel = channel
	}
}

// NewAgent creates an agent node named name.
func NewAgent(name string, gen Generator, opts ...Option) *Agent {
	a := &Agent{
		name:      name,
		channel:   DefaultChannel,
		generator: gen,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the author name put on the agent's messages.
func (a *Agent) Name() string { return a.name }

// Compute implements domain.Node.
func (a *Agent) Compute(ctx context.Context, state domain.State) (domain.Update, error) {
	history, err := ToMessages(state[a.channel])
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", a.name, err)
	}

	reply, err := a.generator.Generate(ctx, a.prompt, history)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", a.name, err)
	}
	return domain.Update{a.channel: []Message{Assistant(a.name, reply)}}, nil
}
