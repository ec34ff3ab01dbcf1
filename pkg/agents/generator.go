package agents

import (
	"context"
	"errors"
	"sync"
)

// ErrScriptExhausted is returned by a Scripted generator with no replies left.
var ErrScriptExhausted = errors.New("scripted generator has no replies left")

// Generator produces the next reply of a conversation.
type Generator interface {
	Generate(ctx context.Context, prompt string, history []Message) (string, error)
}

// GeneratorFunc adapts an ordinary function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string, history []Message) (string, error)

// Generate calls f(ctx, prompt, history).
func (f GeneratorFunc) Generate(ctx context.Context, prompt string, history []Message) (string, error) {
	return f(ctx, prompt, history)
}

// Scripted replays canned replies in order. It is safe for concurrent use.
type Scripted struct {
	mu      sync.Mutex
	replies []string
	next    int
	prompts []string
}

// NewScripted creates a generator answering with replies, one per call.
func NewScripted(replies ...string) *Scripted {
	return &Scripted{replies: replies}
}

// Generate returns the next canned reply.
func (s *Scripted) Generate(ctx context.Context, prompt string, _ []Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if s.next >= len(s.replies) {
		return "", ErrScriptExhausted
	}
	reply := s.replies[s.next]
	s.next++
	return reply, nil
}

// Calls returns how many replies have been consumed.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Prompts returns the prompts received so far.
func (s *Scripted) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// Rotating returns a stateless generator for the agent named author. It
// answers with the reply matching the number of messages author already has
// in the history, wrapping around at the end, so one compiled graph can
// serve any number of runs and sessions.
func Rotating(author string, replies ...string) Generator {
	return GeneratorFunc(func(ctx context.Context, _ string, history []Message) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if len(replies) == 0 {
			return "", ErrScriptExhausted
		}
		own := 0
		for _, m := range history {
			if m.Role == RoleAssistant && m.Name == author {
				own++
			}
		}
		return replies[own%len(replies)], nil
	})
}
