package agents

import (
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry of a conversation.
type Message struct {
	ID      string `json:"id" mapstructure:"id"`
	Role    Role   `json:"role" mapstructure:"role"`
	Name    string `json:"name,omitempty" mapstructure:"name"`
	Content string `json:"content" mapstructure:"content"`
}

// User creates a user message.
func User(content string) Message {
	return Message{ID: uuid.NewString(), Role: RoleUser, Content: content}
}

// Assistant creates an assistant message authored by name.
func Assistant(name, content string) Message {
	return Message{ID: uuid.NewString(), Role: RoleAssistant, Name: name, Content: content}
}

// Messages is the reducer of a conversation channel.
// New messages are appended; a message whose ID already exists replaces the
// old one in place. Plain strings become user messages. Messages without an
// ID get one derived from their position and content, so replaying the same
// updates yields the same conversation.
func Messages(old, new any) (any, error) {
	current, err := ToMessages(old)
	if err != nil {
		return nil, fmt.Errorf("messages reducer: current value: %w", err)
	}
	incoming, err := ToMessages(new)
	if err != nil {
		return nil, fmt.Errorf("messages reducer: update: %w", err)
	}

	out := make([]Message, len(current), len(current)+len(incoming))
	copy(out, current)
	index := make(map[string]int, len(out))
	for i, m := range out {
		if m.ID != "" {
			index[m.ID] = i
		}
	}
	for _, m := range incoming {
		if m.ID == "" {
			m.ID = derivedID(len(out), m)
		}
		if i, ok := index[m.ID]; ok {
			out[i] = m
			continue
		}
		index[m.ID] = len(out)
		out = append(out, m)
	}
	return out, nil
}

// messageNamespace scopes the IDs derived by the Messages reducer.
var messageNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("lattice.messages"))

func derivedID(position int, m Message) string {
	key := fmt.Sprintf("%d\x00%s\x00%s\x00%s", position, m.Role, m.Name, m.Content)
	return uuid.NewSHA1(messageNamespace, []byte(key)).String()
}

// ToMessages converts a channel value into a conversation.
// It accepts messages, strings and the generic maps produced by JSON decoding.
func ToMessages(v any) ([]Message, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []Message:
		return t, nil
	case Message:
		return []Message{t}, nil
	case *Message:
		return []Message{*t}, nil
	case string:
		return []Message{{Role: RoleUser, Content: t}}, nil
	case []string:
		out := make([]Message, 0, len(t))
		for _, s := range t {
			out = append(out, Message{Role: RoleUser, Content: s})
		}
		return out, nil
	case map[string]any:
		var m Message
		if err := mapstructure.Decode(t, &m); err != nil {
			return nil, err
		}
		return []Message{m}, nil
	case []any:
		var out []Message
		for _, item := range t {
			msgs, err := ToMessages(item)
			if err != nil {
				return nil, err
			}
			out = append(out, msgs...)
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot use %T as messages", v)
}

// History reads the conversation stored in a channel.
func History(state domain.State, channel string) []Message {
	msgs, _ := ToMessages(state[channel])
	return msgs
}

// LastMessage returns the latest message of a channel.
func LastMessage(state domain.State, channel string) (Message, bool) {
	msgs := History(state, channel)
	if len(msgs) == 0 {
		return Message{}, false
	}
	return msgs[len(msgs)-1], true
}
