package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/agents"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// The style follows the terminal background.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// Transcript formats a conversation as markdown, one section per message.
func Transcript(history []agents.Message) string {
	var sb strings.Builder
	for i, m := range history {
		if i > 0 {
			sb.WriteString("\n---\n\n")
		}
		author := string(m.Role)
		if m.Name != "" {
			author = fmt.Sprintf("%s (%s)", m.Name, m.Role)
		}
		fmt.Fprintf(&sb, "### %s\n\n%s\n", author, m.Content)
	}
	return sb.String()
}
