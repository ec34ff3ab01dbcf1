package tui

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/muesli/termenv"
)

// Printer formats run events for a terminal.
type Printer struct {
	profile termenv.Profile
}

// NewPrinter creates a printer for the given color profile.
// termenv.Ascii disables styling.
func NewPrinter(profile termenv.Profile) *Printer {
	return &Printer{profile: profile}
}

// Render implements the runner's event renderer contract.
func (p *Printer) Render(ev domain.Event) (string, error) {
	var sb strings.Builder

	step := p.profile.String(fmt.Sprintf("[%d]", ev.Step)).Foreground(p.profile.Color("#818cf8")).Bold()
	nodes := p.profile.String(strings.Join(ev.Nodes, ", ")).Foreground(p.profile.Color("#f472b6"))
	fmt.Fprintf(&sb, "%s %s", step, nodes)

	switch ev.Mode {
	case domain.ModeUpdates:
		for _, node := range ev.Nodes {
			line, err := p.pairs(ev.Updates[node])
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, "\n    %s: %s", node, line)
		}
	default:
		line, err := p.pairs(ev.Values)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "\n    %s", line)
	}
	return sb.String(), nil
}

// pairs prints channel=value pairs in lexical channel order.
func (p *Printer) pairs(values map[string]any) (string, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		data, err := json.Marshal(values[k])
		if err != nil {
			return "", fmt.Errorf("channel %s: %w", k, err)
		}
		key := p.profile.String(k).Faint()
		parts = append(parts, fmt.Sprintf("%s=%s", key, data))
	}
	return strings.Join(parts, " "), nil
}
