package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/dsl"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart of a compiled graph.
// It applies semantic styling:
// - START/END: ((Circle))
// - Node: [Rectangle]
// - Static edge: solid arrow
// - Route: dashed arrow to every candidate, labelled "route"
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(g *dsl.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	fmt.Fprintf(&sb, "    %s((\"START\"))\n", sanitizeMermaidID(domain.Start))
	for _, name := range g.Nodes() {
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", sanitizeMermaidID(name), escapeLabel(name))
	}
	fmt.Fprintf(&sb, "    %s((\"END\"))\n", sanitizeMermaidID(domain.End))

	for _, e := range g.Edges() {
		fmt.Fprintf(&sb, "    %s --> %s\n", sanitizeMermaidID(e.From), sanitizeMermaidID(e.To))
	}

	for _, r := range g.ConditionalEdges() {
		from := sanitizeMermaidID(r.From)
		for _, c := range r.Candidates {
			fmt.Fprintf(&sb, "    %s -. \"route\" .-> %s\n", from, sanitizeMermaidID(c))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) so labels stay readable on both themes
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visited := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if safeID == "" || visited[safeID] {
				continue
			}
			visited[safeID] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
		}

		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

// sanitizeMermaidID maps a node name to a Mermaid identifier.
// The sentinels get fixed identifiers that cannot clash with user names.
func sanitizeMermaidID(id string) string {
	switch id {
	case domain.Start:
		return "start_"
	case domain.End:
		return "end_"
	}
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	s := r.Replace(id)
	// "end" is a Mermaid keyword
	if strings.EqualFold(s, "end") {
		return s + "_node"
	}
	return s
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
