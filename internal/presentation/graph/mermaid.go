// Package graph renders dialog trees as Mermaid flowcharts.
package graph

import (
	"fmt"
	"strings"

	"github.com/claytonlovin/Botinho/pkg/domain"
)

// GraphOverlay contains session state to highlight on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart from nodes in breadth-first
// order; the first node is the root. Shapes follow the node kind:
// - Root: ((Circle))
// - Handoff: [[Subroutine]]
// - Input: [/Parallelogram/]
// - Terminal: ([Stadium])
// - Options: [Rectangle]
// Edges carry the choice key. Dotted edges resume the walk after a handoff.
func GenerateMermaid(nodes []domain.Node, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	var rootID string
	if len(nodes) > 0 {
		rootID = nodes[0].Base().ID
	}

	for _, node := range nodes {
		h := node.Base()
		safeID := sanitizeMermaidID(h.ID)

		opener, closer := "[", "]"
		switch {
		case h.ID == rootID:
			opener, closer = "((", "))"
		case node.Kind() == domain.KindHandoff:
			opener, closer = "[[", "]]"
		case node.Kind() == domain.KindInput:
			opener, closer = "[/", "/]"
		case node.Kind() == domain.KindTerminal:
			opener, closer = "([", "])"
		}

		label := h.ID
		if h.Title != "" {
			label += " <br/> " + escape(h.Title)
		}
		if h.Media != "" {
			label += " <br/> 🔊"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		switch v := node.(type) {
		case *domain.OptionsNode:
			for _, c := range v.Choices {
				if c.Action == domain.ActionBack {
					continue
				}
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, escape(c.Key), sanitizeMermaidID(c.Target.Base().ID))
			}
			if v.Next != nil {
				fmt.Fprintf(&sb, "    %s -- \"✓ %s\" --> %s\n", safeID, validatorName(v.Validator), sanitizeMermaidID(v.Next.Base().ID))
			}
		case *domain.InputNode:
			fmt.Fprintf(&sb, "    %s -- \"✓ %s\" --> %s\n", safeID, validatorName(v.Validator), sanitizeMermaidID(v.Next.Base().ID))
		case *domain.HandoffNode:
			target := rootID
			if v.Next != nil {
				target = v.Next.Base().ID
			}
			fmt.Fprintf(&sb, "    %s -. \"fim\" .-> %s\n", safeID, sanitizeMermaidID(target))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text stays readable on light fills in both themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func validatorName(v domain.Validator) string {
	if v == nil {
		return ""
	}
	return escape(v.Name())
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
