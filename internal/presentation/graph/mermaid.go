package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// Overlay contains runtime data to highlight on the diagram.
type Overlay struct {
	Active []domain.StateID
}

// GenerateMermaid produces a Mermaid state diagram (stateDiagram-v2) from a definition.
// Composite states are drawn as nested blocks with their default child marked by the
// initial pseudo-state, final states lead to the final pseudo-state and local transitions
// loop on their state.
func GenerateMermaid[O any](def *domain.Definition[O], overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("stateDiagram-v2\n")

	writeBody(&sb, def.Root(), 1)

	for _, s := range def.States() {
		for _, t := range s.Transitions {
			fmt.Fprintf(&sb, "    %s --> %s : %s\n", sanitizeMermaidID(string(t.Source.ID)), sanitizeMermaidID(string(t.Target.ID)), label(t))
		}
		for _, t := range s.Locals {
			fmt.Fprintf(&sb, "    %s --> %s : %s (local)\n", sanitizeMermaidID(string(s.ID)), sanitizeMermaidID(string(s.ID)), label(t))
		}
	}

	if overlay != nil && len(overlay.Active) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef active fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000\n")
		last := len(overlay.Active) - 1
		for i, id := range overlay.Active {
			// The root is the diagram itself.
			if i == 0 && id == def.Root().ID {
				continue
			}
			class := "active"
			if i == last {
				class = "current"
			}
			fmt.Fprintf(&sb, "    class %s %s\n", sanitizeMermaidID(string(id)), class)
		}
	}

	return sb.String()
}

func writeBody[O any](sb *strings.Builder, s *domain.State[O], depth int) {
	indent := strings.Repeat("    ", depth)
	if len(s.Children) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s[*] --> %s\n", indent, sanitizeMermaidID(string(s.DefaultChild().ID)))

	for _, c := range s.Children {
		id := sanitizeMermaidID(string(c.ID))
		if c.Description != "" {
			fmt.Fprintf(sb, "%s%s : %s\n", indent, id, escape(c.Description))
		}
		if c.IsComposite() {
			fmt.Fprintf(sb, "%sstate %s {\n", indent, id)
			writeBody(sb, c, depth+1)
			if c.History {
				fmt.Fprintf(sb, "%s    note right of %s : history\n", indent, sanitizeMermaidID(string(c.DefaultChild().ID)))
			}
			fmt.Fprintf(sb, "%s}\n", indent)
		}
		if c.Final {
			fmt.Fprintf(sb, "%s%s --> [*]\n", indent, id)
		}
	}
}

func label[O any](t *domain.Transition[O]) string {
	l := string(t.Event)
	if t.GuardDescription != "" {
		l += " [" + escape(t.GuardDescription) + "]"
	}
	return l
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	s = strings.ReplaceAll(s, ":", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
