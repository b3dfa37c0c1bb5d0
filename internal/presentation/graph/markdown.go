package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// GenerateMarkdown describes a definition as a markdown document: one section with the
// state tree and one table per kind of transition.
func GenerateMarkdown[O any](title string, def *domain.Definition[O]) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if d := def.Root().Description; d != "" {
		fmt.Fprintf(&sb, "%s\n\n", d)
	}

	sb.WriteString("## States\n\n")
	for _, s := range def.States() {
		indent := strings.Repeat("  ", s.Depth())
		fmt.Fprintf(&sb, "%s- **%s**%s", indent, s.ID, flags(s))
		if s.Description != "" {
			fmt.Fprintf(&sb, ": %s", s.Description)
		}
		sb.WriteString("\n")
	}

	var regular, local []*domain.Transition[O]
	for _, s := range def.States() {
		regular = append(regular, s.Transitions...)
		local = append(local, s.Locals...)
	}

	if len(regular) > 0 {
		sb.WriteString("\n## Transitions\n\n")
		sb.WriteString("| From | Event | To | Guard | Action |\n|---|---|---|---|---|\n")
		for _, t := range regular {
			fmt.Fprintf(&sb, "| %s | `%s` | %s | %s | %s |\n",
				t.Source.ID, t.Event, t.Target.ID, cell(t.GuardDescription), cell(t.ActionDescription))
		}
	}
	if len(local) > 0 {
		sb.WriteString("\n## Local transitions\n\n")
		sb.WriteString("| State | Event | Guard | Action |\n|---|---|---|---|\n")
		for _, t := range local {
			fmt.Fprintf(&sb, "| %s | `%s` | %s | %s |\n",
				t.Source.ID, t.Event, cell(t.GuardDescription), cell(t.ActionDescription))
		}
	}
	return sb.String()
}

func flags[O any](s *domain.State[O]) string {
	var f []string
	if s.Initial {
		f = append(f, "initial")
	}
	if s.History {
		f = append(f, "history")
	}
	if s.Final {
		f = append(f, "final")
	}
	if s.OnEntryDescription != "" {
		f = append(f, "entry: "+s.OnEntryDescription)
	}
	if s.OnExitDescription != "" {
		f = append(f, "exit: "+s.OnExitDescription)
	}
	if len(f) == 0 {
		return ""
	}
	return " _(" + strings.Join(f, ", ") + ")_"
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", "\\|")
}
