package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/muesli/termenv"
)

// Row is one line of a run summary.
type Row struct {
	Name   string
	Active []domain.StateID
	Alive  bool
	Events uint64
	Detail string
}

// PrintSummary writes an aligned table of machines. Finished machines are dimmed,
// live ones highlighted.
func PrintSummary(w io.Writer, rows []Row) {
	p := termenv.ColorProfile()

	width := len("MACHINE")
	for _, r := range rows {
		width = max(width, len(r.Name))
	}

	header := fmt.Sprintf("%-*s  %-28s  %6s  %s", width, "MACHINE", "STATE", "EVENTS", "DETAIL")
	fmt.Fprintln(w, termenv.String(header).Bold())

	for _, r := range rows {
		state := path(r.Active)
		styled := termenv.String(fmt.Sprintf("%-28s", state))
		if r.Alive {
			styled = styled.Foreground(p.Color("#4ade80"))
		} else {
			styled = styled.Faint()
		}
		fmt.Fprintf(w, "%-*s  %s  %6d  %s\n", width, r.Name, styled, r.Events, r.Detail)
	}
}

func path(active []domain.StateID) string {
	parts := make([]string, len(active))
	for i, id := range active {
		parts[i] = string(id)
	}
	return strings.Join(parts, "/")
}
