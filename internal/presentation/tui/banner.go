package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the arbor ASCII art banner.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Using a subtle gradient-like color scheme (Green/Teal)
	lines := []struct {
		text  string
		color string
	}{
		{`                 _                `, "#86efac"},
		{`   __ _ _ __ ___| |__   ___  _ __ `, "#4ade80"},
		{`  / _' | '__/ __| '_ \ / _ \| '__|`, "#34d399"},
		{` | (_| | | | (__| |_) | (_) | |   `, "#2dd4bf"},
		{`  \__,_|_|  \___|_.__/ \___/|_|   `, "#22d3ee"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
