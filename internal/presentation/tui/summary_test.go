package tui_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintSummary(&buf, []tui.Row{
		{Name: "stopwatch-1", Active: []domain.StateID{"stopwatch", "done"}, Events: 12, Detail: "ticks=9"},
		{Name: "sw", Active: []domain.StateID{"stopwatch", "active", "running"}, Alive: true, Events: 3},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "MACHINE")
	assert.Contains(t, lines[1], "stopwatch-1")
	assert.Contains(t, lines[1], "stopwatch/done")
	assert.Contains(t, lines[1], "ticks=9")
	assert.Contains(t, lines[2], "stopwatch/active/running")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|_.__/")
}
