package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const highlightFor = 500 * time.Millisecond

// ClearActiveCmdMsg ends a footer highlight.
type ClearActiveCmdMsg struct{}

// ShortcutEntry is one footer label. Key is compared with the model's
// activeCmd; leave it empty for labels that never light up.
type ShortcutEntry struct {
	Key   string
	Label string
}

// HighlightCmd schedules the ClearActiveCmdMsg that drops a highlight. The
// caller sets activeCmd itself:
//
//	m.activeCmd = "s"
//	return m, HighlightCmd()
func HighlightCmd() tea.Cmd {
	return tea.Tick(highlightFor, func(time.Time) tea.Msg {
		return ClearActiveCmdMsg{}
	})
}

// RenderFooterBar joins the shortcut labels into one dim line, bracketing
// the one whose key is activeCmd.
func RenderFooterBar(shortcuts []ShortcutEntry, activeCmd string) string {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	parts := make([]string, 0, len(shortcuts))
	for _, sc := range shortcuts {
		if activeCmd != "" && sc.Key == activeCmd {
			parts = append(parts, StyleHighlight.Render("[ "+sc.Label+" ]"))
			continue
		}
		parts = append(parts, dim.Render(sc.Label))
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(parts, dim.Render(" • ")))
}
