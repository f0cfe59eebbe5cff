package tui

import (
	"strings"
	"testing"
)

// --- Footer ---

func TestRenderFooterBarBracketsActiveKey(t *testing.T) {
	shortcuts := []ShortcutEntry{
		{Key: "s", Label: "s sort"},
		{Key: "[", Label: "[ ] price"},
		{Label: "q quit"},
	}

	got := RenderFooterBar(shortcuts, "s")
	if !strings.Contains(got, "[ s sort ]") {
		t.Errorf("active shortcut not bracketed: %q", got)
	}
	for _, label := range []string{"[ ] price", "q quit"} {
		if !strings.Contains(got, label) {
			t.Errorf("footer missing %q: %q", label, got)
		}
	}

	idle := RenderFooterBar(shortcuts, "")
	if strings.Contains(idle, "[ s sort ]") {
		t.Errorf("idle footer highlights a key: %q", idle)
	}
}

func TestHighlightCmdClearsHighlight(t *testing.T) {
	cmd := HighlightCmd()
	if cmd == nil {
		t.Fatal("HighlightCmd returned nil")
	}
	if _, ok := cmd().(ClearActiveCmdMsg); !ok {
		t.Error("highlight tick did not produce ClearActiveCmdMsg")
	}
}
