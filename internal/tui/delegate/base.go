// Package delegate provides a list.ItemDelegate built from a render function.
package delegate

import (
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// RenderFunc renders one list item.
type RenderFunc func(w io.Writer, m list.Model, index int, item list.Item)

// Base is a list.ItemDelegate with fixed height and spacing and no
// per-item update logic.
type Base struct {
	height   int
	spacing  int
	renderFn RenderFunc
}

// New creates a single-line delegate.
func New(renderFn RenderFunc) Base {
	return NewWithHeight(renderFn, 1)
}

// NewWithHeight creates a delegate whose items span height lines.
func NewWithHeight(renderFn RenderFunc, height int) Base {
	if height < 1 {
		height = 1
	}
	return Base{height: height, renderFn: renderFn}
}

// Height implements list.ItemDelegate
func (d Base) Height() int { return d.height }

// Spacing implements list.ItemDelegate
func (d Base) Spacing() int { return d.spacing }

// Update implements list.ItemDelegate
func (d Base) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

// Render implements list.ItemDelegate
func (d Base) Render(w io.Writer, m list.Model, index int, item list.Item) {
	if d.renderFn != nil {
		d.renderFn(w, m, index, item)
	}
}
