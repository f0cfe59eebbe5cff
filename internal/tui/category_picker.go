package tui

import (
	"fmt"
	"io"

	"github.com/blackwell-systems/shelfview/internal/tui/delegate"
	"github.com/blackwell-systems/shelfview/internal/tui/multiselect"
	"github.com/charmbracelet/bubbles/list"
)

// categoryItem is a category row in the picker.
type categoryItem struct {
	name     string
	selected bool
}

func (c *categoryItem) FilterValue() string { return c.name }
func (c *categoryItem) IsSelected() bool    { return c.selected }
func (c *categoryItem) SetSelected(v bool)  { c.selected = v }
func (c *categoryItem) IsSelectable() bool  { return true }

// categoryPicker is the category filter overlay.
type categoryPicker struct {
	ms multiselect.Model
}

func newCategoryPicker(names, selected []string, width, height int) *categoryPicker {
	p := &categoryPicker{}
	items := make([]list.Item, len(names))
	for i, n := range names {
		items[i] = &categoryItem{name: n}
	}
	l := list.New(items, delegate.New(p.render), width, height)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = StyleHeader
	p.ms = multiselect.New(l)
	p.ms.SetTitle("Categories")
	p.ms.Select(selected...)
	return p
}

func (p *categoryPicker) render(w io.Writer, m list.Model, index int, item list.Item) {
	ci, ok := item.(*categoryItem)
	if !ok {
		return
	}
	line := p.ms.CheckboxPrefix(ci) + ci.name
	if index == m.Index() {
		_, _ = fmt.Fprint(w, StyleHighlight.Render("› "+line))
		return
	}
	_, _ = fmt.Fprint(w, "  "+StyleCategory.Render(line))
}

func (p *categoryPicker) view() string {
	return p.ms.View() + "\n" + RenderFooterBar([]ShortcutEntry{
		{Label: "space toggle"},
		{Label: "x clear"},
		{Label: "enter apply"},
		{Label: "esc cancel"},
	}, "")
}
