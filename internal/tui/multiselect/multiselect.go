// Package multiselect wraps a bubbles list with checkbox selection that
// survives item replacement.
package multiselect

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// SelectableItem extends list.Item with selection state.
// FilterValue doubles as the item's unique key.
type SelectableItem interface {
	list.Item
	IsSelected() bool
	SetSelected(bool)
	// IsSelectable returns false for items that shouldn't show checkboxes
	IsSelectable() bool
}

// Model wraps a bubbles/list.Model with multi-select capabilities.
type Model struct {
	List            list.Model
	selected        map[string]bool // persists selection state by key
	showCount       bool
	originalTitle   string
	checkboxChecked string
	checkboxEmpty   string
}

// New creates a new multi-select model wrapping the given list.
func New(l list.Model) Model {
	return Model{
		List:            l,
		selected:        make(map[string]bool),
		showCount:       true,
		originalTitle:   l.Title,
		checkboxChecked: "[✓] ",
		checkboxEmpty:   "[ ] ",
	}
}

// SetCheckboxStyle customizes the checkbox appearance.
func (m *Model) SetCheckboxStyle(checked, empty string) {
	m.checkboxChecked = checked
	m.checkboxEmpty = empty
}

// Toggle toggles the selection state of the current item.
// Returns false if there is no selectable item under the cursor.
func (m *Model) Toggle() bool {
	item, ok := m.List.SelectedItem().(SelectableItem)
	if !ok || !item.IsSelectable() {
		return false
	}
	key := item.FilterValue()
	if m.selected[key] {
		delete(m.selected, key)
	} else {
		m.selected[key] = true
	}
	m.refresh()
	return true
}

// Select marks items as selected by key.
func (m *Model) Select(keys ...string) {
	for _, k := range keys {
		m.selected[k] = true
	}
	m.refresh()
}

// ClearSelection removes all selections.
func (m *Model) ClearSelection() {
	m.selected = make(map[string]bool)
	m.refresh()
}

// SelectedKeys returns the keys of all selected items, sorted.
func (m *Model) SelectedKeys() []string {
	keys := make([]string, 0, len(m.selected))
	for key, on := range m.selected {
		if on {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// SelectedCount returns the number of selected items.
func (m *Model) SelectedCount() int { return len(m.SelectedKeys()) }

// refresh pushes the selection state into the list items and the title.
func (m *Model) refresh() {
	items := m.List.Items()
	for _, item := range items {
		if s, ok := item.(SelectableItem); ok {
			s.SetSelected(m.selected[s.FilterValue()])
		}
	}
	m.List.SetItems(items)
	if m.showCount {
		m.List.Title = fmt.Sprintf("%s (%d selected)", m.originalTitle, m.SelectedCount())
	}
}

// SetTitle updates the base title (without count).
func (m *Model) SetTitle(title string) {
	m.originalTitle = title
	m.refresh()
}

// CheckboxPrefix returns the checkbox prefix for an item, for use by
// custom item delegates.
func (m *Model) CheckboxPrefix(item SelectableItem) string {
	if !item.IsSelectable() {
		return "  "
	}
	if item.IsSelected() {
		return m.checkboxChecked
	}
	return m.checkboxEmpty
}

// Update handles messages for the multi-select model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.List, cmd = m.List.Update(msg)
	return m, cmd
}

// View renders the list.
func (m Model) View() string {
	return m.List.View()
}
