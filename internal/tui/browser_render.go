package tui

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/shelfview/internal/catalog"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const (
	outerPadV = 1
	outerPadH = 2
	// header, divider, status and footer lines
	chromeLines = 4
)

func (m BrowserModel) innerWidth() int {
	return max(60, m.width-outerPadH*2-2)
}

func (m BrowserModel) listWidth() int {
	if m.showDetails {
		return m.innerWidth() - m.detailsWidth() - 1
	}
	return m.innerWidth()
}

func (m BrowserModel) listHeight() int {
	return max(5, m.height-outerPadV*2-2-chromeLines)
}

// detailsWidth is 40% of the inner width, at least 30 columns.
func (m BrowserModel) detailsWidth() int {
	return max(30, m.innerWidth()*4/10)
}

func (m *BrowserModel) resize() {
	m.list.SetSize(m.listWidth(), m.listHeight())
	m.input.Width = max(10, m.innerWidth()/3)
}

func (m BrowserModel) renderHeader() string {
	var s strings.Builder
	s.WriteString(StyleHeader.Render("shelfview"))
	s.WriteString(StyleHelp.Render("  search by " + string(m.searchType) + ": "))
	if m.searching || m.input.Value() != "" {
		s.WriteString(m.input.View())
	} else {
		s.WriteString(StyleHelp.Render("/ to search"))
	}

	c := m.view.Criteria
	fmt.Fprintf(&s, "  %s %s", StyleHelp.Render("sort:"), sortLabel(c.Sort))
	fmt.Fprintf(&s, "  %s $%.2f", StyleHelp.Render("max:"), c.PriceCeiling)
	if sel := c.Selected(); len(sel) > 0 {
		fmt.Fprintf(&s, "  %s %s", StyleHelp.Render("in:"), StyleCategory.Render(strings.Join(sel, ",")))
	}

	count := fmt.Sprintf("%d of %d", len(m.view.Displayed), m.view.Filtered)
	if m.view.Filtered != m.view.Collection {
		count += fmt.Sprintf(" (%d total)", m.view.Collection)
	}
	if m.loading {
		count += " · loading"
	}
	if m.pending > 0 {
		count += fmt.Sprintf(" · %d pending", m.pending)
	}
	s.WriteString("  " + StyleHelp.Render(count))
	return ansi.Truncate(s.String(), m.innerWidth(), "…")
}

func (m BrowserModel) renderDetailsPane() string {
	b, ok := m.selected()
	if !ok {
		return ""
	}
	width := m.detailsWidth()
	const labelWidth = 12
	maxText := max(10, width-2-labelWidth)

	var s strings.Builder
	s.WriteString(StyleHeader.Render("Book Details"))
	s.WriteString("\n\n")
	field := func(label, value string) {
		if value == "" {
			return
		}
		s.WriteString(StyleHighlight.Render(label + ": "))
		s.WriteString(ansi.Truncate(value, maxText, "…"))
		s.WriteString("\n\n")
	}
	field("Title", b.Title)
	field("Authors", b.AuthorLine())
	field("ISBN", b.ISBN)
	field("Price", formatPrice(b.Price))
	if b.IsUncategorized() {
		field("Categories", catalog.Uncategorized)
	} else {
		field("Categories", strings.Join(b.Categories, ", "))
	}
	field("Cover", catalog.ResolveImage(m.deps.ImageBase, b.Image))

	s.WriteString(StyleHighlight.Render("In library: "))
	if b.InLibrary {
		s.WriteString(StyleInLibrary.Render("✓ Yes"))
	} else {
		s.WriteString("No")
	}
	s.WriteString("\n\n")

	if b.Description != "" {
		s.WriteString(lipgloss.NewStyle().Width(width - 2).Render(b.Description))
	}
	return lipgloss.NewStyle().Width(width).Padding(0, 1).Render(s.String())
}

func (m BrowserModel) renderFooter() string {
	return RenderFooterBar([]ShortcutEntry{
		{Label: "↑/↓ navigate"},
		{Key: "/", Label: "/ search"},
		{Key: "tab", Label: "tab by " + string(m.searchType.Next())},
		{Key: "s", Label: "s sort"},
		{Key: "[", Label: "[ cheaper"},
		{Key: "]", Label: "] dearer"},
		{Key: "c", Label: "c categories"},
		{Key: "x", Label: "x clear"},
		{Key: "a", Label: "a add"},
		{Key: "r", Label: "r remove"},
		{Key: "d", Label: "d delete"},
		{Label: "enter details"},
		{Label: "q quit"},
	}, m.activeCmd)
}

func (m BrowserModel) renderStatus() string {
	switch {
	case m.status == "":
		return ""
	case m.statusErr:
		return StyleError.Render(m.status)
	default:
		return StyleHelp.Render(m.status)
	}
}

func (m BrowserModel) View() string {
	if m.quitting {
		return ""
	}

	outerStyle := lipgloss.NewStyle().Padding(outerPadV, outerPadH)
	masterStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTeal)
	if m.width > 0 && m.height > 0 {
		masterStyle = masterStyle.
			Width(m.innerWidth()).
			Height(max(10, m.height-outerPadV*2-2))
	}

	var main string
	switch {
	case m.cats != nil:
		main = m.cats.view()
	case len(m.view.Displayed) == 0 && !m.loading:
		main = StyleHelp.Render("No books match the current search and filters.")
	case m.showDetails:
		listView := lipgloss.NewStyle().
			BorderRight(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(ColorTeal).
			Render(m.list.View())
		main = lipgloss.JoinHorizontal(lipgloss.Top, listView, m.renderDetailsPane())
	default:
		main = m.list.View()
	}
	if m.view.HasMore && m.cats == nil {
		main = lipgloss.JoinVertical(lipgloss.Left, main, StyleHelp.Render("  ↓ more"))
	}

	divider := lipgloss.NewStyle().
		Foreground(ColorTeal).
		Render(strings.Repeat("─", m.innerWidth()))

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(), main, divider, m.renderStatus(), m.renderFooter())
	return outerStyle.Render(masterStyle.Render(content))
}
