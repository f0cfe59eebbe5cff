package tui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/blackwell-systems/shelfview/internal/catalog"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/x/ansi"
)

// BookItem is a book row in the browser list.
type BookItem struct {
	Book catalog.Book
}

// FilterValue implements list.Item. Filtering is done by the search
// coordinator, so this is only the row key.
func (b BookItem) FilterValue() string {
	return strconv.FormatInt(b.Book.ID, 10)
}

// formatPrice renders a price, or a dash when the book has none.
func formatPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("$%.2f", *p)
}

// renderBookItem renders "› title  authors  $price  [categories] ✓".
func renderBookItem(w io.Writer, m list.Model, index int, item list.Item) {
	bi, ok := item.(BookItem)
	if !ok {
		return
	}
	width := m.Width()
	if width <= 0 {
		width = 80
	}

	titleWidth := max(16, width*2/5)
	authorWidth := max(10, width/4)

	title := ansi.Truncate(bi.Book.Title, titleWidth, "…")
	authors := ansi.Truncate(bi.Book.AuthorLine(), authorWidth, "…")
	row := fmt.Sprintf("%-*s  %-*s  %9s",
		titleWidth, title,
		authorWidth, authors,
		formatPrice(bi.Book.Price))

	cats := ""
	if len(bi.Book.Categories) > 0 {
		cats = " " + StyleCategory.Render("["+strings.Join(bi.Book.Categories, ",")+"]")
	}
	mark := ""
	if bi.Book.InLibrary {
		mark = " " + StyleInLibrary.Render("✓")
	}

	var line string
	if index == m.Index() {
		line = StyleHighlight.Render("› "+row) + cats + mark
	} else {
		line = "  " + StyleNormal.Render(row) + cats + mark
	}
	_, _ = fmt.Fprint(w, ansi.Truncate(line, width, ""))
}
