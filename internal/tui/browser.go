package tui

import (
	"context"
	"fmt"

	"github.com/blackwell-systems/shelfview/internal/api"
	"github.com/blackwell-systems/shelfview/internal/browser"
	"github.com/blackwell-systems/shelfview/internal/catalog"
	"github.com/blackwell-systems/shelfview/internal/mutation"
	"github.com/blackwell-systems/shelfview/internal/search"
	"github.com/blackwell-systems/shelfview/internal/tui/delegate"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Deps are the engine pieces the browser drives. Search is filled in after
// the program exists, because its sink sends into the program.
type Deps struct {
	Ctx       context.Context
	Page      *browser.Page
	Search    *search.Coordinator
	Exec      *mutation.Executor
	ImageBase string
}

// BrowserModel is the catalog browser.
type BrowserModel struct {
	deps *Deps

	list  list.Model
	input textinput.Model
	view  browser.View

	searching     bool
	searchType    api.SearchType
	cats          *categoryPicker
	showDetails   bool
	loading       bool
	pending       int
	confirmDelete int64
	status        string
	statusErr     bool
	activeCmd     string

	width, height int
	quitting      bool
}

// NewBrowserModel creates the browser model.
func NewBrowserModel(d *Deps, typ api.SearchType) BrowserModel {
	l := list.New(nil, delegate.New(renderBookItem), 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.PaginationStyle = StyleHelp

	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = "type to search"
	in.CharLimit = 200

	return BrowserModel{
		deps:       d,
		list:       l,
		input:      in,
		searchType: typ,
		loading:    true,
	}
}

func (m BrowserModel) Init() tea.Cmd {
	s := m.deps.Search
	return func() tea.Msg {
		if s != nil {
			s.Reload()
		}
		return nil
	}
}

func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case resultMsg:
		if m.deps.Page.ApplyResult(msg.Result) {
			m.loading = false
			m.setStatus(msg.Message, msg.Err != nil)
			m.sync(true)
		}
		return m, nil

	case mutationDoneMsg:
		m.pending--
		m.setStatus(msg.Message, !msg.OK())
		m.sync(false)
		return m, nil

	case eventMsg:
		m.sync(false)
		return m, nil

	case ClearActiveCmdMsg:
		m.activeCmd = ""
		return m, nil

	case tea.KeyMsg:
		if m.cats != nil {
			return m.updateCategories(msg)
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateBrowse(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *BrowserModel) setStatus(s string, isErr bool) {
	m.status, m.statusErr = s, isErr
}

// sync copies the page snapshot into the list. reset moves the cursor to the
// top, as after a new collection or new criteria.
func (m *BrowserModel) sync(reset bool) {
	m.view = m.deps.Page.Snapshot()
	items := make([]list.Item, len(m.view.Displayed))
	for i, b := range m.view.Displayed {
		items[i] = BookItem{Book: b}
	}
	idx := m.list.Index()
	m.list.SetItems(items)
	switch {
	case reset || len(items) == 0:
		m.list.Select(0)
	case idx >= len(items):
		m.list.Select(len(items) - 1)
	default:
		m.list.Select(idx)
	}
}

// loadMore is the viewport-intersection signal: the cursor row reaching the
// last displayed book loads the next page.
func (m *BrowserModel) loadMore() {
	items := m.list.Items()
	if len(items) == 0 || m.list.Index() != len(items)-1 {
		return
	}
	last, ok := items[len(items)-1].(BookItem)
	if !ok {
		return
	}
	if m.deps.Page.OnVisible(last.Book.ID) {
		m.sync(false)
	}
}

func (m BrowserModel) selected() (catalog.Book, bool) {
	bi, ok := m.list.SelectedItem().(BookItem)
	return bi.Book, ok
}

func (m BrowserModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, keys.Delete) {
		m.confirmDelete = 0
	}
	page := m.deps.Page

	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.Search):
		m.searching = true
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, keys.SearchType):
		return m.cycleSearchType()

	case key.Matches(msg, keys.Sort):
		sk := page.CycleSort()
		m.setStatus("Sorted by "+sortLabel(sk), false)
		m.sync(true)
		m.activeCmd = "s"
		return m, HighlightCmd()

	case key.Matches(msg, keys.PriceDown), key.Matches(msg, keys.PriceUp):
		step := priceStep(m.view.MaxPrice)
		ceiling := m.view.Criteria.PriceCeiling - step
		m.activeCmd = "["
		if key.Matches(msg, keys.PriceUp) {
			ceiling = m.view.Criteria.PriceCeiling + step
			m.activeCmd = "]"
		}
		page.SetPriceCeiling(ceiling)
		m.sync(true)
		return m, HighlightCmd()

	case key.Matches(msg, keys.Categories):
		if len(m.view.Categories) == 0 {
			m.setStatus("No categories in the current results.", false)
			return m, nil
		}
		m.cats = newCategoryPicker(m.view.Categories, m.view.Criteria.Selected(), m.listWidth(), m.listHeight())
		return m, nil

	case key.Matches(msg, keys.Clear):
		page.ClearFilters()
		m.sync(true)
		m.setStatus("Filters cleared.", false)
		m.activeCmd = "x"
		return m, HighlightCmd()

	case key.Matches(msg, keys.Details):
		m.showDetails = !m.showDetails
		m.resize()
		return m, nil

	case key.Matches(msg, keys.Reload):
		if m.deps.Search != nil {
			m.loading = true
			m.deps.Search.Reload()
		}
		return m, nil

	case key.Matches(msg, keys.Add):
		if b, ok := m.selected(); ok {
			return m.runIntent(mutation.Intent{Op: mutation.OpAddToLibrary, BookID: b.ID}, "a")
		}
		return m, nil

	case key.Matches(msg, keys.Remove):
		if b, ok := m.selected(); ok {
			return m.runIntent(mutation.Intent{Op: mutation.OpRemoveFromLibrary, BookID: b.ID}, "r")
		}
		return m, nil

	case key.Matches(msg, keys.Delete):
		b, ok := m.selected()
		if !ok {
			return m, nil
		}
		if m.confirmDelete != b.ID {
			m.confirmDelete = b.ID
			m.setStatus(fmt.Sprintf("Press d again to delete %q.", b.Title), false)
			return m, nil
		}
		m.confirmDelete = 0
		return m.runIntent(mutation.Intent{Op: mutation.OpDelete, BookID: b.ID}, "d")
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	m.loadMore()
	return m, cmd
}

// runIntent starts a mutation in the background. The page receives the narrow
// write directly from the executor; the result message only updates the view.
func (m BrowserModel) runIntent(in mutation.Intent, activeKey string) (tea.Model, tea.Cmd) {
	in.Generation = m.deps.Page.Generation()
	exec, ctx := m.deps.Exec, m.deps.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	m.pending++
	m.setStatus(pendingText(in.Op), false)
	m.activeCmd = activeKey
	run := func() tea.Msg { return mutationDoneMsg{exec.Run(ctx, in)} }
	return m, tea.Batch(run, HighlightCmd())
}

func pendingText(op mutation.Op) string {
	switch op {
	case mutation.OpAddToLibrary:
		return "Adding to your library…"
	case mutation.OpRemoveFromLibrary:
		return "Removing from your library…"
	case mutation.OpDelete:
		return "Deleting…"
	}
	return "Working…"
}

func (m BrowserModel) cycleSearchType() (tea.Model, tea.Cmd) {
	m.searchType = m.searchType.Next()
	m.input.SetValue("")
	// Old-type rows must not linger while the new search resolves.
	m.deps.Page.Clear()
	m.sync(true)
	if m.deps.Search != nil {
		m.loading = true
		m.deps.Search.SetType(m.searchType)
	}
	m.activeCmd = "tab"
	return m, HighlightCmd()
}

func (m BrowserModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEnter, key.Matches(msg, keys.Back):
		m.searching = false
		m.input.Blur()
		return m, nil
	case key.Matches(msg, keys.SearchType):
		return m.cycleSearchType()
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before && m.deps.Search != nil {
		m.loading = true
		m.deps.Search.OnQueryChange(v)
	}
	return m, cmd
}

func (m BrowserModel) updateCategories(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		m.cats = nil
		return m, nil
	case key.Matches(msg, keys.Apply):
		m.deps.Page.SetCategories(m.cats.ms.SelectedKeys())
		m.cats = nil
		m.sync(true)
		return m, nil
	case key.Matches(msg, keys.Toggle):
		m.cats.ms.Toggle()
		return m, nil
	case key.Matches(msg, keys.Clear):
		m.cats.ms.ClearSelection()
		return m, nil
	}
	var cmd tea.Cmd
	m.cats.ms, cmd = m.cats.ms.Update(msg)
	return m, cmd
}

// priceStep is a tenth of the price range, at least 1.
func priceStep(maxPrice float64) float64 {
	return max(1, maxPrice/10)
}

func sortLabel(k catalog.SortKey) string {
	switch k {
	case catalog.SortRecent:
		return "most recent"
	case catalog.SortLast:
		return "oldest"
	case catalog.SortTitleAsc:
		return "title A-Z"
	case catalog.SortTitleDesc:
		return "title Z-A"
	case catalog.SortPriceAsc:
		return "price, low to high"
	case catalog.SortPriceDesc:
		return "price, high to low"
	}
	return string(k)
}
