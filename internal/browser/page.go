// Package browser holds the state of the catalog page: the collection for the
// current search, the filter criteria, the derived category list and the
// scroll window over the filtered books.
//
// The search coordinator is the only source of full replacements
// (ApplyResult). The mutation executor is the only other writer and its
// writes are narrow; a narrow write started before the latest replacement is
// dropped, so a replacement always wins.
package browser

import (
	"sync"

	"github.com/blackwell-systems/shelfview/internal/catalog"
	"github.com/blackwell-systems/shelfview/internal/events"
	"github.com/blackwell-systems/shelfview/internal/mutation"
	"github.com/blackwell-systems/shelfview/internal/pager"
	"github.com/blackwell-systems/shelfview/internal/search"
	"golang.org/x/text/language"
)

var _ mutation.Store = (*Page)(nil)

// Page is safe for concurrent use.
type Page struct {
	mu         sync.Mutex
	books      []catalog.Book
	categories []string
	criteria   catalog.Criteria
	filtered   []catalog.Book
	window     *pager.Window[catalog.Book, int64]
	gen        uint64
	lastSeq    uint64
	query      string
	message    string
	loaded     bool

	bus    *events.Bus
	locale language.Tag
}

// Option configures a Page.
type Option func(*Page)

// WithPageSize sets the number of books added per scroll step.
func WithPageSize(n int) Option {
	return func(p *Page) { p.window = pager.NewWindow(n, bookKey) }
}

// WithBus publishes CollectionReplaced events after every applied result.
func WithBus(b *events.Bus) Option { return func(p *Page) { p.bus = b } }

// WithLocale sets the title collation language.
func WithLocale(t language.Tag) Option { return func(p *Page) { p.locale = t } }

func bookKey(b catalog.Book) int64 { return b.ID }

// New creates an empty page.
func New(opts ...Option) *Page {
	p := &Page{window: pager.NewWindow(pager.DefaultPageSize, bookKey)}
	for _, opt := range opts {
		opt(p)
	}
	p.criteria = p.defaults(nil)
	return p
}

func (p *Page) defaults(books []catalog.Book) catalog.Criteria {
	c := catalog.DefaultCriteria(books)
	c.Locale = p.locale
	return c
}

// ApplyResult replaces the collection with a resolved search. Results older
// than the last applied one are ignored; the return value reports whether r
// was applied.
//
// The sort key survives a replacement. Selected categories that the new
// collection no longer offers are dropped, and the price ceiling is reset to
// the new collection's highest price.
func (p *Page) ApplyResult(r search.Result) bool {
	p.mu.Lock()
	if p.loaded && r.Seq != 0 && r.Seq <= p.lastSeq {
		p.mu.Unlock()
		return false
	}
	p.loaded = true
	p.lastSeq = r.Seq
	p.query = r.Query
	p.message = r.Message
	p.books = append([]catalog.Book(nil), r.Books...)
	p.categories = catalog.Categories(p.books)

	next := p.defaults(p.books)
	next.Sort = p.criteria.Sort
	offered := make(map[string]bool, len(p.categories))
	for _, name := range p.categories {
		offered[name] = true
	}
	for name, on := range p.criteria.Categories {
		if on && offered[name] {
			next.Categories[name] = true
		}
	}
	p.criteria = next
	p.gen++
	p.resetLocked()
	p.mu.Unlock()

	if p.bus != nil {
		p.bus.Publish(events.Event{Kind: events.CollectionReplaced})
	}
	return true
}

// resetLocked re-evaluates the criteria and returns the window to page 1.
func (p *Page) resetLocked() {
	p.filtered = catalog.Evaluate(p.books, p.criteria)
	p.window.Reset(p.filtered)
}

// refreshLocked re-evaluates after a narrow write, keeping the scroll depth.
func (p *Page) refreshLocked() {
	p.categories = catalog.Categories(p.books)
	p.filtered = catalog.Evaluate(p.books, p.criteria)
	p.window.Refresh(p.filtered)
}

// SetCriteria replaces the criteria and resets the window.
func (p *Page) SetCriteria(c catalog.Criteria) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c.Categories == nil {
		c.Categories = map[string]bool{}
	}
	c.Locale = p.locale
	p.criteria = c
	p.resetLocked()
}

// ToggleCategory adds or removes a category from the selection.
func (p *Page) ToggleCategory(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.criteria = p.criteria.WithCategory(name)
	p.resetLocked()
}

// SetCategories replaces the selection.
func (p *Page) SetCategories(names []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sel := make(map[string]bool, len(names))
	for _, n := range names {
		sel[n] = true
	}
	p.criteria.Categories = sel
	p.resetLocked()
}

// SetPriceCeiling sets the inclusive price bound, clamped to [0, max price].
func (p *Page) SetPriceCeiling(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.criteria.PriceCeiling = max(0, min(v, catalog.MaxPrice(p.books)))
	p.resetLocked()
}

// SetSort changes the ordering and resets the window.
func (p *Page) SetSort(k catalog.SortKey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.criteria.Sort = k
	p.resetLocked()
}

// CycleSort advances to the next sort key and returns it.
func (p *Page) CycleSort() catalog.SortKey {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.criteria.Sort = p.criteria.Sort.Next()
	p.resetLocked()
	return p.criteria.Sort
}

// ClearFilters restores the default criteria for the current collection.
func (p *Page) ClearFilters() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.criteria = p.defaults(p.books)
	p.resetLocked()
}

// Clear empties the page while a replacement search is in flight. The sort
// key and selected categories carry over to the next result. Narrow writes
// issued against the old collection are dropped.
func (p *Page) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.books = nil
	p.categories = nil
	p.query = ""
	p.message = ""
	p.gen++
	p.resetLocked()
}

// LoadNext appends the next page of filtered books.
func (p *Page) LoadNext() bool { return p.window.LoadNext() }

// OnVisible reports that the book with the given id scrolled into view.
func (p *Page) OnVisible(id int64) bool { return p.window.OnVisible(id) }

// Generation identifies the current collection. It changes on every applied
// result; mutation intents carry it so stale narrow writes can be dropped.
func (p *Page) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen
}

// Book returns a copy of the book with the given id from the collection.
func (p *Page) Book(id int64) (catalog.Book, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if b := catalog.ByID(p.books, id); b != nil {
		return *b, true
	}
	return catalog.Book{}, false
}

// RemoveBook drops a deleted book from the collection.
func (p *Page) RemoveBook(gen uint64, id int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return false
	}
	books, ok := catalog.Remove(p.books, id)
	if !ok {
		return false
	}
	p.books = books
	p.refreshLocked()
	return true
}

// MarkInLibrary flags a book as in or out of the personal library.
func (p *Page) MarkInLibrary(gen uint64, id int64, in bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return false
	}
	books, ok := catalog.SetInLibrary(p.books, id, in)
	if !ok {
		return false
	}
	p.books = books
	p.refreshLocked()
	return true
}

// AddBook inserts a created book, or replaces it if already present.
func (p *Page) AddBook(gen uint64, b catalog.Book) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return false
	}
	p.books = catalog.Append(p.books, b)
	p.refreshLocked()
	return true
}

// View is a consistent snapshot for rendering.
type View struct {
	Displayed  []catalog.Book
	Filtered   int
	Collection int
	Categories []string
	Criteria   catalog.Criteria
	MaxPrice   float64
	Page       int
	HasMore    bool
	Query      string
	Message    string
	Generation uint64
}

// Snapshot returns the current view.
func (p *Page) Snapshot() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.criteria
	c.Categories = make(map[string]bool, len(p.criteria.Categories))
	for k, v := range p.criteria.Categories {
		c.Categories[k] = v
	}
	return View{
		Displayed:  p.window.Displayed(),
		Filtered:   len(p.filtered),
		Collection: len(p.books),
		Categories: append([]string(nil), p.categories...),
		Criteria:   c,
		MaxPrice:   catalog.MaxPrice(p.books),
		Page:       p.window.Page(),
		HasMore:    p.window.HasMore(),
		Query:      p.query,
		Message:    p.message,
		Generation: p.gen,
	}
}
