package catalog

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects the ordering applied after filtering.
type SortKey string

const (
	SortRecent    SortKey = "recent"     // descending by ID
	SortLast      SortKey = "last"       // ascending by ID
	SortTitleAsc  SortKey = "title-asc"  // A–Z
	SortTitleDesc SortKey = "title-desc" // Z–A
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
)

// SortKeys lists every sort key in the order the UI cycles through them.
var SortKeys = []SortKey{SortRecent, SortLast, SortTitleAsc, SortTitleDesc, SortPriceAsc, SortPriceDesc}

// ParseSortKey validates a sort key name. An empty string yields SortRecent.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortRecent, nil
	}
	for _, k := range SortKeys {
		if string(k) == strings.ToLower(s) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q (want one of recent, last, title-asc, title-desc, price-asc, price-desc)", s)
}

// Next returns the sort key following k in SortKeys, wrapping around.
func (k SortKey) Next() SortKey {
	for i, s := range SortKeys {
		if s == k {
			return SortKeys[(i+1)%len(SortKeys)]
		}
	}
	return SortRecent
}

// Criteria holds the user-chosen client-side constraints.
type Criteria struct {
	// Categories is the selected category set. Empty means no restriction.
	Categories map[string]bool
	// PriceCeiling is the inclusive upper price bound. The floor is fixed at 0.
	PriceCeiling float64
	Sort         SortKey
	// Locale drives title collation. The zero value collates as English.
	Locale language.Tag
}

// DefaultCriteria returns criteria that keep every book of the collection,
// ordered most recent first.
func DefaultCriteria(books []Book) Criteria {
	return Criteria{
		Categories:   map[string]bool{},
		PriceCeiling: MaxPrice(books),
		Sort:         SortRecent,
	}
}

// Selected returns the selected category names, sorted.
func (c Criteria) Selected() []string {
	out := make([]string, 0, len(c.Categories))
	for name, on := range c.Categories {
		if on {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// WithCategory returns a copy of c with the category toggled.
func (c Criteria) WithCategory(name string) Criteria {
	next := make(map[string]bool, len(c.Categories)+1)
	for k, v := range c.Categories {
		if v {
			next[k] = true
		}
	}
	if next[name] {
		delete(next, name)
	} else {
		next[name] = true
	}
	c.Categories = next
	return c
}

func (c Criteria) hasCategories() bool {
	for _, on := range c.Categories {
		if on {
			return true
		}
	}
	return false
}

// Evaluate filters and sorts a collection. The steps run in a fixed order:
// category filter, price filter, stable sort. The input is never modified and
// the result is always a new slice.
func Evaluate(books []Book, c Criteria) []Book {
	out := make([]Book, 0, len(books))
	restrict := c.hasCategories()
	for _, b := range books {
		if restrict && !matchesCategory(b, c.Categories) {
			continue
		}
		if p := b.PriceOrZero(); p < 0 || p > c.PriceCeiling {
			continue
		}
		out = append(out, b)
	}
	sortBooks(out, c.Sort, c.Locale)
	return out
}

func matchesCategory(b Book, selected map[string]bool) bool {
	if b.IsUncategorized() {
		return selected[Uncategorized]
	}
	for _, name := range b.Categories {
		if selected[name] {
			return true
		}
	}
	return false
}

func sortBooks(books []Book, key SortKey, locale language.Tag) {
	var less func(a, b Book) bool
	switch key {
	case SortLast:
		less = func(a, b Book) bool { return a.ID < b.ID }
	case SortTitleAsc, SortTitleDesc:
		if locale == language.Und {
			locale = language.English
		}
		col := collate.New(locale)
		if key == SortTitleAsc {
			less = func(a, b Book) bool { return col.CompareString(a.Title, b.Title) < 0 }
		} else {
			less = func(a, b Book) bool { return col.CompareString(a.Title, b.Title) > 0 }
		}
	case SortPriceAsc:
		less = func(a, b Book) bool { return a.PriceOrZero() < b.PriceOrZero() }
	case SortPriceDesc:
		less = func(a, b Book) bool { return a.PriceOrZero() > b.PriceOrZero() }
	default:
		less = func(a, b Book) bool { return a.ID > b.ID }
	}
	sort.SliceStable(books, func(i, j int) bool { return less(books[i], books[j]) })
}

// Categories derives the category list offered to the user from the
// unfiltered collection. Names are sorted; Uncategorized is appended when any
// book has no categories.
func Categories(books []Book) []string {
	seen := make(map[string]bool)
	uncategorized := false
	for _, b := range books {
		if b.IsUncategorized() {
			uncategorized = true
			continue
		}
		for _, name := range b.Categories {
			seen[name] = true
		}
	}
	out := make([]string, 0, len(seen)+1)
	for name := range seen {
		if name == Uncategorized {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	if uncategorized || seen[Uncategorized] {
		out = append(out, Uncategorized)
	}
	return out
}

// MaxPrice returns the highest price in the collection, 0 when empty.
func MaxPrice(books []Book) float64 {
	highest := 0.0
	for _, b := range books {
		if p := b.PriceOrZero(); p > highest {
			highest = p
		}
	}
	return highest
}

// ParseLocale converts a POSIX locale such as "de_DE.UTF-8" into a language
// tag for title collation. Unparseable values and "C"/"POSIX" yield English.
func ParseLocale(s string) language.Tag {
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	switch s {
	case "", "C", "POSIX":
		return language.English
	}
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return language.English
	}
	return tag
}
