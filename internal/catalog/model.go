package catalog

import "strings"

// Uncategorized is the synthetic category offered for books with no categories.
const Uncategorized = "Uncategorized"

// Book is one entry of a fetched collection.
type Book struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	ISBN        string   `json:"isbn"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Image       string   `json:"image,omitempty"`
	Authors     []string `json:"authors,omitempty"`
	Categories  []string `json:"categories,omitempty"`

	// InLibrary is client-side state: set from the personal library listing
	// and flipped by add/remove mutations.
	InLibrary bool `json:"-"`
}

// PriceOrZero returns the price, treating a missing price as 0.
func (b Book) PriceOrZero() float64 {
	if b.Price == nil {
		return 0
	}
	return *b.Price
}

// AuthorLine joins author names for display, preserving their order.
func (b Book) AuthorLine() string {
	return strings.Join(b.Authors, ", ")
}

// IsUncategorized reports whether the book has no categories.
func (b Book) IsUncategorized() bool {
	return len(b.Categories) == 0
}

// Price returns a pointer to p, for building books in literals.
func Price(p float64) *float64 {
	return &p
}
