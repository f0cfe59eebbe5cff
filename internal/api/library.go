package api

import (
	"context"
	"net/http"

	"github.com/blackwell-systems/shelfview/internal/catalog"
)

// Library lists the books in the caller's personal library.
func (c *Client) Library(ctx context.Context) ([]catalog.Book, error) {
	var res booksResponse
	if err := c.doJSON(ctx, http.MethodGet, c.url("library"), nil, &res, true); err != nil {
		return nil, err
	}
	return res.result("list library")
}

// AddToLibrary adds a book to the personal library. A book that is already
// present yields a *ConflictError.
func (c *Client) AddToLibrary(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodPost, c.url("library", itoa(id)), nil, nil, true)
}

// RemoveFromLibrary removes a book from the personal library. A book that is
// not present yields a *ConflictError.
func (c *Client) RemoveFromLibrary(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, c.url("library", itoa(id)), nil, nil, true)
}
