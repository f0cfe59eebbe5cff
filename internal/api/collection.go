package api

import (
	"context"

	"github.com/blackwell-systems/shelfview/internal/catalog"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Collection fetches collections annotated with personal-library membership.
// When a session exists the library listing is fetched alongside the books;
// a library failure never fails the read.
type Collection struct {
	client *Client
}

// NewCollection wraps a client.
func NewCollection(c *Client) *Collection {
	return &Collection{client: c}
}

// All fetches the entire collection.
func (f *Collection) All(ctx context.Context) ([]catalog.Book, error) {
	return f.fetch(ctx, f.client.All)
}

// Search fetches the collection matching a text query.
func (f *Collection) Search(ctx context.Context, query string, typ SearchType) ([]catalog.Book, error) {
	return f.fetch(ctx, func(ctx context.Context) ([]catalog.Book, error) {
		return f.client.Search(ctx, query, typ)
	})
}

// Get fetches a single book.
func (f *Collection) Get(ctx context.Context, id int64) (*catalog.Book, error) {
	return f.client.GetBook(ctx, id)
}

func (f *Collection) fetch(ctx context.Context, books func(context.Context) ([]catalog.Book, error)) ([]catalog.Book, error) {
	var (
		list    []catalog.Book
		library []catalog.Book
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = books(gctx)
		return err
	})
	if f.client.Authenticated() {
		g.Go(func() error {
			lib, err := f.client.Library(gctx)
			if err != nil {
				f.client.log.Warn("library listing unavailable", zap.Error(err))
				return nil
			}
			library = lib
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	owned := make(map[int64]bool, len(library))
	for _, b := range library {
		owned[b.ID] = true
	}
	for i := range list {
		list[i].InLibrary = owned[list[i].ID]
	}
	return list, nil
}
