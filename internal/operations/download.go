package operations

import (
	"context"
	"fmt"
	"io"

	"github.com/blackwell-systems/shelfview/internal/cache"
)

// Fetch opens a binary download. It returns the body and the server's
// suggested file name, which may be empty.
type Fetch func(ctx context.Context) (io.ReadCloser, string, error)

// DownloadOptions controls how a download is stored.
type DownloadOptions struct {
	// Fallback names the file when the server suggests none.
	Fallback string
	// Replace overwrites an existing file of the same name instead of
	// saving under a " (n)" suffix.
	Replace bool
	// SHA256, when set, must match the downloaded content.
	SHA256 string
}

// Download saves a binary endpoint (spreadsheet template, catalog export) into
// the download store.
func Download(ctx context.Context, fetch Fetch, store *cache.Manager, opts DownloadOptions) (cache.Saved, error) {
	body, name, err := fetch(ctx)
	if err != nil {
		return cache.Saved{}, err
	}
	defer body.Close()
	if name == "" {
		name = opts.Fallback
	}
	if opts.Replace && store.Exists(name) {
		if err := store.Remove(name); err != nil {
			return cache.Saved{}, fmt.Errorf("replacing %s: %w", name, err)
		}
	}
	saved, err := store.Store(name, body, opts.SHA256)
	if err != nil {
		return cache.Saved{}, fmt.Errorf("saving %s: %w", name, err)
	}
	return saved, nil
}
