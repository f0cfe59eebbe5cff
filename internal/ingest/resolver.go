// Package ingest resolves user-supplied upload inputs (cover images,
// spreadsheets) that may be local paths or http(s) URLs.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Source holds a resolved input ready for reading.
type Source struct {
	// Name is the base file name, used as the multipart file name.
	Name string
	// Size is the byte count if known in advance (-1 if unknown).
	Size int64
	// Open returns a new ReadCloser.
	Open func(ctx context.Context) (io.ReadCloser, error)
}

// DefaultHTTPClient fetches remote inputs.
var DefaultHTTPClient = &http.Client{Timeout: 2 * time.Minute}

// IsURL reports whether input is an http(s) URL rather than a path.
func IsURL(input string) bool {
	return strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}

// Resolve determines the type of input and returns a Source.
// Supported formats:
//
//	/path/to/cover.jpg              local file (~ is expanded by the caller)
//	https://example.com/cover.jpg   HTTP URL
//
// Local files are checked immediately; URLs are only fetched on Open.
func Resolve(input string) (*Source, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty input")
	}
	if IsURL(input) {
		return resolveHTTP(input)
	}
	return resolveFile(input)
}

func resolveFile(p string) (*Source, error) {
	fi, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", p, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%q is a directory", p)
	}
	return &Source{
		Name: filepath.Base(p),
		Size: fi.Size(),
		Open: func(context.Context) (io.ReadCloser, error) { return os.Open(p) },
	}, nil
}

func resolveHTTP(raw string) (*Source, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q", raw)
	}
	return &Source{
		Name: nameFromURL(u),
		Size: -1,
		Open: func(ctx context.Context) (io.ReadCloser, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
			if err != nil {
				return nil, err
			}
			resp, err := DefaultHTTPClient.Do(req)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode != http.StatusOK {
				resp.Body.Close()
				return nil, fmt.Errorf("GET %s: status %d", raw, resp.StatusCode)
			}
			return resp.Body, nil
		},
	}, nil
}

// nameFromURL returns the last path segment, or "download" when the URL has
// no usable path.
func nameFromURL(u *url.URL) string {
	base := path.Base(u.Path)
	if base == "" || base == "." || base == "/" {
		return "download"
	}
	return base
}
