package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/blackwell-systems/shelfview/internal/catalog"
	"github.com/blackwell-systems/shelfview/internal/ingest"
	"go.uber.org/zap"
)

// SearchType selects which field a text search matches.
type SearchType string

const (
	SearchTitle  SearchType = "title"
	SearchAuthor SearchType = "author"
	SearchISBN   SearchType = "isbn"
)

// SearchTypes lists the search modes in the order the UI cycles them.
var SearchTypes = []SearchType{SearchTitle, SearchAuthor, SearchISBN}

// ParseSearchType validates a search type name. An empty string yields title.
func ParseSearchType(s string) (SearchType, error) {
	switch SearchType(strings.ToLower(s)) {
	case "", SearchTitle:
		return SearchTitle, nil
	case SearchAuthor:
		return SearchAuthor, nil
	case SearchISBN:
		return SearchISBN, nil
	}
	return "", fmt.Errorf("unknown search type %q (want title, author or isbn)", s)
}

// Next returns the search type following t, wrapping around.
func (t SearchType) Next() SearchType {
	for i, s := range SearchTypes {
		if s == t {
			return SearchTypes[(i+1)%len(SearchTypes)]
		}
	}
	return SearchTitle
}

// booksResponse is the list envelope: {status, books[]}.
type booksResponse struct {
	Status string         `json:"status"`
	Books  []catalog.Book `json:"books"`
}

type bookResponse struct {
	Status string       `json:"status"`
	Book   catalog.Book `json:"book"`
}

func (r booksResponse) result(op string) ([]catalog.Book, error) {
	if r.Status != "" && r.Status != "success" {
		return nil, &StatusError{Code: http.StatusOK, Message: op + ": status " + r.Status}
	}
	if r.Books == nil {
		return []catalog.Book{}, nil
	}
	return r.Books, nil
}

// All fetches the entire collection.
func (c *Client) All(ctx context.Context) ([]catalog.Book, error) {
	var res booksResponse
	if err := c.doJSON(ctx, http.MethodGet, c.url("books"), nil, &res, false); err != nil {
		return nil, err
	}
	return res.result("list books")
}

// Search runs a server-side text query of the given type.
func (c *Client) Search(ctx context.Context, query string, typ SearchType) ([]catalog.Book, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("type", string(typ))
	var res booksResponse
	if err := c.doJSON(ctx, http.MethodGet, c.url("books", "search")+"?"+q.Encode(), nil, &res, false); err != nil {
		return nil, err
	}
	return res.result("search books")
}

// GetBook fetches one book. A missing book yields ErrNotFound.
func (c *Client) GetBook(ctx context.Context, id int64) (*catalog.Book, error) {
	var res bookResponse
	if err := c.doJSON(ctx, http.MethodGet, c.url("books", itoa(id)), nil, &res, false); err != nil {
		return nil, err
	}
	return &res.Book, nil
}

// Categories lists the category names known to the server.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var res struct {
		Status     string `json:"status"`
		Categories []struct {
			Name string `json:"name"`
		} `json:"categories"`
	}
	if err := c.doJSON(ctx, http.MethodGet, c.url("categories"), nil, &res, false); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(res.Categories))
	for _, cat := range res.Categories {
		out = append(out, cat.Name)
	}
	return out, nil
}

// DeleteBook removes a book from the catalog.
func (c *Client) DeleteBook(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, c.url("books", itoa(id)), nil, nil, true)
}

// NewBook holds the fields of a book to create.
type NewBook struct {
	Title       string
	ISBN        string
	Description string
	Price       *float64
	Authors     []string
	Categories  []string
	// ImagePath is an optional cover image to upload: a local path or an
	// http(s) URL.
	ImagePath string
}

// Validate checks required fields before any request is sent.
func (n NewBook) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(n.Title) == "" {
		fields["title"] = "title is required"
	}
	if strings.TrimSpace(n.ISBN) == "" {
		fields["isbn"] = "isbn is required"
	}
	if len(n.Authors) == 0 {
		fields["authors"] = "at least one author is required"
	}
	if n.Price != nil && *n.Price < 0 {
		fields["price"] = "price must not be negative"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// CreateBook creates a book, uploading the cover image when one is given.
func (c *Client) CreateBook(ctx context.Context, n NewBook) (*catalog.Book, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("title", n.Title)
	_ = mw.WriteField("isbn", n.ISBN)
	_ = mw.WriteField("description", n.Description)
	if n.Price != nil {
		_ = mw.WriteField("price", strconv.FormatFloat(*n.Price, 'f', -1, 64))
	}
	for _, a := range n.Authors {
		_ = mw.WriteField("authors[]", a)
	}
	for _, cat := range n.Categories {
		_ = mw.WriteField("categories[]", cat)
	}
	if n.ImagePath != "" {
		if err := c.attachFile(ctx, mw, "image", n.ImagePath); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("books"), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.do(ctx, req, true)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var res bookResponse
	if err := decode("create book", resp.Body, &res); err != nil {
		return nil, err
	}
	return &res.Book, nil
}

// attachFile streams a local file or URL into a multipart part.
func (c *Client) attachFile(ctx context.Context, mw *multipart.Writer, field, input string) error {
	src, err := ingest.Resolve(input)
	if err != nil {
		return fmt.Errorf("opening %s: %w", field, err)
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return fmt.Errorf("opening %s: %w", field, err)
	}
	defer rc.Close()
	part, err := mw.CreateFormFile(field, src.Name)
	if err != nil {
		return err
	}
	r := ingest.NewReader(rc)
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("reading %s: %w", field, err)
	}
	c.log.Debug("attached file",
		zap.String("field", field),
		zap.String("name", src.Name),
		zap.Int64("size", r.Size()),
		zap.String("sha256", r.SHA256()))
	return nil
}

// ExportBooks downloads the catalog as a spreadsheet.
// Caller is responsible for closing the returned ReadCloser.
func (c *Client) ExportBooks(ctx context.Context) (io.ReadCloser, string, error) {
	return c.doBinary(ctx, c.url("books", "export"))
}
