// Package search turns free-text input into collection reloads: it debounces
// keystrokes, picks a full listing or a typed text query, and drops responses
// that a newer request has superseded.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/blackwell-systems/shelfview/internal/api"
	"github.com/blackwell-systems/shelfview/internal/catalog"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period before a typed query is issued.
const DefaultDebounce = 250 * time.Millisecond

// Fetcher loads collections.
type Fetcher interface {
	All(ctx context.Context) ([]catalog.Book, error)
	Search(ctx context.Context, query string, typ api.SearchType) ([]catalog.Book, error)
}

// Result is a resolved collection load.
type Result struct {
	// Seq is the issuance number of the request. Higher is newer.
	Seq   uint64
	Query string
	Type  api.SearchType
	// Books is the full collection for the query; empty on failure.
	Books []catalog.Book
	Err   error
	// Message is a human-readable failure description, empty on success.
	Message string
}

// Coordinator owns the search text and type and issues collection reloads.
// Results are handed to the sink outside any lock, so the sink may call back
// into the Coordinator.
type Coordinator struct {
	fetch    Fetcher
	sink     func(Result)
	debounce *Debouncer
	timeout  time.Duration
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	text   string
	typ    api.SearchType
	seq    uint64
	closed bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDebounce overrides the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(c *Coordinator) { c.debounce = NewDebouncer(d) }
}

// WithType sets the initial search type.
func WithType(t api.SearchType) Option {
	return func(c *Coordinator) { c.typ = t }
}

// WithRequestTimeout bounds each fetch. Zero means no extra bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.timeout = d }
}

// WithLogger attaches a structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// New creates a Coordinator delivering results to sink.
func New(fetch Fetcher, sink func(Result), opts ...Option) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		fetch:    fetch,
		sink:     sink,
		debounce: NewDebouncer(DefaultDebounce),
		typ:      api.SearchTitle,
		log:      zap.NewNop(),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Text returns the current search text.
func (c *Coordinator) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// Type returns the current search type.
func (c *Coordinator) Type() api.SearchType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.typ
}

// Reload issues a load for the current text and type right away, dropping
// any pending debounced load.
func (c *Coordinator) Reload() uint64 {
	c.debounce.Cancel()
	return c.issue()
}

// OnQueryChange records new search text and schedules a reload once input
// has been quiet for the debounce period.
func (c *Coordinator) OnQueryChange(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.text = text
	c.mu.Unlock()
	c.debounce.Debounce(func() { c.issue() })
}

// SetType switches the search mode. Title, author and ISBN searches are
// mutually exclusive, so the text is cleared and the full collection is
// reloaded immediately; a pending debounced query is never issued.
func (c *Coordinator) SetType(t api.SearchType) uint64 {
	c.debounce.Cancel()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0
	}
	c.typ = t
	c.text = ""
	c.mu.Unlock()
	return c.issue()
}

// Close cancels pending work and waits for in-flight requests to return.
// No result is delivered after Close returns.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.debounce.Cancel()
	c.cancel()
	c.wg.Wait()
}

// issue starts a request for the current state and returns its sequence number.
func (c *Coordinator) issue() uint64 {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0
	}
	c.seq++
	seq, text, typ := c.seq, strings.TrimSpace(c.text), c.typ
	c.wg.Add(1)
	c.mu.Unlock()

	c.log.Debug("collection load issued", zap.Uint64("seq", seq), zap.String("query", text), zap.String("type", string(typ)))
	go func() {
		defer c.wg.Done()
		c.run(seq, text, typ)
	}()
	return seq
}

func (c *Coordinator) run(seq uint64, text string, typ api.SearchType) {
	ctx := c.ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var (
		books []catalog.Book
		err   error
	)
	if text == "" {
		books, err = c.fetch.All(ctx)
	} else {
		books, err = c.fetch.Search(ctx, text, typ)
	}

	res := Result{Seq: seq, Query: text, Type: typ, Books: books}
	if err != nil {
		res.Books = []catalog.Book{}
		res.Err = err
		res.Message = FailureMessage(err)
	} else if res.Books == nil {
		res.Books = []catalog.Book{}
	}

	c.mu.Lock()
	stale := c.closed || seq != c.seq
	c.mu.Unlock()
	if stale {
		c.log.Debug("stale collection load dropped", zap.Uint64("seq", seq))
		return
	}
	if err != nil {
		c.log.Warn("collection load failed", zap.Uint64("seq", seq), zap.Error(err))
	}
	c.sink(res)
}

// FailureMessage describes a read failure for the user.
func FailureMessage(err error) string {
	switch api.Classify(err) {
	case api.KindNone:
		return ""
	case api.KindAuth:
		return "Your session has expired. Please log in again."
	case api.KindNetwork:
		return "Could not reach the server. Check your connection and try again."
	case api.KindParse:
		return "The server sent a response that could not be read."
	case api.KindServer:
		return "The server had a problem loading books. Please try again later."
	default:
		return "Failed to load books: " + err.Error()
	}
}
