// Package pager exposes a growing, contiguous prefix of a filtered sequence:
// page 1 first, then one more page each time the end of the rendered list
// becomes visible.
package pager

import "sync"

// DefaultPageSize is the number of items added per page.
const DefaultPageSize = 18

// GetPage returns the items of a 1-based page. It never aliases beyond the
// page and is idempotent for a fixed sequence and page number.
func GetPage[T any](seq []T, page, size int) []T {
	if page < 1 || size < 1 {
		return []T{}
	}
	start := (page - 1) * size
	if start >= len(seq) {
		return []T{}
	}
	end := min(start+size, len(seq))
	out := make([]T, end-start)
	copy(out, seq[start:end])
	return out
}

// Prefix returns the first page*size items, clamped to the sequence length.
func Prefix[T any](seq []T, page, size int) []T {
	if page < 1 || size < 1 {
		return []T{}
	}
	end := min(page*size, len(seq))
	out := make([]T, end)
	copy(out, seq[:end])
	return out
}

// HasMore reports whether a sequence of length n extends past page.
func HasMore(n, page, size int) bool {
	return n > page*size
}

// Ticket identifies an asynchronous page load started by BeginLoad.
type Ticket struct {
	gen  uint64
	page int
}

// Page is the page number the load will commit.
func (t Ticket) Page() int { return t.page }

// Window tracks the displayed prefix of a source sequence. Loads only ever
// append; Reset replaces the prefix with page 1 and invalidates any load in
// flight.
type Window[T any, K comparable] struct {
	mu        sync.Mutex
	size      int
	key       func(T) K
	source    []T
	displayed []T
	page      int
	inFlight  bool
	gen       uint64
}

// NewWindow creates an empty window. key identifies items for the scroll
// sentinel.
func NewWindow[T any, K comparable](size int, key func(T) K) *Window[T, K] {
	if size < 1 {
		size = DefaultPageSize
	}
	return &Window[T, K]{size: size, key: key, page: 1, displayed: []T{}}
}

// Reset replaces the source, returns to page 1 and cancels the relevance of
// any in-flight load.
func (w *Window[T, K]) Reset(source []T) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gen++
	w.source = source
	w.page = 1
	w.inFlight = false
	w.displayed = Prefix(source, 1, w.size)
}

// Refresh swaps in an updated source while keeping the current page count,
// so a narrow edit of the source does not scroll the view back to the top.
// The generation is unchanged and a load in flight stays valid.
func (w *Window[T, K]) Refresh(source []T) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.source = source
	w.displayed = Prefix(source, w.page, w.size)
}

// LoadNext appends the next page. It is a no-op returning false when nothing
// is left or a load is already in flight.
func (w *Window[T, K]) LoadNext() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inFlight || !HasMore(len(w.source), w.page, w.size) {
		return false
	}
	w.appendPage(w.page + 1)
	return true
}

// BeginLoad marks a load in flight for callers that render the next page
// asynchronously. ok is false when nothing is left or a load is running.
func (w *Window[T, K]) BeginLoad() (t Ticket, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inFlight || !HasMore(len(w.source), w.page, w.size) {
		return Ticket{}, false
	}
	w.inFlight = true
	return Ticket{gen: w.gen, page: w.page + 1}, true
}

// CommitLoad appends the page a ticket stands for. A ticket issued before the
// latest Reset is discarded and CommitLoad returns false.
func (w *Window[T, K]) CommitLoad(t Ticket) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t.gen != w.gen || !w.inFlight {
		return false
	}
	w.inFlight = false
	w.appendPage(t.page)
	return true
}

// AbortLoad clears the in-flight flag without appending.
func (w *Window[T, K]) AbortLoad(t Ticket) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t.gen == w.gen {
		w.inFlight = false
	}
}

func (w *Window[T, K]) appendPage(page int) {
	w.displayed = append(w.displayed, GetPage(w.source, page, w.size)...)
	w.page = page
}

// Displayed returns the displayed prefix. Callers must not modify it.
func (w *Window[T, K]) Displayed() []T {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.displayed[:len(w.displayed):len(w.displayed)]
}

// Page returns the current 1-based page number.
func (w *Window[T, K]) Page() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.page
}

// Size returns the page size.
func (w *Window[T, K]) Size() int { return w.size }

// Total returns the length of the source sequence.
func (w *Window[T, K]) Total() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.source)
}

// HasMore reports whether the source extends past the displayed prefix.
func (w *Window[T, K]) HasMore() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return HasMore(len(w.source), w.page, w.size)
}

// Loading reports whether an asynchronous load is in flight.
func (w *Window[T, K]) Loading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inFlight
}

// Generation increments on every Reset.
func (w *Window[T, K]) Generation() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gen
}

// Sentinel returns the key of the last displayed item: the element whose
// visibility triggers the next load. It changes identity after every load
// and reset, which is when observers re-attach.
func (w *Window[T, K]) Sentinel() (K, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var zero K
	if len(w.displayed) == 0 {
		return zero, false
	}
	return w.key(w.displayed[len(w.displayed)-1]), true
}

// OnVisible is the viewport-intersection signal: it loads the next page when
// the visible item is the current sentinel. Repeated signals for the same
// item after the load are ignored because the sentinel has moved on.
func (w *Window[T, K]) OnVisible(k K) bool {
	s, ok := w.Sentinel()
	if !ok || s != k {
		return false
	}
	return w.LoadNext()
}
