// Package events is an explicit observer bus for cross-view notifications
// such as "a book left the library" or "the session changed".
package events

import "sync"

// Kind identifies what happened.
type Kind string

const (
	BookAdded          Kind = "book-added"
	BookDeleted        Kind = "book-deleted"
	LibraryAdded       Kind = "library-added"
	LibraryRemoved     Kind = "library-removed"
	CollectionReplaced Kind = "collection-replaced"
	SessionChanged     Kind = "session-changed"
)

// Event is published after a confirmed state change.
type Event struct {
	Kind   Kind
	BookID int64
	// Verified is set when success was inferred by a follow-up read after an
	// ambiguous transport failure.
	Verified bool
}

// Bus fans events out to subscribers synchronously, in subscription order.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Event)
	ids  []int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: map[int]func(Event){}}
}

// Subscribe registers fn and returns a function that unregisters it.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.ids = append(b.ids, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			for i, v := range b.ids {
				if v == id {
					b.ids = append(b.ids[:i:i], b.ids[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers e to every current subscriber. Subscribers may publish or
// unsubscribe from inside their callback.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	fns := make([]func(Event), 0, len(b.ids))
	for _, id := range b.ids {
		fns = append(fns, b.subs[id])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
