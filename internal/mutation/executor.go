package mutation

import (
	"context"
	"errors"
	"time"

	"github.com/blackwell-systems/shelfview/internal/api"
	"github.com/blackwell-systems/shelfview/internal/catalog"
	"github.com/blackwell-systems/shelfview/internal/events"
	"go.uber.org/zap"
)

// Defaults for the retry and verification protocol.
const (
	DefaultMaxRetries  = 2
	DefaultRetryDelay  = 2 * time.Second
	DefaultSettleDelay = 1 * time.Second
)

// Remote is the subset of the API client the executor drives.
type Remote interface {
	AddToLibrary(ctx context.Context, id int64) error
	RemoveFromLibrary(ctx context.Context, id int64) error
	DeleteBook(ctx context.Context, id int64) error
	CreateBook(ctx context.Context, n api.NewBook) (*catalog.Book, error)
	GetBook(ctx context.Context, id int64) (*catalog.Book, error)
	Search(ctx context.Context, query string, typ api.SearchType) ([]catalog.Book, error)
}

// Store owns the in-memory collection and accepts narrow writes. Each write
// carries the generation the intent started from and reports whether it was
// applied.
type Store interface {
	RemoveBook(gen uint64, id int64) bool
	MarkInLibrary(gen uint64, id int64, in bool) bool
	AddBook(gen uint64, b catalog.Book) bool
}

// Executor runs intents. It is safe for concurrent use; each Run call is
// independent.
type Executor struct {
	remote      Remote
	store       Store
	bus         *events.Bus
	maxRetries  int
	retryDelay  time.Duration
	settleDelay time.Duration
	log         *zap.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithStore sets the collection owner that receives narrow writes.
func WithStore(s Store) Option { return func(e *Executor) { e.store = s } }

// WithBus sets the bus that confirmed changes are published to.
func WithBus(b *events.Bus) Option { return func(e *Executor) { e.bus = b } }

// WithMaxRetries bounds re-sends after server or network errors. Values are
// clamped to [0, DefaultMaxRetries].
func WithMaxRetries(n int) Option {
	return func(e *Executor) { e.maxRetries = max(0, min(n, DefaultMaxRetries)) }
}

// WithRetryDelay sets the wait before each re-send.
func WithRetryDelay(d time.Duration) Option { return func(e *Executor) { e.retryDelay = d } }

// WithSettleDelay sets the wait before a verification read.
func WithSettleDelay(d time.Duration) Option { return func(e *Executor) { e.settleDelay = d } }

// WithLogger attaches a structured logger.
func WithLogger(l *zap.Logger) Option { return func(e *Executor) { e.log = l } }

// New creates an Executor.
func New(remote Remote, opts ...Option) *Executor {
	e := &Executor{
		remote:      remote,
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		settleDelay: DefaultSettleDelay,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run tracks one intent through the state machine.
type run struct {
	e       *Executor
	in      Intent
	res     Result
	retries int
	// lastVerified is set when the most recent attempt already ran a
	// verification read that did not confirm.
	lastVerified bool
}

func (r *run) step(s State) { r.res.Trace = append(r.res.Trace, s) }

// Run executes the intent and returns its terminal result. It blocks through
// retry and settle delays; cancel ctx to abandon it. Exactly one result is
// produced and, for Success and AlreadyDone, published to the bus.
func (e *Executor) Run(ctx context.Context, in Intent) Result {
	r := &run{e: e, in: in, res: Result{Intent: in}}
	r.step(StateIdle)

	if in.Op == OpCreate {
		if in.Book == nil {
			return r.finish(Rejected, &api.ValidationError{Fields: map[string]string{"book": "book fields are required"}})
		}
		if err := in.Book.Validate(); err != nil {
			return r.finish(Rejected, err)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return r.finish(Canceled, err)
		}
		r.step(StateSent)
		r.res.Attempts++
		r.res.Retries = r.retries
		created, err := e.send(ctx, in)
		kind := api.Classify(err)
		log := e.log.With(zap.String("op", string(in.Op)), zap.Int64("book_id", in.BookID),
			zap.Int("attempt", r.res.Attempts), zap.Stringer("kind", kind))

		switch kind {
		case api.KindNone:
			r.step(StateSuccess)
			r.res.Created = created
			return r.finish(Success, nil)

		case api.KindConflict:
			r.step(StateAlreadyDone)
			return r.finish(AlreadyDone, err)

		case api.KindNotFound:
			if in.Op == OpDelete {
				r.step(StateAlreadyDone)
				return r.finish(AlreadyDone, err)
			}
			return r.finish(Rejected, err)

		case api.KindCanceled:
			return r.finish(Canceled, err)

		case api.KindServer, api.KindNetwork:
			r.res.Err = err
			r.lastVerified = false
			if kind == api.KindNetwork {
				r.step(StateNetworkError)
				if in.Op.verifiable() {
					ok, err := r.verify(ctx)
					if err != nil {
						return r.finish(Canceled, err)
					}
					if ok {
						return r.finish(Success, nil)
					}
					r.lastVerified = true
				}
			} else {
				r.step(StateServerError)
			}
			if r.retries >= e.maxRetries {
				log.Warn("retries exhausted", zap.Error(err))
				return r.exhausted(ctx)
			}
			log.Info("retrying", zap.Duration("delay", e.retryDelay), zap.Error(err))
			r.step(StateRetryPending)
			if err := wait(ctx, e.retryDelay); err != nil {
				return r.finish(Canceled, err)
			}
			r.retries++

		default:
			log.Warn("rejected", zap.Error(err))
			return r.finish(Rejected, err)
		}
	}
}

// exhausted decides the outcome once no retries remain. A verifiable intent
// gets one last verification, whether the final failure was a server error
// or a transport failure, unless the final attempt was already verified.
func (r *run) exhausted(ctx context.Context) Result {
	if r.in.Op.verifiable() && !r.lastVerified {
		ok, err := r.verify(ctx)
		if err != nil {
			return r.finish(Canceled, err)
		}
		if ok {
			return r.finish(Success, nil)
		}
	}
	return r.finish(Failed, r.res.Err)
}

// verify waits for the server to settle, then reads back the intended state.
// The returned error is non-nil only when ctx ended.
func (r *run) verify(ctx context.Context) (bool, error) {
	r.step(StateVerifying)
	if err := wait(ctx, r.e.settleDelay); err != nil {
		return false, err
	}
	log := r.e.log.With(zap.String("op", string(r.in.Op)), zap.Int64("book_id", r.in.BookID))

	switch r.in.Op {
	case OpDelete:
		// Only a not-found answer or a different, real book counts as gone.
		b, err := r.e.remote.GetBook(ctx, r.in.BookID)
		switch {
		case errors.Is(err, api.ErrNotFound):
		case err == nil && b != nil && b.ID != 0 && b.ID != r.in.BookID:
		case ctx.Err() != nil:
			return false, ctx.Err()
		default:
			log.Info("verification did not confirm delete", zap.Error(err))
			return false, nil
		}

	case OpCreate:
		books, err := r.e.remote.Search(ctx, r.in.Book.ISBN, api.SearchISBN)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			log.Info("verification read failed", zap.Error(err))
			return false, nil
		}
		match := findCreated(books, *r.in.Book)
		if match == nil {
			log.Info("verification did not find created book")
			return false, nil
		}
		r.res.Created = match

	default:
		return false, nil
	}

	log.Info("ambiguous failure confirmed as success")
	r.step(StateSuccess)
	r.res.Verified = true
	return true, nil
}

func findCreated(books []catalog.Book, n api.NewBook) *catalog.Book {
	for i := range books {
		if books[i].Title == n.Title && books[i].ISBN == n.ISBN {
			b := books[i]
			return &b
		}
	}
	return nil
}

func (e *Executor) send(ctx context.Context, in Intent) (*catalog.Book, error) {
	switch in.Op {
	case OpAddToLibrary:
		return nil, e.remote.AddToLibrary(ctx, in.BookID)
	case OpRemoveFromLibrary:
		return nil, e.remote.RemoveFromLibrary(ctx, in.BookID)
	case OpDelete:
		return nil, e.remote.DeleteBook(ctx, in.BookID)
	case OpCreate:
		return e.remote.CreateBook(ctx, *in.Book)
	}
	return nil, &api.ValidationError{Fields: map[string]string{"op": "unknown operation " + string(in.Op)}}
}

// finish records the terminal outcome, applies side effects and publishes.
func (r *run) finish(o Outcome, err error) Result {
	r.step(StateTerminal)
	r.res.Outcome = o
	if o == Success {
		r.res.Err = nil
	} else if err != nil {
		r.res.Err = err
	}
	r.res.Message = Message(r.res)

	if o == Success || o == AlreadyDone {
		r.e.apply(r.res)
	}
	r.e.log.Debug("intent finished",
		zap.String("intent", r.in.String()),
		zap.Stringer("outcome", o),
		zap.Int("attempts", r.res.Attempts),
		zap.Bool("verified", r.res.Verified))
	return r.res
}

// apply performs the narrow collection write and notifies observers.
func (e *Executor) apply(res Result) {
	in := res.Intent
	var kind events.Kind
	id := in.BookID
	switch in.Op {
	case OpDelete:
		kind = events.BookDeleted
		if e.store != nil {
			e.store.RemoveBook(in.Generation, id)
		}
	case OpAddToLibrary:
		kind = events.LibraryAdded
		if e.store != nil {
			e.store.MarkInLibrary(in.Generation, id, true)
		}
	case OpRemoveFromLibrary:
		kind = events.LibraryRemoved
		if e.store != nil {
			e.store.MarkInLibrary(in.Generation, id, false)
		}
	case OpCreate:
		kind = events.BookAdded
		if res.Created != nil {
			id = res.Created.ID
			if e.store != nil {
				e.store.AddBook(in.Generation, *res.Created)
			}
		}
	default:
		return
	}
	if e.bus != nil {
		e.bus.Publish(events.Event{Kind: kind, BookID: id, Verified: res.Verified})
	}
}

// wait sleeps for d or until ctx ends.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
