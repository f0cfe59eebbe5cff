package mutation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/blackwell-systems/shelfview/internal/api"
	"github.com/blackwell-systems/shelfview/internal/catalog"
	"github.com/blackwell-systems/shelfview/internal/events"
	"github.com/blackwell-systems/shelfview/internal/mutation"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

var (
	errNet    = &api.NetworkError{Op: "DELETE /books/1", Err: errors.New("connection reset")}
	errServer = &api.StatusError{Code: 500, Message: "boom"}
)

// fakeRemote replays scripted errors per method. Calls past the end of a
// script succeed.
type fakeRemote struct {
	mu      sync.Mutex
	script  map[string][]error
	calls   map[string]int
	onCall  func(method string)
	getBook func(id int64) (*catalog.Book, error)
	found   []catalog.Book
	created *catalog.Book
}

func newRemote(script map[string][]error) *fakeRemote {
	return &fakeRemote{script: script, calls: map[string]int{}}
}

func (f *fakeRemote) next(method string) error {
	f.mu.Lock()
	n := f.calls[method]
	f.calls[method]++
	var err error
	if s := f.script[method]; n < len(s) {
		err = s[n]
	}
	hook := f.onCall
	f.mu.Unlock()
	if hook != nil {
		hook(method)
	}
	return err
}

func (f *fakeRemote) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeRemote) AddToLibrary(_ context.Context, _ int64) error {
	return f.next("add")
}

func (f *fakeRemote) RemoveFromLibrary(_ context.Context, _ int64) error {
	return f.next("remove")
}

func (f *fakeRemote) DeleteBook(_ context.Context, _ int64) error {
	return f.next("delete")
}

func (f *fakeRemote) CreateBook(_ context.Context, n api.NewBook) (*catalog.Book, error) {
	if err := f.next("create"); err != nil {
		return nil, err
	}
	if f.created != nil {
		return f.created, nil
	}
	return &catalog.Book{ID: 99, Title: n.Title, ISBN: n.ISBN}, nil
}

func (f *fakeRemote) GetBook(_ context.Context, id int64) (*catalog.Book, error) {
	f.next("get")
	if f.getBook != nil {
		return f.getBook(id)
	}
	return nil, api.ErrNotFound
}

func (f *fakeRemote) Search(_ context.Context, _ string, _ api.SearchType) ([]catalog.Book, error) {
	if err := f.next("search"); err != nil {
		return nil, err
	}
	return f.found, nil
}

// fakeStore records narrow writes.
type fakeStore struct {
	mu     sync.Mutex
	writes []string
}

func (s *fakeStore) record(w string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, w)
	return true
}

func (s *fakeStore) RemoveBook(_ uint64, _ int64) bool { return s.record("remove") }
func (s *fakeStore) MarkInLibrary(_ uint64, _ int64, in bool) bool {
	if in {
		return s.record("in-library")
	}
	return s.record("not-in-library")
}
func (s *fakeStore) AddBook(_ uint64, b catalog.Book) bool { return s.record("add " + b.Title) }

func (s *fakeStore) Writes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.writes...)
}

type harness struct {
	remote *fakeRemote
	store  *fakeStore
	events []events.Event
	exec   *mutation.Executor
}

func newHarness(t *testing.T, remote *fakeRemote) *harness {
	t.Helper()
	h := &harness{remote: remote, store: &fakeStore{}}
	bus := events.NewBus()
	unsub := bus.Subscribe(func(e events.Event) { h.events = append(h.events, e) })
	t.Cleanup(unsub)
	h.exec = mutation.New(remote,
		mutation.WithStore(h.store),
		mutation.WithBus(bus),
		mutation.WithRetryDelay(time.Millisecond),
		mutation.WithSettleDelay(time.Millisecond),
	)
	return h
}

func contains(trace []mutation.State, s mutation.State) bool {
	for _, v := range trace {
		if v == s {
			return true
		}
	}
	return false
}

// --- Delete ---

func TestDelete_NetworkErrorVerifiedAbsent(t *testing.T) {
	defer goleak.VerifyNone(t)
	h := newHarness(t, newRemote(map[string][]error{"delete": {errNet}}))

	res := h.exec.Run(context.Background(), mutation.Intent{Op: mutation.OpDelete, BookID: 7})

	if res.Outcome != mutation.Success || !res.Verified {
		t.Fatalf("outcome = %s verified=%v, want success verified", res.Outcome, res.Verified)
	}
	if res.Err != nil {
		t.Errorf("Err = %v, want nil", res.Err)
	}
	if res.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", res.Attempts)
	}
	if diff := cmp.Diff([]string{"remove"}, h.store.Writes()); diff != "" {
		t.Errorf("store writes (-want +got):\n%s", diff)
	}
	want := []events.Event{{Kind: events.BookDeleted, BookID: 7, Verified: true}}
	if diff := cmp.Diff(want, h.events); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
	wantTrace := []mutation.State{
		mutation.StateIdle, mutation.StateSent, mutation.StateNetworkError,
		mutation.StateVerifying, mutation.StateSuccess, mutation.StateTerminal,
	}
	if diff := cmp.Diff(wantTrace, res.Trace); diff != "" {
		t.Errorf("trace (-want +got):\n%s", diff)
	}
}

func TestDelete_NetworkErrorStillPresentRetries(t *testing.T) {
	defer goleak.VerifyNone(t)
	r := newRemote(map[string][]error{"delete": {errNet}})
	r.getBook = func(id int64) (*catalog.Book, error) { return &catalog.Book{ID: id}, nil }
	h := newHarness(t, r)

	res := h.exec.Run(context.Background(), mutation.Intent{Op: mutation.OpDelete, BookID: 7})

	if res.Outcome != mutation.Success || res.Verified {
		t.Fatalf("outcome = %s verified=%v, want unverified success", res.Outcome, res.Verified)
	}
	if res.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", res.Attempts)
	}
	if got := r.count("get"); got != 1 {
		t.Errorf("verification reads = %d, want 1", got)
	}
}

func TestDelete_NotFoundIsAlreadyDone(t *testing.T) {
	defer goleak.VerifyNone(t)
	h := newHarness(t, newRemote(map[string][]error{"delete": {api.ErrNotFound}}))

	res := h.exec.Run(context.Background(), mutation.Intent{Op: mutation.OpDelete, BookID: 3})

	if res.Outcome != mutation.AlreadyDone {
		t.Errorf("outcome = %s, want already-done", res.Outcome)
	}
	if diff := cmp.Diff([]string{"remove"}, h.store.Writes()); diff != "" {
		t.Errorf("store writes (-want +got):\n%s", diff)
	}
}

func TestDelete_ServerErrorsVerifyAtExhaustion(t *testing.T) {
	defer goleak.VerifyNone(t)
	r := newRemote(map[string][]error{"delete": {errServer, errServer, errServer}})
	h := newHarness(t, r)

	res := h.exec.Run(context.Background(), mutation.Intent{Op: mutation.OpDelete, BookID: 3})

	if res.Outcome != mutation.Success || !res.Verified {
		t.Fatalf("outcome = %s verified=%v, want verified success", res.Outcome, res.Verified)
	}
	if res.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", res.Attempts)
	}
	if got := r.count("get"); got != 1 {
		t.Errorf("verification reads = %d, want 1", got)
	}
	if diff := cmp.Diff([]string{"remove"}, h.store.Writes()); diff != "" {
		t.Errorf("store writes (-want +got):\n%s", diff)
	}
}

func TestDelete_ServerErrorsStillPresentFails(t *testing.T) {
	defer goleak.VerifyNone(t)
	r := newRemote(map[string][]error{"delete": {errServer, errServer, errServer}})
	r.getBook = func(id int64) (*catalog.Book, error) { return &catalog.Book{ID: id}, nil }
	h := newHarness(t, r)

	res := h.exec.Run(context.Background(), mutation.Intent{Op: mutation.OpDelete, BookID: 3})

	if res.Outcome != mutation.Failed {
		t.Errorf("outcome = %s, want failed", res.Outcome)
	}
	if got := r.count("get"); got != 1 {
		t.Errorf("verification reads = %d, want 1", got)
	}
	if len(h.store.Writes()) != 0 || len(h.events) != 0 {
		t.Errorf("failed delete touched state: writes=%v events=%v", h.store.Writes(), h.events)
	}
}

func TestDelete_EmptyBookDoesNotConfirm(t *testing.T) {
	defer goleak.VerifyNone(t)
	r := newRemote(map[string][]error{"delete": {errNet}})
	// A body of an unexpected shape decodes to a zero book.
	r.getBook = func(int64) (*catalog.Book, error) { return &catalog.Book{}, nil }
	h := newHarness(t, r)

	res := h.exec.Run(context.Background(), mutation.Intent{Op: mutation.OpDelete, BookID: 7})

	if res.Verified {
		t.Error("zero-value book confirmed the delete")
	}
	if res.Outcome != mutation.Success || res.Attempts != 2 {
		t.Errorf("outcome = %s after %d attempts, want success after 2", res.Outcome, res.Attempts)
	}
}

func TestAdd_ConflictIsInformational(t *testing.T) {
	defer goleak.VerifyNone(t)
	r := newRemote(map[string][]error{"add": {&api.ConflictError{Code: "ALREADY_IN_LIBRARY"}}})
	h := newHarness(t, r)

	res := h.exec.Run(context.Background(), mutation.Intent{Op: mutation.OpAddToLibrary, BookID: 4})

	if res.Outcome != mutation.AlreadyDone {
		t.Fatalf("outcome = %s, want already-done", res.Outcome)
	}
	if res.Attempts != 1 || res.Retries != 0 {
		t.Errorf("attempts=%d retries=%d, want 1/0", res.Attempts, res.Retries)
	}
	if contains(res.Trace, mutation.StateRetryPending) {
		t.Errorf("conflict was retried: %v", res.Trace)
	}
	if res.Message != "This book is already in your library." {
		t.Errorf("Message = %q", res.Message)
	}
	if diff := cmp.Diff([]string{"in-library"}, h.store.Writes()); diff != "" {
		t.Errorf("store writes (-want +got):\n%s", diff)
	}
}

func TestRemove_SucceedsOnThirdAttempt(t *testing.T) {
	defer goleak.VerifyNone(t)
	r := newRemote(map[string][]error{"remove": {errServer, errServer}})
	h := newHarness(t, r)

	res := h.exec.Run(context.Background(), mutation.Intent{Op: mutation.OpRemoveFromLibrary, BookID: 4})

	if res.Outcome != mutation.Success {
		t.Fatalf("outcome = %s, want success", res.Outcome)
	}
	if res.Attempts != 3 || res.Retries != 2 {
		t.Errorf("attempts=%d retries=%d, want 3/2", res.Attempts, res.Retries)
	}
	if diff := cmp.Diff([]string{"not-in-library"}, h.store.Writes()); diff != "" {
		t.Errorf("store writes (-want +got):\n%s", diff)
	}
	want := []events.Event{{Kind: events.LibraryRemoved, BookID: 4}}
	if diff := cmp.Diff(want, h.events); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestRemove_NeverSucceedsBeforeThirdAttempt(t *testing.T) {
	for failures := 0; failures <= 3; failures++ {
		script := make([]error, failures)
		for i := range script {
			script[i] = errServer
		}
		h := newHarness(t, newRemote(map[string][]error{"remove": script}))
		res := h.exec.Run(context.Background(), mutation.Intent{Op: mutation.OpRemoveFromLibrary, BookID: 1})

		if res.Outcome == mutation.Success && res.Attempts != failures+1 {
			t.Errorf("failures=%d: success after %d attempts", failures, res.Attempts)
		}
		if failures == 3 && res.Outcome != mutation.Failed {
			t.Errorf("failures=3: outcome = %s, want failed", res.Outcome)
		}
		if res.Attempts > 3 {
			t.Errorf("failures=%d: %d attempts exceeds the retry bound", failures, res.Attempts)
		}
	}
}

func TestRejectedErrorsAreNotRetried(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"unauthorized", api.ErrUnauthorized},
		{"forbidden", api.ErrForbidden},
		{"parse", &api.ParseError{Op: "POST /library/1", Err: errors.New("bad json")}},
		{"not found", api.ErrNotFound},
		{"bad request", &api.StatusError{Code: 400}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := newRemote(map[string][]error{"add": {c.err}})
			h := newHarness(t, r)
			res := h.exec.Run(context.Background(), mutation.Intent{Op: mutation.OpAddToLibrary, BookID: 1})
			if res.Outcome != mutation.Rejected {
				t.Errorf("outcome = %s, want rejected", res.Outcome)
			}
			if r.count("add") != 1 {
				t.Errorf("add calls = %d, want 1", r.count("add"))
			}
			if !errors.Is(res.Err, c.err) {
				t.Errorf("Err = %v, want %v", res.Err, c.err)
			}
			if len(h.store.Writes()) != 0 {
				t.Errorf("rejected intent wrote to the store: %v", h.store.Writes())
			}
		})
	}
}

// --- Create ---

func newBook() *api.NewBook {
	return &api.NewBook{Title: "Emma", ISBN: "9780141439587", Authors: []string{"Jane Austen"}}
}

func TestCreate_ValidationHaltsBeforeRequest(t *testing.T) {
	r := newRemote(nil)
	h := newHarness(t, r)

	res := h.exec.Run(context.Background(), mutation.Intent{Op: mutation.OpCreate, Book: &api.NewBook{Title: "No ISBN"}})

	var ve *api.ValidationError
	if res.Outcome != mutation.Rejected || !errors.As(res.Err, &ve) {
		t.Fatalf("outcome = %s err = %v, want rejected validation", res.Outcome, res.Err)
	}
	if res.Attempts != 0 || r.count("create") != 0 {
		t.Errorf("request sent despite validation error")
	}
	if _, ok := ve.Fields["isbn"]; !ok {
		t.Errorf("missing isbn field error: %v", ve.Fields)
	}
}

func TestCreate_NetworkErrorVerifiedByTitleAndISBN(t *testing.T) {
	defer goleak.VerifyNone(t)
	r := newRemote(map[string][]error{"create": {errNet}})
	r.found = []catalog.Book{
		{ID: 40, Title: "Emma (abridged)", ISBN: "9780141439587"},
		{ID: 41, Title: "Emma", ISBN: "9780141439587"},
	}
	h := newHarness(t, r)

	res := h.exec.Run(context.Background(), mutation.Intent{Op: mutation.OpCreate, Book: newBook()})

	if res.Outcome != mutation.Success || !res.Verified {
		t.Fatalf("outcome = %s verified=%v, want verified success", res.Outcome, res.Verified)
	}
	if res.Created == nil || res.Created.ID != 41 {
		t.Errorf("Created = %+v, want book 41", res.Created)
	}
	if diff := cmp.Diff([]string{"add Emma"}, h.store.Writes()); diff != "" {
		t.Errorf("store writes (-want +got):\n%s", diff)
	}
	if len(h.events) != 1 || h.events[0].Kind != events.BookAdded || h.events[0].BookID != 41 {
		t.Errorf("events = %+v", h.events)
	}
}

func TestCreate_ExhaustedWithoutConfirmationFails(t *testing.T) {
	defer goleak.VerifyNone(t)
	r := newRemote(map[string][]error{"create": {errNet, errNet, errNet}})
	h := newHarness(t, r)

	res := h.exec.Run(context.Background(), mutation.Intent{Op: mutation.OpCreate, Book: newBook()})

	if res.Outcome != mutation.Failed {
		t.Fatalf("outcome = %s, want failed", res.Outcome)
	}
	if res.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", res.Attempts)
	}
	// One verification per ambiguous attempt, none repeated at exhaustion.
	if got := r.count("search"); got != 3 {
		t.Errorf("verification reads = %d, want 3", got)
	}
	if len(h.store.Writes()) != 0 || len(h.events) != 0 {
		t.Error("failed create touched state")
	}
}

func TestCreate_ServerErrorThenNetworkVerifiesAtExhaustion(t *testing.T) {
	defer goleak.VerifyNone(t)
	r := newRemote(map[string][]error{
		"create": {errNet, errServer, errServer},
		// First verification read fails, the final one finds the book.
		"search": {errServer},
	})
	r.found = []catalog.Book{{ID: 5, Title: "Emma", ISBN: "9780141439587"}}
	h := newHarness(t, r)

	res := h.exec.Run(context.Background(), mutation.Intent{Op: mutation.OpCreate, Book: newBook()})

	if res.Outcome != mutation.Success || !res.Verified {
		t.Fatalf("outcome = %s verified=%v, want verified success", res.Outcome, res.Verified)
	}
	if got := r.count("search"); got != 2 {
		t.Errorf("verification reads = %d, want 2", got)
	}
}

// --- Cancellation ---

func TestCancelDuringRetryDelay(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := newRemote(map[string][]error{"remove": {errServer}})
	r.onCall = func(string) { cancel() }
	h := newHarness(t, r)
	exec := mutation.New(r, mutation.WithStore(h.store), mutation.WithRetryDelay(time.Hour))

	res := exec.Run(ctx, mutation.Intent{Op: mutation.OpRemoveFromLibrary, BookID: 2})

	if res.Outcome != mutation.Canceled {
		t.Errorf("outcome = %s, want canceled", res.Outcome)
	}
	if r.count("remove") != 1 {
		t.Errorf("remove calls = %d, want 1", r.count("remove"))
	}
	if len(h.store.Writes()) != 0 {
		t.Error("cancelled intent wrote to the store")
	}
}

func TestWithMaxRetriesIsClamped(t *testing.T) {
	r := newRemote(map[string][]error{"add": {errServer, errServer, errServer, errServer, errServer}})
	exec := mutation.New(r, mutation.WithMaxRetries(10), mutation.WithRetryDelay(time.Millisecond))

	res := exec.Run(context.Background(), mutation.Intent{Op: mutation.OpAddToLibrary, BookID: 1})
	if res.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", res.Attempts)
	}
}

func TestOutcomeString(t *testing.T) {
	want := map[mutation.Outcome]string{
		mutation.Success:     "success",
		mutation.AlreadyDone: "already-done",
		mutation.Failed:      "failed",
		mutation.Rejected:    "rejected",
		mutation.Canceled:    "canceled",
	}
	for o, s := range want {
		if o.String() != s {
			t.Errorf("%d.String() = %q, want %q", int(o), o.String(), s)
		}
	}
}
