package search_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/blackwell-systems/shelfview/internal/api"
	"github.com/blackwell-systems/shelfview/internal/catalog"
	"github.com/blackwell-systems/shelfview/internal/search"
	"go.uber.org/goleak"
)

const quiet = 30 * time.Millisecond

// fakeFetcher records calls and can hold responses until released.
type fakeFetcher struct {
	mu    sync.Mutex
	calls []string
	gates map[string]chan struct{}
	err   error
}

func newFake() *fakeFetcher {
	return &fakeFetcher{gates: map[string]chan struct{}{}}
}

// hold makes the call with the given key block until release is called.
func (f *fakeFetcher) hold(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gates[key] = make(chan struct{})
}

func (f *fakeFetcher) release(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	close(f.gates[key])
}

func (f *fakeFetcher) record(ctx context.Context, key string) ([]catalog.Book, error) {
	f.mu.Lock()
	f.calls = append(f.calls, key)
	gate := f.gates[key]
	err := f.err
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return []catalog.Book{{ID: 1, Title: key}}, nil
}

func (f *fakeFetcher) All(ctx context.Context) ([]catalog.Book, error) {
	return f.record(ctx, "all")
}

func (f *fakeFetcher) Search(ctx context.Context, q string, typ api.SearchType) ([]catalog.Book, error) {
	return f.record(ctx, fmt.Sprintf("%s:%s", typ, q))
}

func (f *fakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func collect() (chan search.Result, func(search.Result)) {
	ch := make(chan search.Result, 16)
	return ch, func(r search.Result) { ch <- r }
}

func next(t *testing.T, ch chan search.Result) search.Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a result")
		return search.Result{}
	}
}

func expectNone(t *testing.T, ch chan search.Result, wait time.Duration) {
	t.Helper()
	select {
	case r := <-ch:
		t.Errorf("unexpected result delivered: seq=%d query=%q", r.Seq, r.Query)
	case <-time.After(wait):
	}
}

func TestOnQueryChange_DebouncesKeystrokes(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFake()
	ch, sink := collect()
	c := search.New(f, sink, search.WithDebounce(quiet))
	defer c.Close()

	for _, text := range []string{"P", "Pr", "Pri", "Pride"} {
		c.OnQueryChange(text)
		time.Sleep(quiet / 5)
	}
	r := next(t, ch)
	if r.Query != "Pride" || r.Type != api.SearchTitle {
		t.Errorf("result = %q/%s, want Pride/title", r.Query, r.Type)
	}
	expectNone(t, ch, 3*quiet)
	if calls := f.Calls(); len(calls) != 1 || calls[0] != "title:Pride" {
		t.Errorf("calls = %v, want [title:Pride]", calls)
	}
}

func TestOnQueryChange_EmptyTextFetchesAll(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFake()
	ch, sink := collect()
	c := search.New(f, sink, search.WithDebounce(quiet))
	defer c.Close()

	c.OnQueryChange("   ")
	next(t, ch)
	if calls := f.Calls(); len(calls) != 1 || calls[0] != "all" {
		t.Errorf("calls = %v, want [all]", calls)
	}
}

func TestSetType_SupersedesPendingQuery(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFake()
	ch, sink := collect()
	c := search.New(f, sink, search.WithDebounce(quiet))
	defer c.Close()

	c.OnQueryChange("Pride")
	c.SetType(api.SearchAuthor)

	r := next(t, ch)
	if r.Type != api.SearchAuthor {
		t.Errorf("result type = %s, want author", r.Type)
	}
	if c.Text() != "" {
		t.Errorf("text = %q, want cleared", c.Text())
	}
	expectNone(t, ch, 3*quiet)
	for _, call := range f.Calls() {
		if call == "title:Pride" {
			t.Fatal("superseded title query was issued")
		}
	}

	c.OnQueryChange("Austen")
	r = next(t, ch)
	if r.Query != "Austen" || r.Type != api.SearchAuthor {
		t.Errorf("result = %q/%s, want Austen/author", r.Query, r.Type)
	}
}

func TestStaleResponseIsDropped(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFake()
	f.hold("title:old")
	f.hold("title:new")
	ch, sink := collect()
	c := search.New(f, sink, search.WithDebounce(quiet))
	defer c.Close()

	c.OnQueryChange("old")
	waitCalls(t, f, 1)
	c.OnQueryChange("new")
	waitCalls(t, f, 2)

	// Newer request completes first; the older one must never surface.
	f.release("title:new")
	r := next(t, ch)
	if r.Query != "new" {
		t.Fatalf("first result = %q, want new", r.Query)
	}
	f.release("title:old")
	expectNone(t, ch, 3*quiet)
}

func TestFailure_EmptyCollectionAndMessage(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFake()
	f.err = &api.StatusError{Code: 503}
	ch, sink := collect()
	c := search.New(f, sink, search.WithDebounce(quiet))
	defer c.Close()

	c.Reload()
	r := next(t, ch)
	if r.Err == nil || r.Message == "" {
		t.Errorf("expected error and message, got err=%v msg=%q", r.Err, r.Message)
	}
	if r.Books == nil || len(r.Books) != 0 {
		t.Errorf("Books = %#v, want empty", r.Books)
	}
	expectNone(t, ch, 3*quiet)
	if n := len(f.Calls()); n != 1 {
		t.Errorf("reads were retried: %d calls", n)
	}
}

func TestClose_DropsPendingWork(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFake()
	f.hold("title:slow")
	ch, sink := collect()
	c := search.New(f, sink, search.WithDebounce(quiet))

	c.OnQueryChange("slow")
	waitCalls(t, f, 1)
	c.OnQueryChange("never")
	c.Close()

	expectNone(t, ch, 3*quiet)
	if calls := f.Calls(); len(calls) != 1 {
		t.Errorf("calls after close = %v", calls)
	}
	if seq := c.Reload(); seq != 0 {
		t.Errorf("Reload after Close issued seq %d", seq)
	}
}

func TestSequenceIsMonotonic(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFake()
	ch, sink := collect()
	c := search.New(f, sink)
	defer c.Close()

	a := c.Reload()
	next(t, ch)
	b := c.SetType(api.SearchISBN)
	next(t, ch)
	if b <= a {
		t.Errorf("seq did not increase: %d then %d", a, b)
	}
}

func TestFailureMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{api.ErrUnauthorized, "Your session has expired. Please log in again."},
		{&api.NetworkError{Op: "GET /books", Err: errors.New("reset")}, "Could not reach the server. Check your connection and try again."},
	}
	for _, c := range cases {
		if got := search.FailureMessage(c.err); got != c.want {
			t.Errorf("FailureMessage(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func waitCalls(t *testing.T, f *fakeFetcher, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for len(f.Calls()) < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d calls, have %v", n, f.Calls())
		}
		time.Sleep(time.Millisecond)
	}
}
