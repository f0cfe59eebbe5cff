package pager_test

import (
	"testing"

	"github.com/blackwell-systems/shelfview/internal/catalog"
	"github.com/blackwell-systems/shelfview/internal/pager"
	"github.com/google/go-cmp/cmp"
)

func ints(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func ident(i int) int { return i }

// --- GetPage / HasMore ---

func TestGetPage(t *testing.T) {
	seq := ints(40)
	cases := []struct {
		page, size int
		want       []int
	}{
		{1, 18, ints(18)},
		{3, 18, []int{37, 38, 39, 40}},
		{4, 18, []int{}},
		{0, 18, []int{}},
		{1, 0, []int{}},
	}
	for _, c := range cases {
		if diff := cmp.Diff(c.want, pager.GetPage(seq, c.page, c.size)); diff != "" {
			t.Errorf("GetPage(page=%d, size=%d) mismatch (-want +got):\n%s", c.page, c.size, diff)
		}
	}
}

func TestGetPage_Idempotent(t *testing.T) {
	seq := ints(25)
	a := pager.GetPage(seq, 2, 18)
	b := pager.GetPage(seq, 2, 18)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("repeated GetPage differs:\n%s", diff)
	}
	a[0] = -1
	if seq[18] != 19 {
		t.Error("GetPage result aliases the input sequence")
	}
}

func TestHasMore(t *testing.T) {
	cases := []struct {
		n, page int
		want    bool
	}{
		{0, 1, false},
		{18, 1, false},
		{19, 1, true},
		{36, 2, false},
		{37, 2, true},
	}
	for _, c := range cases {
		if got := pager.HasMore(c.n, c.page, 18); got != c.want {
			t.Errorf("HasMore(%d, %d) = %v, want %v", c.n, c.page, got, c.want)
		}
	}
}

// --- Window ---

func TestWindow_LoadNextAppends(t *testing.T) {
	w := pager.NewWindow(18, ident)
	w.Reset(ints(40))

	if got := len(w.Displayed()); got != 18 {
		t.Fatalf("page 1 length = %d, want 18", got)
	}
	first := w.Displayed()

	for w.LoadNext() {
	}
	got := w.Displayed()
	if diff := cmp.Diff(ints(40), got); diff != "" {
		t.Errorf("displayed after exhausting pages (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(first, got[:18]); diff != "" {
		t.Errorf("page 1 was replaced rather than appended to:\n%s", diff)
	}
	if w.Page() != 3 {
		t.Errorf("Page() = %d, want 3", w.Page())
	}
	if w.LoadNext() {
		t.Error("LoadNext returned true with nothing left")
	}
}

func TestWindow_HasMoreFalseExactlyWhenAllDisplayed(t *testing.T) {
	for _, n := range []int{0, 1, 17, 18, 19, 36, 37, 100} {
		w := pager.NewWindow(18, ident)
		w.Reset(ints(n))
		for {
			full := len(w.Displayed()) == w.Total()
			if w.HasMore() == full {
				t.Fatalf("n=%d page=%d: HasMore=%v with %d/%d displayed", n, w.Page(), w.HasMore(), len(w.Displayed()), n)
			}
			if !w.LoadNext() {
				break
			}
		}
	}
}

func TestWindow_InFlightGuard(t *testing.T) {
	w := pager.NewWindow(18, ident)
	w.Reset(ints(60))

	tk, ok := w.BeginLoad()
	if !ok {
		t.Fatal("BeginLoad refused with pages remaining")
	}
	if _, again := w.BeginLoad(); again {
		t.Error("second BeginLoad accepted while a load is in flight")
	}
	if w.LoadNext() {
		t.Error("LoadNext ran while a load is in flight")
	}
	if !w.CommitLoad(tk) {
		t.Fatal("CommitLoad rejected a current ticket")
	}
	if got := len(w.Displayed()); got != 36 {
		t.Errorf("displayed = %d, want 36", got)
	}
	if w.CommitLoad(tk) {
		t.Error("a ticket committed twice")
	}
}

func TestWindow_ResetWinsOverInFlightLoad(t *testing.T) {
	w := pager.NewWindow(18, ident)
	w.Reset(ints(60))
	tk, _ := w.BeginLoad()

	w.Reset(ints(20))
	if w.CommitLoad(tk) {
		t.Error("stale ticket committed after reset")
	}
	if w.Page() != 1 || len(w.Displayed()) != 18 {
		t.Errorf("after reset page=%d len=%d, want 1/18", w.Page(), len(w.Displayed()))
	}
	if w.Loading() {
		t.Error("reset left a load in flight")
	}
	w.AbortLoad(tk)
	if !w.LoadNext() {
		t.Error("LoadNext refused after reset")
	}
}

func TestWindow_OnVisible(t *testing.T) {
	w := pager.NewWindow(18, ident)
	w.Reset(ints(40))

	if w.OnVisible(5) {
		t.Error("non-sentinel item triggered a load")
	}
	s, ok := w.Sentinel()
	if !ok || s != 18 {
		t.Fatalf("Sentinel() = %d, %v, want 18, true", s, ok)
	}
	// The trigger may fire repeatedly for the same item.
	fired := 0
	for i := 0; i < 5; i++ {
		if w.OnVisible(18) {
			fired++
		}
	}
	if fired != 1 {
		t.Errorf("load fired %d times for one sentinel, want 1", fired)
	}
	if s, _ := w.Sentinel(); s != 36 {
		t.Errorf("sentinel after load = %d, want 36", s)
	}
}

func TestWindow_EmptySentinel(t *testing.T) {
	w := pager.NewWindow(18, ident)
	w.Reset(nil)
	if _, ok := w.Sentinel(); ok {
		t.Error("empty window reported a sentinel")
	}
	if w.HasMore() {
		t.Error("empty window reports more")
	}
}

// --- Catalog integration ---

func bookKey(b catalog.Book) int64 { return b.ID }

func twentyBooks() []catalog.Book {
	books := make([]catalog.Book, 20)
	for i := range books {
		cat := "A"
		if i >= 15 {
			cat = "B"
		}
		books[i] = catalog.Book{ID: int64(i + 1), Title: "Book", Price: catalog.Price(0), Categories: []string{cat}}
	}
	return books
}

func TestWindow_ResetMatchesEvaluateFirstPage(t *testing.T) {
	books := twentyBooks()
	w := pager.NewWindow(pager.DefaultPageSize, bookKey)
	w.Reset(catalog.Evaluate(books, catalog.DefaultCriteria(books)))
	w.LoadNext()

	c := catalog.DefaultCriteria(books)
	c.Sort = catalog.SortTitleAsc
	filtered := catalog.Evaluate(books, c)
	w.Reset(filtered)

	if w.Page() != 1 {
		t.Errorf("Page() = %d, want 1", w.Page())
	}
	if diff := cmp.Diff(filtered[:pager.DefaultPageSize], w.Displayed()); diff != "" {
		t.Errorf("displayed != evaluate()[:18] (-want +got):\n%s", diff)
	}
}

func TestWindow_CategoryBScenario(t *testing.T) {
	books := twentyBooks()
	c := catalog.DefaultCriteria(books).WithCategory("B")
	w := pager.NewWindow(pager.DefaultPageSize, bookKey)
	w.Reset(catalog.Evaluate(books, c))

	if got := len(w.Displayed()); got != 5 {
		t.Errorf("displayed = %d, want 5", got)
	}
	if w.HasMore() {
		t.Error("HasMore() = true, want false")
	}
}

func TestWindow_RefreshKeepsPage(t *testing.T) {
	w := pager.NewWindow(18, ident)
	w.Reset(ints(40))
	w.LoadNext()
	gen := w.Generation()

	w.Refresh(ints(30))
	if w.Page() != 2 || len(w.Displayed()) != 30 {
		t.Errorf("after refresh page=%d len=%d, want 2/30", w.Page(), len(w.Displayed()))
	}
	if w.Generation() != gen {
		t.Error("Refresh bumped the generation")
	}
	if w.HasMore() {
		t.Error("HasMore() = true with every item displayed")
	}
}
