package listview

import (
	"cmp"
	"context"
	"errors"
	"strconv"
	"testing"
)

type item struct {
	id    string
	price float64
	state string
}

func staticFetch(items ...item) Fetcher[item] {
	return func(context.Context) ([]item, error) {
		return append([]item(nil), items...), nil
	}
}

func keyOf(it item) string { return it.id }

func numbered(n int) []item {
	out := make([]item, n)
	for i := range out {
		out[i] = item{id: strconv.Itoa(i + 1), price: float64(i + 1)}
	}
	return out
}

func ids(items []item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.id
	}
	return out
}

func TestPaging(t *testing.T) {
	l := New("products", staticFetch(numbered(13)...), keyOf, 6, nil)
	if err := l.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := l.PageCount(); got != 3 {
		t.Fatalf("expected 3 pages for 13 items, got %d", got)
	}
	if got := ids(l.Page(3)); len(got) != 1 || got[0] != "13" {
		t.Fatalf("page 3 should hold item 13 only, got %v", got)
	}
	if got := ids(l.Page(2)); len(got) != 6 || got[0] != "7" || got[5] != "12" {
		t.Fatalf("page 2 should hold items 7-12, got %v", got)
	}
	if got := l.Page(4); len(got) != 0 {
		t.Fatalf("page past the end should be empty, got %v", got)
	}
}

func TestZeroPageSizeIsSinglePage(t *testing.T) {
	l := New("team", staticFetch(numbered(9)...), keyOf, 0, nil)
	_ = l.Refresh(context.Background())

	if l.PageCount() != 1 || len(l.Page(1)) != 9 {
		t.Fatalf("expected a single page of 9, got %d pages", l.PageCount())
	}
}

func TestSortByPrice(t *testing.T) {
	l := New("products", staticFetch(item{id: "a", price: 30}, item{id: "b", price: 10}, item{id: "c", price: 20}), keyOf, 6, nil)
	_ = l.Refresh(context.Background())

	l.Sort(func(a, b item) int { return cmp.Compare(a.price, b.price) })
	asc := ids(l.Items())
	l.Sort(func(a, b item) int { return cmp.Compare(b.price, a.price) })
	desc := ids(l.Items())

	if asc[0] != "b" || asc[2] != "a" {
		t.Fatalf("unexpected ascending order %v", asc)
	}
	for i := range asc {
		if asc[i] != desc[len(desc)-1-i] {
			t.Fatalf("descending %v is not the reverse of ascending %v", desc, asc)
		}
	}
}

func TestFilterDoesNotResetPaging(t *testing.T) {
	items := numbered(12)
	for i := range items {
		if i%2 == 0 {
			items[i].state = "Pending"
		}
	}
	l := New("orders", staticFetch(items...), keyOf, 3, nil)
	_ = l.Refresh(context.Background())

	l.Filter(func(it item) bool { return it.state == "Pending" })
	if got := l.PageCount(); got != 2 {
		t.Fatalf("expected 2 pages of pending orders, got %d", got)
	}
	if got := ids(l.Page(2)); len(got) != 3 || got[0] != "7" {
		t.Fatalf("unexpected second page %v", got)
	}

	l.Filter(nil)
	if got := l.PageCount(); got != 4 {
		t.Fatalf("clearing the filter should show all pages, got %d", got)
	}
}

func TestRefreshFailureKeepsPriorItems(t *testing.T) {
	fail := false
	fetch := func(context.Context) ([]item, error) {
		if fail {
			return nil, errors.New("backend down")
		}
		return numbered(4), nil
	}
	l := New("users", fetch, keyOf, 0, nil)
	if err := l.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	fail = true
	if err := l.Bump(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}
	if got := len(l.Items()); got != 4 {
		t.Fatalf("prior items should be kept, got %d", got)
	}
	if l.Refreshes() != 1 {
		t.Fatalf("bump should count even when the fetch fails")
	}
}

func TestApplyConfirms(t *testing.T) {
	l := New("orders", staticFetch(item{id: "o1", state: "Pending"}), keyOf, 6, nil)
	_ = l.Refresh(context.Background())

	var seen UpdateState
	err := l.Apply(context.Background(), "o1",
		func(it *item) { it.state = "Delivered" },
		func(context.Context) error {
			seen = l.StateOf("o1")
			if it, _ := l.Find("o1"); it.state != "Delivered" {
				t.Errorf("tentative value not visible during commit")
			}
			return nil
		})
	if err != nil {
		t.Fatal(err)
	}
	if seen != Pending {
		t.Fatalf("expected pending during commit, got %v", seen)
	}
	if st := l.StateOf("o1"); st != Confirmed {
		t.Fatalf("expected confirmed, got %v", st)
	}
	if it, _ := l.Find("o1"); it.state != "Delivered" {
		t.Fatalf("confirmed value lost: %+v", it)
	}
}

func TestApplyRevertsOnFailure(t *testing.T) {
	l := New("orders", staticFetch(item{id: "o1", state: "Pending"}), keyOf, 6, nil)
	_ = l.Refresh(context.Background())

	commitErr := errors.New("rejected")
	err := l.Apply(context.Background(), "o1",
		func(it *item) { it.state = "Cancelled" },
		func(context.Context) error { return commitErr })
	if !errors.Is(err, commitErr) {
		t.Fatalf("expected commit error, got %v", err)
	}
	if st := l.StateOf("o1"); st != Failed {
		t.Fatalf("expected failed, got %v", st)
	}
	if it, _ := l.Find("o1"); it.state != "Pending" {
		t.Fatalf("value should be reverted, got %+v", it)
	}

	_ = l.Refresh(context.Background())
	if st := l.StateOf("o1"); st != Idle {
		t.Fatalf("refresh should clear update states, got %v", st)
	}
}

func TestApplyUnknownKey(t *testing.T) {
	l := New("orders", staticFetch(), keyOf, 6, nil)
	_ = l.Refresh(context.Background())

	called := false
	err := l.Apply(context.Background(), "nope", func(*item) {}, func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrNotFound) || called {
		t.Fatalf("expected ErrNotFound without commit, got %v (called=%v)", err, called)
	}
}
