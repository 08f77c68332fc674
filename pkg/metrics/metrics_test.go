package metrics

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewReturnsIndependentRegistries(t *testing.T) {
	m1 := New()
	m2 := New()
	m1.BooksAdded.Inc()

	var buf1, buf2 bytes.Buffer
	if err := m1.WriteText(&buf1); err != nil {
		t.Fatalf("WriteText m1: %v", err)
	}
	if err := m2.WriteText(&buf2); err != nil {
		t.Fatalf("WriteText m2: %v", err)
	}

	if !strings.Contains(buf1.String(), "libris_books_added_total 1") {
		t.Fatalf("expected m1 to show 1 book added, got:\n%s", buf1.String())
	}
	if strings.Contains(buf2.String(), "libris_books_added_total 1") {
		t.Fatalf("expected m2 to be unaffected by m1, got:\n%s", buf2.String())
	}
}

func TestWriteTextIncludesAllCounters(t *testing.T) {
	m := New()
	m.BooksAdded.Inc()
	m.BooksRemoved.Inc()
	m.Lookups.Inc()
	m.Splits.Inc()
	m.Merges.Inc()
	m.Redistributions.Inc()
	m.FreeListReuses.Inc()

	var buf bytes.Buffer
	if err := m.WriteText(&buf); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	out := buf.String()
	for _, name := range []string{
		"libris_books_added_total",
		"libris_books_removed_total",
		"libris_lookups_total",
		"libris_tree_splits_total",
		"libris_tree_merges_total",
		"libris_tree_redistributions_total",
		"libris_free_list_reuses_total",
	} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected output to contain %s, got:\n%s", name, out)
		}
	}
}
