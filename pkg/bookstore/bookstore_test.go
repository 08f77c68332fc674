package bookstore

import (
	"path/filepath"
	"testing"

	"github.com/vramos/libris/pkg/bookerr"
	"github.com/vramos/libris/pkg/layout"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(Config{
		DataPath:  filepath.Join(dir, "books.dat"),
		IndexPath: filepath.Join(dir, "books.idx"),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func book(code int32, title, author string, stock int32) *layout.Book {
	return &layout.Book{
		Code:          code,
		Title:         title,
		Author:        author,
		Publisher:     "Ace Books",
		Edition:       1,
		Year:          1965,
		Price:         5.95,
		StockQuantity: stock,
	}
}

func TestAddThenLookup(t *testing.T) {
	s := openTemp(t)
	want := book(100, "Dune", "Frank Herbert", 4)
	if err := s.Add(want); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, err := s.Lookup(100)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if *got != *want {
		t.Fatalf("Lookup mismatch: got %+v, want %+v", got, want)
	}
}

func TestAddDuplicateRejected(t *testing.T) {
	s := openTemp(t)
	if err := s.Add(book(100, "Dune", "Frank Herbert", 4)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	err := s.Add(book(100, "Dune Messiah", "Frank Herbert", 2))
	if !bookerr.IsDuplicateKey(err) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

func TestLookupMissingReturnsNotFound(t *testing.T) {
	s := openTemp(t)
	_, err := s.Lookup(404)
	if !bookerr.IsNotFound(err) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestRemoveThenLookupFails(t *testing.T) {
	s := openTemp(t)
	if err := s.Add(book(100, "Dune", "Frank Herbert", 4)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Remove(100); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	_, err := s.Lookup(100)
	if !bookerr.IsNotFound(err) {
		t.Fatalf("expected not found error after remove, got %v", err)
	}
}

func TestRemoveMissingReturnsNotFound(t *testing.T) {
	s := openTemp(t)
	err := s.Remove(404)
	if !bookerr.IsNotFound(err) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestTotalStockSumsLiveBooksOnly(t *testing.T) {
	s := openTemp(t)
	if err := s.Add(book(1, "A", "Author A", 3)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(book(2, "B", "Author B", 5)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(book(3, "C", "Author C", 7)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Remove(2); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	total, err := s.TotalStock()
	if err != nil {
		t.Fatalf("TotalStock: %v", err)
	}
	if total != 10 {
		t.Fatalf("expected total stock 10, got %d", total)
	}
}

func TestCountBooksReflectsKeyCount(t *testing.T) {
	s := openTemp(t)
	for i := int32(1); i <= 5; i++ {
		if err := s.Add(book(i, "Title", "Author", 1)); err != nil {
			t.Fatalf("Add(%d): %v", i, err)
		}
	}
	if err := s.Remove(3); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	count, err := s.CountBooks()
	if err != nil {
		t.Fatalf("CountBooks: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 books, got %d", count)
	}
}

func TestSearchAuthorIsCaseInsensitiveSubstring(t *testing.T) {
	s := openTemp(t)
	if err := s.Add(book(1, "Dune", "Frank Herbert", 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(book(2, "Foundation", "Isaac Asimov", 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	results, err := s.SearchAuthor("herbert")
	if err != nil {
		t.Fatalf("SearchAuthor: %v", err)
	}
	if len(results) != 1 || results[0].Code != 1 {
		t.Fatalf("expected one match for code 1, got %+v", results)
	}
}

func TestSearchTitleIsCaseInsensitiveSubstring(t *testing.T) {
	s := openTemp(t)
	if err := s.Add(book(1, "Dune", "Frank Herbert", 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(book(2, "Dune Messiah", "Frank Herbert", 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	results, err := s.SearchTitle("messiah")
	if err != nil {
		t.Fatalf("SearchTitle: %v", err)
	}
	if len(results) != 1 || results[0].Code != 2 {
		t.Fatalf("expected one match for code 2, got %+v", results)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		DataPath:  filepath.Join(dir, "books.dat"),
		IndexPath: filepath.Join(dir, "books.idx"),
	}
	s, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Add(book(100, "Dune", "Frank Herbert", 4)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Lookup(100)
	if err != nil {
		t.Fatalf("Lookup after reopen: %v", err)
	}
	if got.Title != "Dune" {
		t.Fatalf("expected Dune after reopen, got %q", got.Title)
	}
}
