package importer

import (
	"strings"
	"testing"
)

func TestReadAllParsesWellFormedLines(t *testing.T) {
	input := "1;Dune;Frank Herbert;Ace Books;1;1965;5,95;3\n" +
		"2;Foundation;Isaac Asimov;Gnome Press;1;1951;4,50;7\n"

	res, err := ReadAll(strings.NewReader(input), Options{DecimalComma: true})
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(res.Books) != 2 {
		t.Fatalf("expected 2 books, got %d", len(res.Books))
	}
	if res.Books[0].Code != 1 || res.Books[0].Title != "Dune" || res.Books[0].Price != 5.95 {
		t.Fatalf("unexpected first book: %+v", res.Books[0])
	}
	if res.Books[1].Code != 2 || res.Books[1].Price != 4.50 {
		t.Fatalf("unexpected second book: %+v", res.Books[1])
	}
	if len(res.Skipped) != 0 {
		t.Fatalf("expected no skipped lines, got %v", res.Skipped)
	}
}

func TestReadAllSkipsBlankLines(t *testing.T) {
	input := "\n1;Dune;Frank Herbert;Ace Books;1;1965;5.95;3\n\n"
	res, err := ReadAll(strings.NewReader(input), Options{})
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(res.Books) != 1 {
		t.Fatalf("expected 1 book, got %d", len(res.Books))
	}
}

func TestReadAllCollectsMalformedLinesByDefault(t *testing.T) {
	input := "1;Dune;Frank Herbert;Ace Books;1;1965;5.95;3\n" +
		"not-enough-fields\n" +
		"2;Foundation;Isaac Asimov;Gnome Press;1;1951;4.50;7\n"

	res, err := ReadAll(strings.NewReader(input), Options{})
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(res.Books) != 2 {
		t.Fatalf("expected 2 books, got %d", len(res.Books))
	}
	if len(res.Skipped) != 1 {
		t.Fatalf("expected 1 skipped line, got %d", len(res.Skipped))
	}
	if res.Skipped[0].Line != 2 {
		t.Fatalf("expected skipped line number 2, got %d", res.Skipped[0].Line)
	}
}

func TestReadAllStopsOnErrorWhenConfigured(t *testing.T) {
	input := "1;Dune;Frank Herbert;Ace Books;1;1965;5.95;3\n" +
		"not-enough-fields\n" +
		"2;Foundation;Isaac Asimov;Gnome Press;1;1951;4.50;7\n"

	res, err := ReadAll(strings.NewReader(input), Options{StopOnError: true})
	if err == nil {
		t.Fatal("expected error")
	}
	lerr, ok := err.(*LineError)
	if !ok {
		t.Fatalf("expected *LineError, got %T", err)
	}
	if lerr.Line != 2 {
		t.Fatalf("expected error at line 2, got %d", lerr.Line)
	}
	if len(res.Books) != 1 {
		t.Fatalf("expected 1 book parsed before the error, got %d", len(res.Books))
	}
}

func TestReadAllCustomDelimiter(t *testing.T) {
	input := "1|Dune|Frank Herbert|Ace Books|1|1965|5.95|3\n"
	res, err := ReadAll(strings.NewReader(input), Options{Delimiter: "|"})
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(res.Books) != 1 {
		t.Fatalf("expected 1 book, got %d", len(res.Books))
	}
}
