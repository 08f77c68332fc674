package datafile

import (
	"path/filepath"
	"testing"

	"github.com/vramos/libris/pkg/layout"
)

func openTemp(t *testing.T) *DataFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.dat")
	df, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { df.Close() })
	return df
}

func sampleBook(code int32) *layout.Book {
	return &layout.Book{
		Code:          code,
		Title:         "Dune",
		Author:        "Frank Herbert",
		Publisher:     "Chilton",
		Edition:       1,
		Year:          1965,
		Price:         5.95,
		StockQuantity: 3,
	}
}

func TestAllocateWriteReadRoundTrip(t *testing.T) {
	df := openTemp(t)
	off, err := df.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	want := sampleBook(1)
	if err := df.WriteBook(off, want); err != nil {
		t.Fatalf("WriteBook: %v", err)
	}
	got, err := df.ReadBook(off)
	if err != nil {
		t.Fatalf("ReadBook: %v", err)
	}
	if *got != *want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestReleaseThenAllocateReusesSlot(t *testing.T) {
	df := openTemp(t)
	off1, err := df.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := df.WriteBook(off1, sampleBook(1)); err != nil {
		t.Fatalf("WriteBook: %v", err)
	}
	if err := df.Release(off1); err != nil {
		t.Fatalf("Release: %v", err)
	}
	off2, err := df.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if off2 != off1 {
		t.Fatalf("expected reused offset %d, got %d", off1, off2)
	}
}

func TestScanSkipsTombstones(t *testing.T) {
	df := openTemp(t)
	off1, _ := df.Allocate()
	df.WriteBook(off1, sampleBook(1))
	off2, _ := df.Allocate()
	df.WriteBook(off2, sampleBook(2))
	off3, _ := df.Allocate()
	df.WriteBook(off3, sampleBook(3))

	if err := df.Release(off2); err != nil {
		t.Fatalf("Release: %v", err)
	}

	var seen []int32
	err := df.Scan(func(offset int32, b *layout.Book) bool {
		seen = append(seen, b.Code)
		return true
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 3 {
		t.Fatalf("expected codes [1 3], got %v", seen)
	}
}

func TestScanCanStopEarly(t *testing.T) {
	df := openTemp(t)
	for i := int32(1); i <= 5; i++ {
		off, _ := df.Allocate()
		df.WriteBook(off, sampleBook(i))
	}
	count := 0
	err := df.Scan(func(offset int32, b *layout.Book) bool {
		count++
		return count < 2
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected scan to stop after 2, got %d", count)
	}
}

func TestHeaderSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.dat")
	df, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	off, err := df.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := df.WriteBook(off, sampleBook(7)); err != nil {
		t.Fatalf("WriteBook: %v", err)
	}
	if err := df.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	b, err := reopened.ReadBook(off)
	if err != nil {
		t.Fatalf("ReadBook after reopen: %v", err)
	}
	if b.Code != 7 {
		t.Fatalf("expected code 7 after reopen, got %d", b.Code)
	}
}
