package layout

import "testing"

func TestEncodeDecodeBookRoundTrip(t *testing.T) {
	b := &Book{
		Code:          42,
		Title:         "The Go Programming Language",
		Author:        "Donovan & Kernighan",
		Publisher:     "Addison-Wesley",
		Edition:       1,
		Year:          2015,
		Price:         39.99,
		StockQuantity: 7,
	}

	buf, err := EncodeBook(b)
	if err != nil {
		t.Fatalf("EncodeBook: %v", err)
	}
	if len(buf) != BookRecordSize {
		t.Fatalf("expected %d bytes, got %d", BookRecordSize, len(buf))
	}

	got, err := DecodeBook(buf)
	if err != nil {
		t.Fatalf("DecodeBook: %v", err)
	}
	if *got != *b {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, b)
	}
}

func TestEncodeBookZeroFillsPadding(t *testing.T) {
	short := &Book{Code: 1, Title: "x", Author: "y", Publisher: "z"}
	buf, err := EncodeBook(short)
	if err != nil {
		t.Fatalf("EncodeBook: %v", err)
	}
	// Byte right after the title's terminating null must be zero, not
	// leftover garbage, so repeated encodes of shorter strings stay
	// byte-reproducible.
	if buf[4+2] != 0 {
		t.Fatalf("expected zero padding after title null terminator")
	}
}

func TestEncodeBookRejectsOversizeField(t *testing.T) {
	oversized := make([]byte, TitleFieldSize)
	b := &Book{Code: 1, Title: string(oversized)}
	if _, err := EncodeBook(b); err == nil {
		t.Fatal("expected error for title that does not fit with its null terminator")
	}
}

func TestEncodeFreeBookAndDecodeFreeBookLink(t *testing.T) {
	buf := EncodeFreeBook(128)
	got, err := DecodeBook(buf)
	if err != nil {
		t.Fatalf("DecodeBook: %v", err)
	}
	if !got.IsTombstone() {
		t.Fatal("expected tombstoned record")
	}
	if link := DecodeFreeBookLink(buf); link != 128 {
		t.Fatalf("expected free link 128, got %d", link)
	}
}
