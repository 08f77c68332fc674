// Package layout implements the fixed-width, byte-exact on-disk encodings
// for book records and tree nodes described in spec.md §3. Both codecs are
// pure serializers: they do not validate domain invariants, only shape.
package layout

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Field widths, in bytes, matching spec.md §3 exactly.
const (
	TitleFieldSize     = 151
	AuthorFieldSize    = 201
	PublisherFieldSize = 51

	// BookRecordSize is the total size of one Book slot on disk:
	// code(4) + title(151) + author(201) + publisher(51) + edition(4) +
	// year(4) + price(8) + stock_quantity(4).
	BookRecordSize = 4 + TitleFieldSize + AuthorFieldSize + PublisherFieldSize + 4 + 4 + 8 + 4

	// DeletedCode is the sentinel written into Code on a tombstoned or
	// free-listed slot.
	DeletedCode = -1

	// freeLinkOffset is where a released slot's next-free pointer lives,
	// overlapping the start of the title field. Safe because a slot's
	// string fields carry no meaning once Code == DeletedCode.
	freeLinkOffset = 4
)

// Book is the in-memory representation of one record.
type Book struct {
	Code          int32
	Title         string
	Author        string
	Publisher     string
	Edition       int32
	Year          int32
	Price         float64
	StockQuantity int32
}

// IsTombstone reports whether b represents a deleted slot.
func (b *Book) IsTombstone() bool { return b.Code == DeletedCode }

// EncodeBook serializes b into a BookRecordSize-byte buffer with
// null-terminated, zero-padded fixed-width string fields.
func EncodeBook(b *Book) ([]byte, error) {
	buf := make([]byte, BookRecordSize)
	off := 0

	binary.LittleEndian.PutUint32(buf[off:], uint32(b.Code))
	off += 4

	if err := putFixedString(buf[off:off+TitleFieldSize], b.Title); err != nil {
		return nil, fmt.Errorf("layout: title: %w", err)
	}
	off += TitleFieldSize

	if err := putFixedString(buf[off:off+AuthorFieldSize], b.Author); err != nil {
		return nil, fmt.Errorf("layout: author: %w", err)
	}
	off += AuthorFieldSize

	if err := putFixedString(buf[off:off+PublisherFieldSize], b.Publisher); err != nil {
		return nil, fmt.Errorf("layout: publisher: %w", err)
	}
	off += PublisherFieldSize

	binary.LittleEndian.PutUint32(buf[off:], uint32(b.Edition))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(b.Year))
	off += 4
	binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(b.Price))
	off += 8
	binary.LittleEndian.PutUint32(buf[off:], uint32(b.StockQuantity))

	return buf, nil
}

// DecodeBook parses a BookRecordSize-byte buffer produced by EncodeBook.
func DecodeBook(buf []byte) (*Book, error) {
	if len(buf) != BookRecordSize {
		return nil, fmt.Errorf("layout: decode book: expected %d bytes, got %d", BookRecordSize, len(buf))
	}

	b := &Book{}
	off := 0

	b.Code = int32(binary.LittleEndian.Uint32(buf[off:]))
	off += 4

	b.Title = getFixedString(buf[off : off+TitleFieldSize])
	off += TitleFieldSize

	b.Author = getFixedString(buf[off : off+AuthorFieldSize])
	off += AuthorFieldSize

	b.Publisher = getFixedString(buf[off : off+PublisherFieldSize])
	off += PublisherFieldSize

	b.Edition = int32(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	b.Year = int32(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	b.Price = math.Float64frombits(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	b.StockQuantity = int32(binary.LittleEndian.Uint32(buf[off:]))

	return b, nil
}

// EncodeFreeBook writes a tombstoned slot: Code = DeletedCode followed by
// the free-list's next-pointer at freeLinkOffset. The remainder of the
// slot is zero-filled; its contents are indeterminate per spec.md §3.
func EncodeFreeBook(next int32) []byte {
	buf := make([]byte, BookRecordSize)
	deleted := int32(DeletedCode)
	binary.LittleEndian.PutUint32(buf[0:], uint32(deleted))
	binary.LittleEndian.PutUint32(buf[freeLinkOffset:], uint32(next))
	return buf
}

// DecodeFreeBookLink reads the next-free pointer out of a slot already
// known to be tombstoned (Code == DeletedCode).
func DecodeFreeBookLink(buf []byte) int32 {
	return int32(binary.LittleEndian.Uint32(buf[freeLinkOffset:]))
}

func putFixedString(dst []byte, s string) error {
	for i := range dst {
		dst[i] = 0
	}
	b := []byte(s)
	if len(b) > len(dst)-1 {
		return fmt.Errorf("string of %d bytes does not fit in %d-byte field", len(b), len(dst))
	}
	copy(dst, b)
	dst[len(b)] = 0
	return nil
}

func getFixedString(src []byte) string {
	n := 0
	for n < len(src) && src[n] != 0 {
		n++
	}
	return string(src[:n])
}
