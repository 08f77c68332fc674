// Package datafile persists Book records to a single file: a fixed
// header holding free-list bookkeeping, followed by fixed BookRecordSize
// slots addressed by byte offset. It plays the role the teacher's
// LogWriter/LogReader pair plays for the append-only KV log, adapted to
// random-access fixed-slot storage with in-place tombstoning and reuse
// instead of append-only growth.
package datafile

import (
	"encoding/binary"
	"os"
	"sync"

	"github.com/vramos/libris/pkg/bookerr"
	"github.com/vramos/libris/pkg/layout"
	"github.com/vramos/libris/pkg/pagefile"
)

// headerSize is two int32 fields: firstEmptyPosition, headEmptyPosition.
const headerSize = 2 * 4

// DataFile is the on-disk backing store for Book records.
type DataFile struct {
	mu   sync.Mutex
	file *os.File
	free pagefile.FreeList
}

// Open creates path if it does not exist, or loads its header if it does.
func Open(path string) (*DataFile, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, bookerr.IoError("open data file", err)
	}

	df := &DataFile{file: file}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, bookerr.IoError("stat data file", err)
	}

	if stat.Size() < headerSize {
		df.free = pagefile.FreeList{FirstEmptyPosition: headerSize, HeadEmptyPosition: layout.Absent}
		if err := df.writeHeader(); err != nil {
			file.Close()
			return nil, err
		}
		return df, nil
	}

	if err := df.readHeader(); err != nil {
		file.Close()
		return nil, err
	}
	return df, nil
}

// OnSlotReuse registers fn to be called each time Allocate serves a
// slot from the free list instead of extending the file.
func (df *DataFile) OnSlotReuse(fn func()) {
	df.mu.Lock()
	defer df.mu.Unlock()
	df.free.OnReuse = fn
}

// Close flushes the header and closes the underlying file.
func (df *DataFile) Close() error {
	df.mu.Lock()
	defer df.mu.Unlock()
	if err := df.writeHeader(); err != nil {
		df.file.Close()
		return err
	}
	return bookerr.IoError("close data file", df.file.Close())
}

func (df *DataFile) readHeader() error {
	buf := make([]byte, headerSize)
	if _, err := df.file.ReadAt(buf, 0); err != nil {
		return bookerr.IoError("read data header", err)
	}
	df.free.FirstEmptyPosition = int32(binary.LittleEndian.Uint32(buf[0:4]))
	df.free.HeadEmptyPosition = int32(binary.LittleEndian.Uint32(buf[4:8]))
	return nil
}

func (df *DataFile) writeHeader() error {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(df.free.FirstEmptyPosition))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(df.free.HeadEmptyPosition))
	_, err := df.file.WriteAt(buf, 0)
	return bookerr.IoError("write data header", err)
}

// ReadBook reads the book record at offset.
func (df *DataFile) ReadBook(offset int32) (*layout.Book, error) {
	df.mu.Lock()
	defer df.mu.Unlock()
	return df.readBookLocked(offset)
}

func (df *DataFile) readBookLocked(offset int32) (*layout.Book, error) {
	buf := make([]byte, layout.BookRecordSize)
	if _, err := df.file.ReadAt(buf, int64(offset)); err != nil {
		return nil, bookerr.IoError("read book", err)
	}
	b, err := layout.DecodeBook(buf)
	if err != nil {
		return nil, bookerr.CorruptIndex(offset, err.Error())
	}
	return b, nil
}

// WriteBook writes b at offset.
func (df *DataFile) WriteBook(offset int32, b *layout.Book) error {
	df.mu.Lock()
	defer df.mu.Unlock()
	buf, err := layout.EncodeBook(b)
	if err != nil {
		return err
	}
	_, err = df.file.WriteAt(buf, int64(offset))
	return bookerr.IoError("write book", err)
}

// Allocate reserves a slot for a new book record, reusing a released
// slot before extending the file.
func (df *DataFile) Allocate() (int32, error) {
	df.mu.Lock()
	defer df.mu.Unlock()
	offset, err := df.free.Allocate(df, layout.BookRecordSize)
	if err != nil {
		return 0, err
	}
	if err := df.writeHeader(); err != nil {
		return 0, err
	}
	return offset, nil
}

// Release tombstones the slot at offset and links it at the free-list
// head.
func (df *DataFile) Release(offset int32) error {
	df.mu.Lock()
	defer df.mu.Unlock()
	if err := df.free.Release(df, offset); err != nil {
		return err
	}
	return df.writeHeader()
}

// WriteFreeLink implements pagefile.SlotLinker by tombstoning the slot
// and writing the free-link marker into it.
func (df *DataFile) WriteFreeLink(offset int32, next int32) error {
	_, err := df.file.WriteAt(layout.EncodeFreeBook(next), int64(offset))
	return bookerr.IoError("write book free link", err)
}

// ReadFreeLink implements pagefile.SlotLinker by reading the free-link
// marker out of a slot already known to be tombstoned.
func (df *DataFile) ReadFreeLink(offset int32) (int32, error) {
	buf := make([]byte, layout.BookRecordSize)
	if _, err := df.file.ReadAt(buf, int64(offset)); err != nil {
		return 0, bookerr.IoError("read book free link", err)
	}
	return layout.DecodeFreeBookLink(buf), nil
}

// Scan calls fn for every non-tombstoned book in the file, from the
// lowest offset to the highest, stopping early if fn returns false.
func (df *DataFile) Scan(fn func(offset int32, b *layout.Book) bool) error {
	df.mu.Lock()
	defer df.mu.Unlock()

	for offset := int32(headerSize); offset < df.free.FirstEmptyPosition; offset += layout.BookRecordSize {
		b, err := df.readBookLocked(offset)
		if err != nil {
			return err
		}
		if b.IsTombstone() {
			continue
		}
		if !fn(offset, b) {
			return nil
		}
	}
	return nil
}
