// Package indexfile persists the 2-3 tree index to a single file: a fixed
// header holding the root address and free-list bookkeeping, followed by
// fixed NodeSize slots addressed by byte offset. It implements
// tree.NodeStore over os.File random access, the way the teacher's
// LogWriter/LogReader pair wraps os.File for its append-only log, adapted
// here to direct ReadAt/WriteAt since nodes are updated in place rather
// than only appended.
package indexfile

import (
	"encoding/binary"
	"errors"
	"os"
	"sync"

	"github.com/vramos/libris/pkg/bookerr"
	"github.com/vramos/libris/pkg/layout"
	"github.com/vramos/libris/pkg/pagefile"
)

var (
	errOutOfRange = errors.New("offset out of range")
	errMisaligned = errors.New("offset not on a node boundary")
)

// headerSize is three int32 fields: rootAddress, firstEmptyPosition,
// headEmptyPosition.
const headerSize = 3 * 4

// IndexFile is the on-disk backing store for the tree package's
// NodeStore interface.
type IndexFile struct {
	mu   sync.Mutex
	file *os.File

	root int32
	free pagefile.FreeList
}

// Open creates path if it does not exist, or loads its header if it
// does.
func Open(path string) (*IndexFile, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, bookerr.IoError("open index file", err)
	}

	idx := &IndexFile{file: file}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, bookerr.IoError("stat index file", err)
	}

	if stat.Size() < headerSize {
		idx.root = layout.Absent
		idx.free = pagefile.FreeList{FirstEmptyPosition: headerSize, HeadEmptyPosition: layout.Absent}
		if err := idx.writeHeader(); err != nil {
			file.Close()
			return nil, err
		}
		return idx, nil
	}

	if err := idx.readHeader(); err != nil {
		file.Close()
		return nil, err
	}
	if err := idx.validateHeader(); err != nil {
		file.Close()
		return nil, err
	}
	if err := idx.checkFreeListTerminates(); err != nil {
		file.Close()
		return nil, err
	}
	return idx, nil
}

// validateHeader checks the structural invariants spec.md §4.1 places on
// the header: firstEmptyPosition sits on a node boundary past the
// header, and the root is either absent or a valid slot offset.
func (idx *IndexFile) validateHeader() error {
	if idx.free.FirstEmptyPosition < headerSize ||
		(idx.free.FirstEmptyPosition-headerSize)%layout.NodeSize != 0 {
		return bookerr.CorruptIndex(idx.free.FirstEmptyPosition, "firstEmptyPosition is not a valid node boundary")
	}
	if err := idx.validateOffset(idx.root); err != nil {
		return bookerr.CorruptIndex(idx.root, "root offset out of range: "+err.Error())
	}
	return nil
}

// validateOffset reports whether off is layout.Absent or a properly
// aligned, in-range node slot offset.
func (idx *IndexFile) validateOffset(off int32) error {
	if off == layout.Absent {
		return nil
	}
	if off < headerSize || off >= idx.free.FirstEmptyPosition {
		return errOutOfRange
	}
	if (off-headerSize)%layout.NodeSize != 0 {
		return errMisaligned
	}
	return nil
}

// checkFreeListTerminates walks the free list from the header and fails
// with CorruptIndex if it finds a cycle or an out-of-range link, per
// spec.md P4's free-list termination invariant.
func (idx *IndexFile) checkFreeListTerminates() error {
	slotCount := (idx.free.FirstEmptyPosition - headerSize) / layout.NodeSize
	seen := make(map[int32]bool, slotCount)
	offset := idx.free.HeadEmptyPosition
	for offset != layout.Absent {
		if err := idx.validateOffset(offset); err != nil {
			return bookerr.CorruptIndex(offset, "free-list link out of range: "+err.Error())
		}
		if seen[offset] {
			return bookerr.CorruptIndex(offset, "free-list cycle detected")
		}
		seen[offset] = true
		if int32(len(seen)) > slotCount {
			return bookerr.CorruptIndex(offset, "free-list longer than the file's slot count")
		}
		next, err := idx.ReadFreeLink(offset)
		if err != nil {
			return err
		}
		offset = next
	}
	return nil
}

// OnSlotReuse registers fn to be called each time AllocateNode serves a
// slot from the free list instead of extending the file.
func (idx *IndexFile) OnSlotReuse(fn func()) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.free.OnReuse = fn
}

// Close flushes the header and closes the underlying file.
func (idx *IndexFile) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := idx.writeHeader(); err != nil {
		idx.file.Close()
		return err
	}
	return bookerr.IoError("close index file", idx.file.Close())
}

func (idx *IndexFile) readHeader() error {
	buf := make([]byte, headerSize)
	if _, err := idx.file.ReadAt(buf, 0); err != nil {
		return bookerr.IoError("read index header", err)
	}
	idx.root = int32(binary.LittleEndian.Uint32(buf[0:4]))
	idx.free.FirstEmptyPosition = int32(binary.LittleEndian.Uint32(buf[4:8]))
	idx.free.HeadEmptyPosition = int32(binary.LittleEndian.Uint32(buf[8:12]))
	return nil
}

func (idx *IndexFile) writeHeader() error {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(idx.root))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(idx.free.FirstEmptyPosition))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(idx.free.HeadEmptyPosition))
	_, err := idx.file.WriteAt(buf, 0)
	return bookerr.IoError("write index header", err)
}

// Root implements tree.NodeStore.
func (idx *IndexFile) Root() int32 {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.root
}

// SetRoot implements tree.NodeStore.
func (idx *IndexFile) SetRoot(offset int32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.root = offset
	return idx.writeHeader()
}

// ReadNode implements tree.NodeStore.
func (idx *IndexFile) ReadNode(offset int32) (*layout.Node, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	buf := make([]byte, layout.NodeSize)
	if _, err := idx.file.ReadAt(buf, int64(offset)); err != nil {
		return nil, bookerr.IoError("read node", err)
	}
	n := layout.DecodeNode(buf)
	if err := idx.validateNode(offset, n); err != nil {
		return nil, err
	}
	return n, nil
}

// validateNode enforces spec.md §7's structural invariants on a decoded
// node: nKeys must be 1 or 2, and every child offset must be either
// absent or a properly aligned, in-range slot.
func (idx *IndexFile) validateNode(offset int32, n *layout.Node) error {
	if n.NKeys != 1 && n.NKeys != 2 {
		return bookerr.CorruptIndex(offset, "nKeys out of range, want 1 or 2")
	}
	for _, child := range []int32{n.LeftChild, n.MiddleChild, n.RightChild} {
		if err := idx.validateOffset(child); err != nil {
			return bookerr.CorruptIndex(offset, "child offset invalid: "+err.Error())
		}
	}
	return nil
}

// WriteNode implements tree.NodeStore.
func (idx *IndexFile) WriteNode(offset int32, n *layout.Node) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	_, err := idx.file.WriteAt(layout.EncodeNode(n), int64(offset))
	return bookerr.IoError("write node", err)
}

// AllocateNode implements tree.NodeStore, reusing a released slot before
// extending the file.
func (idx *IndexFile) AllocateNode() (int32, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	offset, err := idx.free.Allocate(idx, layout.NodeSize)
	if err != nil {
		return 0, err
	}
	if err := idx.writeHeader(); err != nil {
		return 0, err
	}
	return offset, nil
}

// ReleaseNode implements tree.NodeStore, linking offset at the free-list
// head and overwriting the slot with a free-link marker.
func (idx *IndexFile) ReleaseNode(offset int32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := idx.free.Release(idx, offset); err != nil {
		return err
	}
	return idx.writeHeader()
}

// WriteFreeLink implements pagefile.SlotLinker by overwriting a released
// node slot with a free-link marker.
func (idx *IndexFile) WriteFreeLink(offset int32, next int32) error {
	_, err := idx.file.WriteAt(layout.EncodeFreeNode(next), int64(offset))
	return bookerr.IoError("write node free link", err)
}

// ReadFreeLink implements pagefile.SlotLinker by reading the free-link
// marker out of a slot already on the free list.
func (idx *IndexFile) ReadFreeLink(offset int32) (int32, error) {
	buf := make([]byte, layout.NodeSize)
	if _, err := idx.file.ReadAt(buf, int64(offset)); err != nil {
		return 0, bookerr.IoError("read node free link", err)
	}
	return layout.DecodeFreeLink(buf), nil
}
