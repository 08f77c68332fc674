// Package pagefile implements the free-space allocator contract shared by
// the index file and the data file (spec.md §4.1): allocate prefers the
// free-list head, release links the given offset at the head. Both files
// keep their own header and element codec; this package only carries the
// offset bookkeeping so the same algorithm, and the same fix for the
// known reuse-order bug (spec.md §9 Q2), is not duplicated between them.
package pagefile

// SlotLinker reads and writes the next-free pointer embedded in a
// released element at a given offset. Index-file nodes and data-file
// book slots each implement this over their own fixed-size codec.
type SlotLinker interface {
	WriteFreeLink(offset int32, next int32) error
	ReadFreeLink(offset int32) (int32, error)
}

// FreeList tracks the two header-resident fields spec.md §3 assigns to
// both file headers: the offset at which a fresh element would be
// allocated if the free list is empty, and the head of the singly-linked
// free list itself.
type FreeList struct {
	FirstEmptyPosition int32
	HeadEmptyPosition  int32

	// OnReuse, when set, is called each time Allocate serves a slot from
	// the free list instead of extending the file.
	OnReuse func()
}

// Allocate returns an offset at which a new element may be written,
// preferring the free-list head. When the free list is empty it returns
// FirstEmptyPosition and advances it by elementSize.
//
// The free-list branch reads the head's own next-pointer before
// advancing HeadEmptyPosition, so the offset returned to the caller is
// always the old head, never the new one.
func (fl *FreeList) Allocate(sw SlotLinker, elementSize int32) (int32, error) {
	if fl.HeadEmptyPosition != -1 {
		offset := fl.HeadEmptyPosition
		next, err := sw.ReadFreeLink(offset)
		if err != nil {
			return 0, err
		}
		fl.HeadEmptyPosition = next
		if fl.OnReuse != nil {
			fl.OnReuse()
		}
		return offset, nil
	}

	offset := fl.FirstEmptyPosition
	fl.FirstEmptyPosition += elementSize
	return offset, nil
}

// Release links offset at the head of the free list.
func (fl *FreeList) Release(sw SlotLinker, offset int32) error {
	if err := sw.WriteFreeLink(offset, fl.HeadEmptyPosition); err != nil {
		return err
	}
	fl.HeadEmptyPosition = offset
	return nil
}
