// Package tree implements the persistent 2-3 tree described in spec.md
// §4.3–§4.6: search, insert with split propagation, delete with
// successor replacement and underflow repair, and the key-count
// observer. The algorithm is decoupled from file I/O behind NodeStore so
// it can be exercised against an in-memory fake in tests and against the
// real on-disk index file (pkg/indexfile) in production, the same way
// the teacher's Store interface decouples KVStore's callers from its
// file-backed implementation.
package tree

import "github.com/vramos/libris/pkg/layout"

// NodeStore is the persistence surface the tree algorithm needs: read
// and write a node at a byte offset, allocate a fresh or reclaimed node
// slot, release a node back to the free list, and track the root.
type NodeStore interface {
	ReadNode(offset int32) (*layout.Node, error)
	WriteNode(offset int32, n *layout.Node) error
	AllocateNode() (int32, error)
	ReleaseNode(offset int32) error

	Root() int32
	SetRoot(offset int32) error
}
