package layout

import "encoding/binary"

// Absent marks an absent key, child, or slot reference uniformly.
const Absent int32 = -1

// NodeSize is the fixed size of one 2-3 tree node slot on disk: eight
// int32 fields (nKeys, leftKey, rightKey, leftBook, rightBook, leftChild,
// middleChild, rightChild).
const NodeSize = 8 * 4

// nodeFreeLinkOffset is where a released node's next-free pointer lives,
// overlapping the nKeys field. Safe because nKeys carries no meaning once
// a node is on the free list.
const nodeFreeLinkOffset = 0

// Node is the in-memory representation of one 2-3 tree node.
type Node struct {
	NKeys       int32
	LeftKey     int32
	RightKey    int32
	LeftBook    int32
	RightBook   int32
	LeftChild   int32
	MiddleChild int32
	RightChild  int32
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return n.LeftChild == Absent && n.MiddleChild == Absent && n.RightChild == Absent
}

// NewLeaf builds a single-key leaf node.
func NewLeaf(key, slot int32) *Node {
	return &Node{
		NKeys:       1,
		LeftKey:     key,
		RightKey:    Absent,
		LeftBook:    slot,
		RightBook:   Absent,
		LeftChild:   Absent,
		MiddleChild: Absent,
		RightChild:  Absent,
	}
}

// EncodeNode serializes n into a NodeSize-byte buffer.
func EncodeNode(n *Node) []byte {
	buf := make([]byte, NodeSize)
	fields := []int32{
		n.NKeys, n.LeftKey, n.RightKey, n.LeftBook, n.RightBook,
		n.LeftChild, n.MiddleChild, n.RightChild,
	}
	for i, f := range fields {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(f))
	}
	return buf
}

// DecodeNode parses a NodeSize-byte buffer produced by EncodeNode.
func DecodeNode(buf []byte) *Node {
	read := func(i int) int32 { return int32(binary.LittleEndian.Uint32(buf[i*4:])) }
	return &Node{
		NKeys:       read(0),
		LeftKey:     read(1),
		RightKey:    read(2),
		LeftBook:    read(3),
		RightBook:   read(4),
		LeftChild:   read(5),
		MiddleChild: read(6),
		RightChild:  read(7),
	}
}

// EncodeFreeNode writes a released node slot: the next-free pointer
// occupies the field that normally holds nKeys. The rest of the slot is
// left zeroed; it carries no meaning while the node is free.
func EncodeFreeNode(next int32) []byte {
	buf := make([]byte, NodeSize)
	binary.LittleEndian.PutUint32(buf[nodeFreeLinkOffset:], uint32(next))
	return buf
}

// DecodeFreeLink reads the next-free pointer out of a released node slot.
func DecodeFreeLink(buf []byte) int32 {
	return int32(binary.LittleEndian.Uint32(buf[nodeFreeLinkOffset:]))
}
