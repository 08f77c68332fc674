package tree

import (
	"github.com/vramos/libris/pkg/bookerr"
	"github.com/vramos/libris/pkg/layout"
)

const absent = layout.Absent

// Hooks lets a caller observe structural events without the tree
// algorithm depending on a metrics package. Any nil field is skipped.
type Hooks struct {
	OnSplit        func()
	OnMerge        func()
	OnRedistribute func()
}

// Tree is a persistent 2-3 tree keyed by unique int32 codes, each
// associated with a data-file slot index. It carries no locking: spec.md
// lists concurrent access as a Non-goal, and every operation runs to
// completion synchronously (spec.md §5).
type Tree struct {
	store NodeStore
	hooks Hooks
}

// New wraps store with the 2-3 tree algorithm.
func New(store NodeStore) *Tree {
	return &Tree{store: store}
}

// WithHooks attaches structural-event hooks to an existing Tree.
func (t *Tree) WithHooks(h Hooks) *Tree {
	t.hooks = h
	return t
}

func (t *Tree) fireSplit() {
	if t.hooks.OnSplit != nil {
		t.hooks.OnSplit()
	}
}

func (t *Tree) fireMerge() {
	if t.hooks.OnMerge != nil {
		t.hooks.OnMerge()
	}
}

func (t *Tree) fireRedistribute() {
	if t.hooks.OnRedistribute != nil {
		t.hooks.OnRedistribute()
	}
}

// Search performs a point lookup, returning the record slot associated
// with key. ok is false if key is absent, including on an empty tree.
func (t *Tree) Search(key int32) (slot int32, ok bool, err error) {
	offset := t.store.Root()
	for offset != absent {
		n, err := t.store.ReadNode(offset)
		if err != nil {
			return 0, false, err
		}
		pos, found := findPos(n, key)
		if found {
			if pos == 0 {
				return n.LeftBook, true, nil
			}
			return n.RightBook, true, nil
		}
		offset = childFor(n, key)
	}
	return 0, false, nil
}

// CountKeys returns the number of keys in the tree -- the sum of nKeys
// over every node, not the node count (spec.md §4.6, Q1: the source
// under-counts by conflating the two; this returns the user-visible
// "total books registered" meaning).
func (t *Tree) CountKeys() (int32, error) {
	return t.countKeysFrom(t.store.Root())
}

func (t *Tree) countKeysFrom(offset int32) (int32, error) {
	if offset == absent {
		return 0, nil
	}
	n, err := t.store.ReadNode(offset)
	if err != nil {
		return 0, err
	}
	total := n.NKeys
	for _, child := range []int32{n.LeftChild, n.MiddleChild, n.RightChild} {
		sub, err := t.countKeysFrom(child)
		if err != nil {
			return 0, err
		}
		total += sub
	}
	return total, nil
}

// Height reports the number of levels from the root to a leaf (0 for an
// empty tree, 1 for a single-node tree), used by diagnostics. Every leaf
// sits at the same depth (spec.md §3 invariant), so descending the
// leftmost path suffices.
func (t *Tree) Height() (int32, error) {
	var height int32
	offset := t.store.Root()
	for offset != absent {
		n, err := t.store.ReadNode(offset)
		if err != nil {
			return 0, err
		}
		height++
		offset = n.LeftChild
	}
	return height, nil
}

// findPos reports whether key is one of n's own keys, and at which
// position (0 for left, 1 for right).
func findPos(n *layout.Node, key int32) (pos int, found bool) {
	if key == n.LeftKey {
		return 0, true
	}
	if n.NKeys == 2 && key == n.RightKey {
		return 1, true
	}
	return 0, false
}

// childFor returns the child offset to descend into for key, given key
// is not one of n's own keys.
func childFor(n *layout.Node, key int32) int32 {
	if n.NKeys == 1 {
		if key < n.LeftKey {
			return n.LeftChild
		}
		return n.MiddleChild
	}
	switch {
	case key < n.LeftKey:
		return n.LeftChild
	case key < n.RightKey:
		return n.MiddleChild
	default:
		return n.RightChild
	}
}

// splitResult is what a child returns to its caller when it could not
// absorb an inserted entry and had to split: the promoted key, the
// record slot for that key, and the offset of the freshly allocated
// right sibling.
type splitResult struct {
	Key        int32
	Slot       int32
	RightChild int32
}

// Insert adds (key, slot) to the tree. It fails with bookerr.ErrDuplicateKey
// and leaves the tree untouched if key is already present.
func (t *Tree) Insert(key, slot int32) error {
	root := t.store.Root()
	if root == absent {
		off, err := t.store.AllocateNode()
		if err != nil {
			return err
		}
		if err := t.store.WriteNode(off, layout.NewLeaf(key, slot)); err != nil {
			return err
		}
		return t.store.SetRoot(off)
	}

	split, err := t.insertRec(root, key, slot)
	if err != nil {
		return err
	}
	if split == nil {
		return nil
	}

	newRootOff, err := t.store.AllocateNode()
	if err != nil {
		return err
	}
	newRoot := &layout.Node{
		NKeys:       1,
		LeftKey:     split.Key,
		RightKey:    absent,
		LeftBook:    split.Slot,
		RightBook:   absent,
		LeftChild:   root,
		MiddleChild: split.RightChild,
		RightChild:  absent,
	}
	if err := t.store.WriteNode(newRootOff, newRoot); err != nil {
		return err
	}
	return t.store.SetRoot(newRootOff)
}

func (t *Tree) insertRec(nodeOff, key, slot int32) (*splitResult, error) {
	n, err := t.store.ReadNode(nodeOff)
	if err != nil {
		return nil, err
	}

	if n.IsLeaf() {
		if _, found := findPos(n, key); found {
			return nil, bookerr.DuplicateKey(key)
		}
		return t.absorb(nodeOff, n, key, slot, absent)
	}

	if _, found := findPos(n, key); found {
		return nil, bookerr.DuplicateKey(key)
	}

	childOff := childFor(n, key)
	childSplit, err := t.insertRec(childOff, key, slot)
	if err != nil {
		return nil, err
	}
	if childSplit == nil {
		return nil, nil
	}
	return t.absorb(nodeOff, n, childSplit.Key, childSplit.Slot, childSplit.RightChild)
}

// absorb inserts (key, slot) into n, which lives at nodeOff. newRightChild
// is the right half of a child that just split (absent for a direct leaf
// insertion). It returns a splitResult if n itself had to split.
func (t *Tree) absorb(nodeOff int32, n *layout.Node, key, slot, newRightChild int32) (*splitResult, error) {
	isLeaf := n.IsLeaf() && newRightChild == absent

	if n.NKeys == 1 {
		return nil, t.absorbIntoOneKeyNode(nodeOff, n, key, slot, newRightChild, isLeaf)
	}
	return t.splitTwoKeyNode(nodeOff, n, key, slot, newRightChild, isLeaf)
}

// absorbIntoOneKeyNode turns a 1-key node into a 2-key node; no split.
func (t *Tree) absorbIntoOneKeyNode(nodeOff int32, n *layout.Node, key, slot, newRightChild int32, isLeaf bool) error {
	if key < n.LeftKey {
		oldLeftKey, oldLeftBook, oldMiddle := n.LeftKey, n.LeftBook, n.MiddleChild
		n.LeftKey, n.LeftBook = key, slot
		n.RightKey, n.RightBook = oldLeftKey, oldLeftBook
		if !isLeaf {
			// n.LeftChild (holds keys < key) is unchanged; newRightChild
			// holds keys between key and the old LeftKey.
			n.MiddleChild = newRightChild
			n.RightChild = oldMiddle
		}
	} else {
		n.RightKey, n.RightBook = key, slot
		if !isLeaf {
			// n.LeftChild is unchanged; n.MiddleChild (the child that
			// split) keeps its offset holding the smaller half, and
			// newRightChild holds the larger half.
			n.RightChild = newRightChild
		}
	}
	n.NKeys = 2
	return t.store.WriteNode(nodeOff, n)
}

// splitTwoKeyNode splits a full 2-key node per the spec.md §4.4 tie-break
// table, reusing nodeOff for the left half and allocating a new node for
// the right half.
func (t *Tree) splitTwoKeyNode(nodeOff int32, n *layout.Node, key, slot, newRightChild int32, isLeaf bool) (*splitResult, error) {
	t.fireSplit()
	left := &layout.Node{LeftChild: absent, MiddleChild: absent, RightChild: absent}
	right := &layout.Node{LeftChild: absent, MiddleChild: absent, RightChild: absent}
	var promotedKey, promotedSlot int32

	c0, c1, c2 := n.LeftChild, n.MiddleChild, n.RightChild

	switch {
	case key < n.LeftKey:
		// I < L: promote L. Left keeps I, right keeps R.
		promotedKey, promotedSlot = n.LeftKey, n.LeftBook
		left.LeftKey, left.LeftBook = key, slot
		right.LeftKey, right.LeftBook = n.RightKey, n.RightBook
		if !isLeaf {
			// the split child was c0; newRightChild holds keys between
			// the inserted key and the old left key.
			left.LeftChild, left.MiddleChild = c0, newRightChild
			right.LeftChild, right.MiddleChild = c1, c2
		}
	case key < n.RightKey:
		// L < I < R: promote I itself (spec.md §9 Q3).
		promotedKey, promotedSlot = key, slot
		left.LeftKey, left.LeftBook = n.LeftKey, n.LeftBook
		right.LeftKey, right.LeftBook = n.RightKey, n.RightBook
		if !isLeaf {
			// the split child was c1; it keeps the smaller half at its
			// original offset, newRightChild holds the larger half.
			left.LeftChild, left.MiddleChild = c0, c1
			right.LeftChild, right.MiddleChild = newRightChild, c2
		}
	default:
		// I > R: promote R. Left keeps L, right keeps I.
		promotedKey, promotedSlot = n.RightKey, n.RightBook
		left.LeftKey, left.LeftBook = n.LeftKey, n.LeftBook
		right.LeftKey, right.LeftBook = key, slot
		if !isLeaf {
			// the split child was c2; it keeps the smaller half, new
			// RightChild holds the larger half.
			left.LeftChild, left.MiddleChild = c0, c1
			right.LeftChild, right.MiddleChild = c2, newRightChild
		}
	}

	left.NKeys, right.NKeys = 1, 1
	left.RightKey, left.RightBook = absent, absent
	right.RightKey, right.RightBook = absent, absent

	if err := t.store.WriteNode(nodeOff, left); err != nil {
		return nil, err
	}
	rightOff, err := t.store.AllocateNode()
	if err != nil {
		return nil, err
	}
	if err := t.store.WriteNode(rightOff, right); err != nil {
		return nil, err
	}

	return &splitResult{Key: promotedKey, Slot: promotedSlot, RightChild: rightOff}, nil
}

// Remove deletes key from the tree. It fails with bookerr.ErrNotFound and
// leaves the tree untouched if key is absent.
func (t *Tree) Remove(key int32) error {
	root := t.store.Root()
	if root == absent {
		return bookerr.NotFound(key)
	}

	underflow, err := t.removeRec(root, key)
	if err != nil {
		return err
	}
	if !underflow {
		return nil
	}

	// Root collapse: the root lost its only key. Its sole surviving
	// child (absent for a leaf, meaning the tree is now empty) becomes
	// the new root.
	n, err := t.store.ReadNode(root)
	if err != nil {
		return err
	}
	newRoot := n.LeftChild
	if err := t.store.ReleaseNode(root); err != nil {
		return err
	}
	return t.store.SetRoot(newRoot)
}

// removeRec deletes key from the subtree rooted at nodeOff, returning
// whether that subtree's root now underflows (0 keys) and must be
// repaired by the caller.
func (t *Tree) removeRec(nodeOff, key int32) (bool, error) {
	n, err := t.store.ReadNode(nodeOff)
	if err != nil {
		return false, err
	}

	if n.IsLeaf() {
		pos, found := findPos(n, key)
		if !found {
			return false, bookerr.NotFound(key)
		}
		return t.removeFromLeaf(nodeOff, n, pos)
	}

	if pos, found := findPos(n, key); found {
		var childForSuccessor int32
		if pos == 0 {
			childForSuccessor = n.MiddleChild
		} else {
			childForSuccessor = n.RightChild
		}
		succKey, succSlot, err := t.minKey(childForSuccessor)
		if err != nil {
			return false, err
		}
		if pos == 0 {
			n.LeftKey, n.LeftBook = succKey, succSlot
		} else {
			n.RightKey, n.RightBook = succKey, succSlot
		}
		if err := t.store.WriteNode(nodeOff, n); err != nil {
			return false, err
		}
		childUnderflow, err := t.removeRec(childForSuccessor, succKey)
		if err != nil {
			return false, err
		}
		if !childUnderflow {
			return false, nil
		}
		return t.repairUnderflow(nodeOff, n, childForSuccessor)
	}

	childOff := childFor(n, key)
	childUnderflow, err := t.removeRec(childOff, key)
	if err != nil {
		return false, err
	}
	if !childUnderflow {
		return false, nil
	}
	return t.repairUnderflow(nodeOff, n, childOff)
}

// minKey returns the smallest key (and its slot) in the subtree rooted
// at nodeOff, by descending LeftChild until a leaf.
func (t *Tree) minKey(nodeOff int32) (key, slot int32, err error) {
	for {
		n, err := t.store.ReadNode(nodeOff)
		if err != nil {
			return 0, 0, err
		}
		if n.IsLeaf() {
			return n.LeftKey, n.LeftBook, nil
		}
		nodeOff = n.LeftChild
	}
}

// removeFromLeaf removes the key at position pos from leaf n. It reports
// underflow if the leaf is left with zero keys.
func (t *Tree) removeFromLeaf(nodeOff int32, n *layout.Node, pos int) (bool, error) {
	if n.NKeys == 2 {
		if pos == 0 {
			n.LeftKey, n.LeftBook = n.RightKey, n.RightBook
		}
		n.RightKey, n.RightBook = absent, absent
		n.NKeys = 1
		return false, t.store.WriteNode(nodeOff, n)
	}

	n.LeftKey, n.LeftBook = absent, absent
	n.NKeys = 0
	return true, t.store.WriteNode(nodeOff, n)
}

// childPosition reports which of parent's three child pointers equals
// childOff: 0 (left), 1 (middle), or 2 (right).
func childPosition(parent *layout.Node, childOff int32) int {
	switch childOff {
	case parent.LeftChild:
		return 0
	case parent.MiddleChild:
		return 1
	default:
		return 2
	}
}

// repairUnderflow fixes a 0-key child of parent (at parentOff) by
// redistributing from or merging with the adjacent sibling chosen per
// spec.md §4.5's sibling-selection rule. It reports whether parent itself
// now underflows.
func (t *Tree) repairUnderflow(parentOff int32, parent *layout.Node, childOff int32) (bool, error) {
	posD := childPosition(parent, childOff)

	var posS int
	switch posD {
	case 0, 2:
		posS = 1
	default: // posD == 1
		if parent.NKeys == 1 {
			posS = 0
		} else {
			posS = 2
		}
	}

	siblingOff := childAt(parent, posS)
	deficient, err := t.store.ReadNode(childOff)
	if err != nil {
		return false, err
	}
	sibling, err := t.store.ReadNode(siblingOff)
	if err != nil {
		return false, err
	}
	isLeaf := deficient.IsLeaf() && sibling.IsLeaf()

	if sibling.NKeys == 2 {
		return false, t.redistribute(parentOff, parent, childOff, deficient, siblingOff, sibling, posD, posS, isLeaf)
	}
	return t.merge(parentOff, parent, childOff, deficient, siblingOff, sibling, posD, posS, isLeaf)
}

func childAt(n *layout.Node, pos int) int32 {
	switch pos {
	case 0:
		return n.LeftChild
	case 1:
		return n.MiddleChild
	default:
		return n.RightChild
	}
}

// redistribute rotates one key through parent between sibling (2 keys)
// and deficient (0 keys), per spec.md §4.5.
func (t *Tree) redistribute(parentOff int32, parent *layout.Node, defOff int32, deficient *layout.Node, sibOff int32, sibling *layout.Node, posD, posS int, isLeaf bool) error {
	t.fireRedistribute()
	lone := deficient.LeftChild // the deficient node's one surviving child, absent for a leaf

	switch {
	case posD == 0 && posS == 1:
		deficient.LeftKey, deficient.LeftBook = parent.LeftKey, parent.LeftBook
		oldSKey, oldSBook, oldSChild := sibling.LeftKey, sibling.LeftBook, sibling.LeftChild
		sibling.LeftKey, sibling.LeftBook = sibling.RightKey, sibling.RightBook
		sibling.LeftChild = sibling.MiddleChild
		sibling.MiddleChild = sibling.RightChild
		sibling.RightKey, sibling.RightBook, sibling.RightChild = absent, absent, absent
		sibling.NKeys = 1
		parent.LeftKey, parent.LeftBook = oldSKey, oldSBook
		if !isLeaf {
			deficient.LeftChild, deficient.MiddleChild = lone, oldSChild
		}

	case posD == 2 && posS == 1:
		deficient.LeftKey, deficient.LeftBook = parent.RightKey, parent.RightBook
		oldSKey, oldSBook, oldSChild := sibling.RightKey, sibling.RightBook, sibling.RightChild
		sibling.RightKey, sibling.RightBook, sibling.RightChild = absent, absent, absent
		sibling.NKeys = 1
		parent.RightKey, parent.RightBook = oldSKey, oldSBook
		if !isLeaf {
			deficient.LeftChild, deficient.MiddleChild = oldSChild, lone
		}

	case posD == 1 && posS == 0:
		deficient.LeftKey, deficient.LeftBook = parent.LeftKey, parent.LeftBook
		oldSKey, oldSBook, oldSChild := sibling.RightKey, sibling.RightBook, sibling.RightChild
		sibling.RightKey, sibling.RightBook, sibling.RightChild = absent, absent, absent
		sibling.NKeys = 1
		parent.LeftKey, parent.LeftBook = oldSKey, oldSBook
		if !isLeaf {
			deficient.LeftChild, deficient.MiddleChild = oldSChild, lone
		}

	default: // posD == 1 && posS == 2
		deficient.LeftKey, deficient.LeftBook = parent.RightKey, parent.RightBook
		oldSKey, oldSBook, oldSChild := sibling.LeftKey, sibling.LeftBook, sibling.LeftChild
		sibling.LeftKey, sibling.LeftBook = sibling.RightKey, sibling.RightBook
		sibling.LeftChild = sibling.MiddleChild
		sibling.MiddleChild = sibling.RightChild
		sibling.RightKey, sibling.RightBook, sibling.RightChild = absent, absent, absent
		sibling.NKeys = 1
		parent.RightKey, parent.RightBook = oldSKey, oldSBook
		if !isLeaf {
			deficient.LeftChild, deficient.MiddleChild = lone, oldSChild
		}
	}

	deficient.NKeys = 1
	if isLeaf {
		deficient.LeftChild, deficient.MiddleChild, deficient.RightChild = absent, absent, absent
	} else {
		deficient.RightChild = absent
	}

	if err := t.store.WriteNode(defOff, deficient); err != nil {
		return err
	}
	if err := t.store.WriteNode(sibOff, sibling); err != nil {
		return err
	}
	return t.store.WriteNode(parentOff, parent)
}

// merge folds the separating key from parent and sibling's one key into
// a single 2-key node, releasing the other node's slot. It reports
// whether parent itself now underflows.
func (t *Tree) merge(parentOff int32, parent *layout.Node, defOff int32, deficient *layout.Node, sibOff int32, sibling *layout.Node, posD, posS int, isLeaf bool) (bool, error) {
	t.fireMerge()
	lone := deficient.LeftChild

	switch {
	case posD == 0 && posS == 1:
		deficient.LeftKey, deficient.LeftBook = parent.LeftKey, parent.LeftBook
		deficient.RightKey, deficient.RightBook = sibling.LeftKey, sibling.LeftBook
		deficient.NKeys = 2
		if !isLeaf {
			deficient.LeftChild, deficient.MiddleChild, deficient.RightChild = lone, sibling.LeftChild, sibling.MiddleChild
		}
		if err := t.store.WriteNode(defOff, deficient); err != nil {
			return false, err
		}
		if err := t.store.ReleaseNode(sibOff); err != nil {
			return false, err
		}
		if parent.NKeys == 2 {
			oldRightChild := parent.RightChild
			parent.LeftKey, parent.LeftBook = parent.RightKey, parent.RightBook
			// parent.LeftChild already == defOff (unchanged); shift the
			// old right child into the middle slot.
			parent.MiddleChild = oldRightChild
			parent.RightKey, parent.RightBook, parent.RightChild = absent, absent, absent
			parent.NKeys = 1
			return false, t.store.WriteNode(parentOff, parent)
		}
		parent.LeftKey, parent.LeftBook, parent.LeftChild = absent, absent, defOff
		parent.MiddleChild = absent
		parent.NKeys = 0
		return true, t.store.WriteNode(parentOff, parent)

	case posD == 2 && posS == 1:
		sibling.RightKey, sibling.RightBook = parent.RightKey, parent.RightBook
		sibling.NKeys = 2
		if !isLeaf {
			sibling.RightChild = lone
		}
		if err := t.store.WriteNode(sibOff, sibling); err != nil {
			return false, err
		}
		if err := t.store.ReleaseNode(defOff); err != nil {
			return false, err
		}
		parent.RightKey, parent.RightBook, parent.RightChild = absent, absent, absent
		parent.NKeys = 1
		return false, t.store.WriteNode(parentOff, parent)

	case posD == 1 && posS == 0:
		sibling.RightKey, sibling.RightBook = parent.LeftKey, parent.LeftBook
		sibling.NKeys = 2
		if !isLeaf {
			sibling.RightChild = lone
		}
		if err := t.store.WriteNode(sibOff, sibling); err != nil {
			return false, err
		}
		if err := t.store.ReleaseNode(defOff); err != nil {
			return false, err
		}
		parent.LeftKey, parent.LeftBook, parent.LeftChild = absent, absent, sibOff
		parent.MiddleChild = absent
		parent.NKeys = 0
		return true, t.store.WriteNode(parentOff, parent)

	default: // posD == 1 && posS == 2
		deficient.LeftKey, deficient.LeftBook = parent.RightKey, parent.RightBook
		deficient.RightKey, deficient.RightBook = sibling.LeftKey, sibling.LeftBook
		deficient.NKeys = 2
		if !isLeaf {
			deficient.LeftChild, deficient.MiddleChild, deficient.RightChild = lone, sibling.LeftChild, sibling.MiddleChild
		}
		if err := t.store.WriteNode(defOff, deficient); err != nil {
			return false, err
		}
		if err := t.store.ReleaseNode(sibOff); err != nil {
			return false, err
		}
		parent.RightKey, parent.RightBook, parent.RightChild = absent, absent, absent
		parent.MiddleChild = defOff
		parent.NKeys = 1
		return false, t.store.WriteNode(parentOff, parent)
	}
}
