package bptree

import "noidkv/internal/page"

// Delete removes key if present, returning its value and true, or nil
// and false if absent (spec §4.8 step 1-3, idempotent on a missing key).
func (t *Tree) Delete(key []byte) (bool, []byte, error) {
	if t.root.IsNull() {
		return false, nil, nil
	}

	removed, value, _, err := t.deleteFrom(t.root, key)
	if err != nil || !removed {
		return removed, value, err
	}

	root, err := t.store.Get(t.root)
	if err != nil {
		return false, nil, err
	}
	switch {
	case root.Kind == KindInternal && len(root.Internal.Keys) == 0:
		// EmptyRoot: the root's one remaining child becomes the new root,
		// shrinking the tree's height by one (spec §4.8 step 3c).
		survivor := root.Internal.LeftmostChild
		old := t.root
		t.root = survivor
		_ = t.store.Free(old)
	case root.Kind == KindLeaf && len(root.Leaf.Keys) == 0:
		old := t.root
		t.root = page.NullPage
		_ = t.store.Free(old)
	}
	return true, value, nil
}

// deleteFrom removes key from the subtree rooted at pn. newSmallest is
// non-nil when the subtree's smallest key changed, so the caller (which
// may hold a separator copied from it) can refresh its own copy.
func (t *Tree) deleteFrom(pn page.PageNumber, key []byte) (removed bool, value []byte, newSmallest []byte, err error) {
	n, err := t.store.Get(pn)
	if err != nil {
		return false, nil, nil, err
	}

	if n.Kind == KindLeaf {
		idx := BinarySearch(n.Leaf.Keys, key, t.cmp)
		if idx < 0 {
			return false, nil, nil, nil
		}
		value = n.Leaf.Values[idx]
		n.Leaf.Keys = append(n.Leaf.Keys[:idx], n.Leaf.Keys[idx+1:]...)
		n.Leaf.Values = append(n.Leaf.Values[:idx], n.Leaf.Values[idx+1:]...)
		if _, err := t.store.Put(n, pn); err != nil {
			return false, nil, nil, err
		}
		if idx == 0 && len(n.Leaf.Keys) > 0 {
			newSmallest = n.Leaf.Keys[0]
		}
		return true, value, newSmallest, nil
	}

	child, idx := t.childIndex(n, key)
	removed, value, childNewSmallest, err := t.deleteFrom(child, key)
	if err != nil || !removed {
		return removed, value, nil, err
	}

	// The separator at idx is a copy of child's smallest key; if that
	// changed, refresh it so no rebalancing step observes a stale copy.
	if idx >= 0 && childNewSmallest != nil {
		n.Internal.Keys[idx] = childNewSmallest
	}
	// The leftmost child's smallest key is this subtree's smallest key.
	if idx == -1 {
		newSmallest = childNewSmallest
	}
	if _, err := t.store.Put(n, pn); err != nil {
		return false, nil, nil, err
	}

	childNode, err := t.store.Get(child)
	if err != nil {
		return false, nil, nil, err
	}
	if !childNode.isPoor(t.order) {
		return true, value, newSmallest, nil
	}

	// Rebalancing keeps the subtree's smallest key: redistribution only
	// moves larger keys into the leftmost child, and merges go leftward.
	if err := t.rebalanceChild(n, pn, idx); err != nil {
		return false, nil, nil, err
	}
	return true, value, newSmallest, nil
}

// rebalanceChild fixes the poor child at slot idx (-1 = leftmost) of
// internal node n (stored at pn), per spec §4.8's tie-break rules:
// prefer redistribution; when both siblings could redistribute, prefer
// the right one; when merging, prefer the left sibling as target.
func (t *Tree) rebalanceChild(n *Node, pn page.PageNumber, idx int) error {
	hasLeft := idx >= 0
	hasRight := idx+1 < len(n.Internal.Keys)

	var leftPN, rightPN page.PageNumber
	var left, right *Node
	var err error
	if hasLeft {
		leftPN = childAt(n, idx-1)
		left, err = t.store.Get(leftPN)
		if err != nil {
			return err
		}
	}
	if hasRight {
		rightPN = childAt(n, idx+1)
		right, err = t.store.Get(rightPN)
		if err != nil {
			return err
		}
	}

	childPN := childAt(n, idx)
	child, err := t.store.Get(childPN)
	if err != nil {
		return err
	}

	rightRich := hasRight && right.isRich(t.order)
	leftRich := hasLeft && left.isRich(t.order)

	switch {
	case rightRich:
		return t.redistributeFromRight(n, pn, idx, child, childPN, right, rightPN)
	case leftRich:
		return t.redistributeFromLeft(n, pn, idx, child, childPN, left, leftPN)
	case hasLeft:
		return t.mergeSiblings(n, pn, idx-1, idx, left, leftPN, child, childPN)
	case hasRight:
		return t.mergeSiblings(n, pn, idx, idx+1, child, childPN, right, rightPN)
	default:
		// Sole child of the root; nothing to rebalance against.
		return nil
	}
}
