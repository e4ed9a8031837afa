package bptree

import "noidkv/internal/page"

// redistributeFromRight borrows the right sibling's first element into
// child, updating the separator at idx+1 (leaf case) or rotating the
// separator at idx+1 through the parent (internal case).
func (t *Tree) redistributeFromRight(n *Node, pn page.PageNumber, idx int, child *Node, childPN page.PageNumber, right *Node, rightPN page.PageNumber) error {
	sepIdx := idx + 1

	if child.Kind == KindLeaf {
		child.Leaf.Keys = append(child.Leaf.Keys, right.Leaf.Keys[0])
		child.Leaf.Values = append(child.Leaf.Values, right.Leaf.Values[0])
		right.Leaf.Keys = right.Leaf.Keys[1:]
		right.Leaf.Values = right.Leaf.Values[1:]
		n.Internal.Keys[sepIdx] = cloneKey(right.Leaf.Keys[0])
	} else {
		child.Internal.Keys = append(child.Internal.Keys, n.Internal.Keys[sepIdx])
		child.Internal.RightChildren = append(child.Internal.RightChildren, right.Internal.LeftmostChild)
		n.Internal.Keys[sepIdx] = right.Internal.Keys[0]
		right.Internal.LeftmostChild = right.Internal.RightChildren[0]
		right.Internal.Keys = right.Internal.Keys[1:]
		right.Internal.RightChildren = right.Internal.RightChildren[1:]
	}

	if _, err := t.store.Put(child, childPN); err != nil {
		return err
	}
	if _, err := t.store.Put(right, rightPN); err != nil {
		return err
	}
	_, err := t.store.Put(n, pn)
	return err
}

// redistributeFromLeft borrows the left sibling's last element into
// child.
func (t *Tree) redistributeFromLeft(n *Node, pn page.PageNumber, idx int, child *Node, childPN page.PageNumber, left *Node, leftPN page.PageNumber) error {
	sepIdx := idx // separator between left and child

	if child.Kind == KindLeaf {
		lastIdx := len(left.Leaf.Keys) - 1
		borrowedKey := left.Leaf.Keys[lastIdx]
		borrowedVal := left.Leaf.Values[lastIdx]
		left.Leaf.Keys = left.Leaf.Keys[:lastIdx]
		left.Leaf.Values = left.Leaf.Values[:lastIdx]
		child.Leaf.Keys = insertKeyAt(child.Leaf.Keys, 0, borrowedKey)
		child.Leaf.Values = insertKeyAt(child.Leaf.Values, 0, borrowedVal)
		n.Internal.Keys[sepIdx] = cloneKey(borrowedKey)
	} else {
		lastIdx := len(left.Internal.Keys) - 1
		borrowedChild := left.Internal.RightChildren[lastIdx]
		borrowedSep := left.Internal.Keys[lastIdx]
		left.Internal.Keys = left.Internal.Keys[:lastIdx]
		left.Internal.RightChildren = left.Internal.RightChildren[:lastIdx]

		child.Internal.Keys = insertKeyAt(child.Internal.Keys, 0, n.Internal.Keys[sepIdx])
		child.Internal.RightChildren = insertPNAt(child.Internal.RightChildren, 0, child.Internal.LeftmostChild)
		child.Internal.LeftmostChild = borrowedChild
		n.Internal.Keys[sepIdx] = borrowedSep
	}

	if _, err := t.store.Put(child, childPN); err != nil {
		return err
	}
	if _, err := t.store.Put(left, leftPN); err != nil {
		return err
	}
	_, err := t.store.Put(n, pn)
	return err
}

// mergeSiblings merges the right node into the left node (the survivor
// is always the left-positioned one, per spec §4.8's "largest merges
// into smallest"), removing the separator between them from the common
// parent n.
func (t *Tree) mergeSiblings(n *Node, pn page.PageNumber, leftIdx, rightIdx int, left *Node, leftPN page.PageNumber, right *Node, rightPN page.PageNumber) error {
	sepIdx := leftIdx + 1 // the entry separating left and right

	if left.Kind == KindLeaf {
		left.Leaf.Keys = append(left.Leaf.Keys, right.Leaf.Keys...)
		left.Leaf.Values = append(left.Leaf.Values, right.Leaf.Values...)
		left.Leaf.RightSibling = right.Leaf.RightSibling
		if !right.Leaf.RightSibling.IsNull() {
			nxt, err := t.store.Get(right.Leaf.RightSibling)
			if err != nil {
				return err
			}
			nxt.Leaf.LeftSibling = leftPN
			if _, err := t.store.Put(nxt, right.Leaf.RightSibling); err != nil {
				return err
			}
		}
	} else {
		left.Internal.Keys = append(left.Internal.Keys, n.Internal.Keys[sepIdx])
		left.Internal.RightChildren = append(left.Internal.RightChildren, right.Internal.LeftmostChild)
		left.Internal.Keys = append(left.Internal.Keys, right.Internal.Keys...)
		left.Internal.RightChildren = append(left.Internal.RightChildren, right.Internal.RightChildren...)
	}

	if _, err := t.store.Put(left, leftPN); err != nil {
		return err
	}
	if err := t.store.Free(rightPN); err != nil {
		return err
	}

	// Remove the separator and the absorbed child's slot from n. If
	// leftIdx is -1, left was the leftmost child and survives as such;
	// the entry at slot 0 (separator, right child) collapses away.
	n.Internal.Keys = append(n.Internal.Keys[:sepIdx], n.Internal.Keys[sepIdx+1:]...)
	n.Internal.RightChildren = append(n.Internal.RightChildren[:rightIdx], n.Internal.RightChildren[rightIdx+1:]...)
	_, err := t.store.Put(n, pn)
	return err
}
