package bptree

import "noidkv/internal/page"

// split carries a completed node split up to the caller: separator is
// the key to install in the parent, and right is the new sibling's
// address.
type split struct {
	separator []byte
	right     page.PageNumber
}

// Insert inserts key/value, overwriting the value if key already
// exists. Returns Inserted or Upserted per spec §4.8 step 3.
func (t *Tree) Insert(key, value []byte) (Result, error) {
	if t.root.IsNull() {
		leaf := newLeaf()
		leaf.Leaf.Keys = [][]byte{cloneKey(key)}
		leaf.Leaf.Values = [][]byte{cloneKey(value)}
		pn, err := t.store.Put(leaf, page.NullPage)
		if err != nil {
			return 0, err
		}
		t.root = pn
		return Inserted, nil
	}

	res, sp, err := t.insertInto(t.root, key, value)
	if err != nil {
		return 0, err
	}
	if sp != nil {
		newRoot := newInternal()
		newRoot.Internal.LeftmostChild = t.root
		newRoot.Internal.Keys = [][]byte{sp.separator}
		newRoot.Internal.RightChildren = []page.PageNumber{sp.right}
		pn, err := t.store.Put(newRoot, page.NullPage)
		if err != nil {
			return 0, err
		}
		t.root = pn
	}
	return res, nil
}

func (t *Tree) insertInto(pn page.PageNumber, key, value []byte) (Result, *split, error) {
	n, err := t.store.Get(pn)
	if err != nil {
		return 0, nil, err
	}

	if n.Kind == KindLeaf {
		return t.insertIntoLeaf(n, pn, key, value)
	}
	return t.insertIntoInternal(n, pn, key, value)
}

func (t *Tree) insertIntoLeaf(n *Node, pn page.PageNumber, key, value []byte) (Result, *split, error) {
	if idx := BinarySearch(n.Leaf.Keys, key, t.cmp); idx >= 0 {
		n.Leaf.Values[idx] = cloneKey(value)
		if _, err := t.store.Put(n, pn); err != nil {
			return 0, nil, err
		}
		return Upserted, nil, nil
	}

	pos := GreatestNotExceeding(n.Leaf.Keys, key, t.cmp) + 1
	n.Leaf.Keys = insertKeyAt(n.Leaf.Keys, pos, cloneKey(key))
	n.Leaf.Values = insertKeyAt(n.Leaf.Values, pos, cloneKey(value))

	if len(n.Leaf.Keys) <= t.maxPopulation() {
		if _, err := t.store.Put(n, pn); err != nil {
			return 0, nil, err
		}
		return Inserted, nil, nil
	}

	// Leaf split: copy the right half's smallest key up as the separator.
	mid := len(n.Leaf.Keys) / 2
	right := newLeaf()
	right.Leaf.Keys = append([][]byte(nil), n.Leaf.Keys[mid:]...)
	right.Leaf.Values = append([][]byte(nil), n.Leaf.Values[mid:]...)
	right.Leaf.RightSibling = n.Leaf.RightSibling
	n.Leaf.Keys = n.Leaf.Keys[:mid]
	n.Leaf.Values = n.Leaf.Values[:mid]

	rightPN, err := t.store.Put(right, page.NullPage)
	if err != nil {
		return 0, nil, err
	}
	right.Leaf.LeftSibling = pn
	if _, err := t.store.Put(right, rightPN); err != nil {
		return 0, nil, err
	}

	if !right.Leaf.RightSibling.IsNull() {
		nxt, err := t.store.Get(right.Leaf.RightSibling)
		if err != nil {
			return 0, nil, err
		}
		nxt.Leaf.LeftSibling = rightPN
		if _, err := t.store.Put(nxt, right.Leaf.RightSibling); err != nil {
			return 0, nil, err
		}
	}

	n.Leaf.RightSibling = rightPN
	if _, err := t.store.Put(n, pn); err != nil {
		return 0, nil, err
	}

	return Inserted, &split{separator: cloneKey(right.Leaf.Keys[0]), right: rightPN}, nil
}

func (t *Tree) insertIntoInternal(n *Node, pn page.PageNumber, key, value []byte) (Result, *split, error) {
	child, idx := t.childIndex(n, key)
	res, childSplit, err := t.insertInto(child, key, value)
	if err != nil || childSplit == nil {
		return res, nil, err
	}

	insertPos := idx + 1
	n.Internal.Keys = insertKeyAt(n.Internal.Keys, insertPos, childSplit.separator)
	n.Internal.RightChildren = insertPNAt(n.Internal.RightChildren, insertPos, childSplit.right)

	if len(n.Internal.Keys) <= t.maxPopulation() {
		if _, err := t.store.Put(n, pn); err != nil {
			return 0, nil, err
		}
		return res, nil, nil
	}

	// Internal split: the middle entry is pushed up, not copied.
	order := t.order
	mid := order
	separator := n.Internal.Keys[mid]
	rightLeftmost := n.Internal.RightChildren[mid]

	right := newInternal()
	right.Internal.LeftmostChild = rightLeftmost
	right.Internal.Keys = append([][]byte(nil), n.Internal.Keys[mid+1:]...)
	right.Internal.RightChildren = append([]page.PageNumber(nil), n.Internal.RightChildren[mid+1:]...)

	n.Internal.Keys = n.Internal.Keys[:mid]
	n.Internal.RightChildren = n.Internal.RightChildren[:mid]

	rightPN, err := t.store.Put(right, page.NullPage)
	if err != nil {
		return 0, nil, err
	}
	if _, err := t.store.Put(n, pn); err != nil {
		return 0, nil, err
	}

	return res, &split{separator: separator, right: rightPN}, nil
}

func insertKeyAt(s [][]byte, pos int, v []byte) [][]byte {
	s = append(s, nil)
	copy(s[pos+1:], s[pos:])
	s[pos] = v
	return s
}

func insertPNAt(s []page.PageNumber, pos int, v page.PageNumber) []page.PageNumber {
	s = append(s, page.NullPage)
	copy(s[pos+1:], s[pos:])
	s[pos] = v
	return s
}
