package bptree

import (
	"noidkv/internal/page"
)

// Result reports whether an insert created a new record or overwrote an
// existing one.
type Result int

const (
	Inserted Result = iota
	Upserted
)

// Tree is the B+tree algorithm from spec §4.8, parameterized over a
// NodeStore so the same logic drives both the in-memory and pager-backed
// trees. Order is m in "m <= population <= 2m" for every non-root node.
type Tree struct {
	store NodeStore
	root  page.PageNumber
	order int
	cmp   CompareFunc
}

// New wires a Tree over store, rooted at root (NullPage for an empty
// tree), ordered by cmp.
func New(store NodeStore, order int, root page.PageNumber, cmp CompareFunc) *Tree {
	return &Tree{store: store, root: root, order: order, cmp: cmp}
}

// Root returns the tree's current root page, NullPage if empty.
func (t *Tree) Root() page.PageNumber { return t.root }

func (t *Tree) maxPopulation() int { return 2 * t.order }

func cloneKey(v []byte) []byte {
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

// Get performs a point lookup, returning the value and true, or nil and
// false if key is absent.
func (t *Tree) Get(key []byte) ([]byte, bool, error) {
	if t.root.IsNull() {
		return nil, false, nil
	}
	pn := t.root
	for {
		n, err := t.store.Get(pn)
		if err != nil {
			return nil, false, err
		}
		if n.Kind == KindLeaf {
			idx := BinarySearch(n.Leaf.Keys, key, t.cmp)
			if idx < 0 {
				return nil, false, nil
			}
			return n.Leaf.Values[idx], true, nil
		}
		pn = t.descendTarget(n, key)
	}
}

// descendTarget implements spec §4.8's descent rule: below the smallest
// key, take the leftmost child; otherwise take the right child of the
// greatest entry not exceeding key.
func (t *Tree) descendTarget(n *Node, key []byte) page.PageNumber {
	if len(n.Internal.Keys) == 0 || t.cmp(key, n.Internal.Keys[0]) < 0 {
		return n.Internal.LeftmostChild
	}
	idx := GreatestNotExceeding(n.Internal.Keys, key, t.cmp)
	return n.Internal.RightChildren[idx]
}

// childIndex is like descendTarget but also reports which slot the
// chosen child occupies: -1 for LeftmostChild, else the index into
// Keys/RightChildren, so a caller can locate a child's siblings.
func (t *Tree) childIndex(n *Node, key []byte) (page.PageNumber, int) {
	if len(n.Internal.Keys) == 0 || t.cmp(key, n.Internal.Keys[0]) < 0 {
		return n.Internal.LeftmostChild, -1
	}
	idx := GreatestNotExceeding(n.Internal.Keys, key, t.cmp)
	return n.Internal.RightChildren[idx], idx
}

// childAt returns the page number of the child at slot idx (-1 =
// leftmost).
func childAt(n *Node, idx int) page.PageNumber {
	if idx < 0 {
		return n.Internal.LeftmostChild
	}
	return n.Internal.RightChildren[idx]
}
