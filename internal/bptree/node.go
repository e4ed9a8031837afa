// Package bptree implements the in-memory B+tree algorithm from spec
// §4.8 once, over a NodeStore seam (§4.8a) so both a pure in-memory tree
// and a pager-backed persistent tree share the same split/merge/
// redistribute logic instead of reimplementing it twice.
package bptree

import "noidkv/internal/page"

// Kind distinguishes the two node variants. Go has no sum types, so Node
// carries a Kind tag and exactly one of Internal/Leaf is non-nil —
// mirroring spec §9's "replace downcasting with a sum type" guidance.
type Kind int

const (
	KindInternal Kind = iota
	KindLeaf
)

// InternalBody is the internal-node variant: a leftmost child plus
// key/right-child entries, strictly key-ordered.
type InternalBody struct {
	LeftmostChild page.PageNumber
	Keys          [][]byte
	RightChildren []page.PageNumber
}

// LeafBody is the leaf-node variant: strictly key-ordered records plus
// non-owning sibling links.
type LeafBody struct {
	LeftSibling  page.PageNumber
	RightSibling page.PageNumber
	Keys         [][]byte
	Values       [][]byte
}

// Node is a B+tree node, either Internal or Leaf per Kind.
type Node struct {
	Kind     Kind
	Internal *InternalBody
	Leaf     *LeafBody
}

func newInternal() *Node {
	return &Node{Kind: KindInternal, Internal: &InternalBody{}}
}

func newLeaf() *Node {
	return &Node{Kind: KindLeaf, Leaf: &LeafBody{}}
}

// population is the entry/record count this node currently holds.
func (n *Node) population() int {
	if n.Kind == KindInternal {
		return len(n.Internal.Keys)
	}
	return len(n.Leaf.Keys)
}

// isFull reports population > 2*order.
func (n *Node) isFull(order int) bool { return n.population() > 2*order }

// isPoor reports population < order (root is never checked this way by
// the caller; callers special-case the root as "poor iff empty").
func (n *Node) isPoor(order int) bool { return n.population() < order }

// isRich reports population > order: the node can lend an entry to a
// poor sibling without itself becoming poor.
func (n *Node) isRich(order int) bool { return n.population() > order }

func (n *Node) firstKey() []byte {
	if n.Kind == KindInternal {
		return n.Internal.Keys[0]
	}
	return n.Leaf.Keys[0]
}
