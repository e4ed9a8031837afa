package bptree

import "noidkv/internal/page"

// CompareFunc orders two fixed-size keys, returning <0, 0, >0 exactly
// like bytes.Compare.
type CompareFunc func(a, b []byte) int

// NodeStore is the seam between the tree algorithm and its backing
// storage, resolving spec §9's open question of whether the paged tree
// reuses the in-memory algorithm: the same Tree runs unmodified over a
// MemStore or a PagerStore, the only difference being how a Node is
// persisted and addressed.
type NodeStore interface {
	// Get loads the node at pn.
	Get(pn page.PageNumber) (*Node, error)
	// Put persists n. A NullPage pn allocates a fresh address; the
	// address written to is returned.
	Put(n *Node, pn page.PageNumber) (page.PageNumber, error)
	// Free releases pn's storage; the tree never reads it again.
	Free(pn page.PageNumber) error
}
