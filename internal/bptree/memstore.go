package bptree

import (
	"sync"

	"noidkv/internal/kverrors"
	"noidkv/internal/page"
)

// MemStore is a NodeStore backed by a plain map, used for the purely
// in-memory tree and for tests of the algorithm in isolation from the
// pager.
type MemStore struct {
	mu    sync.Mutex
	nodes map[page.PageNumber]*Node
	next  page.PageNumber
}

// NewMemStore returns an empty store. Page numbers are assigned
// sequentially starting at 1, so NullPage (0) never aliases a real node.
func NewMemStore() *MemStore {
	return &MemStore{nodes: make(map[page.PageNumber]*Node), next: 1}
}

func (s *MemStore) Get(pn page.PageNumber) (*Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[pn]
	if !ok {
		return nil, kverrors.Newf(kverrors.NotFound, "memstore: no node at %d", pn)
	}
	return n, nil
}

func (s *MemStore) Put(n *Node, pn page.PageNumber) (page.PageNumber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pn.IsNull() {
		pn = s.next
		s.next++
	}
	s.nodes[pn] = n
	return pn, nil
}

func (s *MemStore) Free(pn page.PageNumber) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nodes, pn)
	return nil
}
