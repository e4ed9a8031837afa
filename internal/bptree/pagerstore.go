package bptree

import (
	"noidkv/internal/kverrors"
	"noidkv/internal/page"
	"noidkv/internal/pager"
)

// overflowPrefixLen mirrors the page package's private constant: the
// number of value bytes cached inline alongside an overflow pointer.
const overflowPrefixLen = 3

// PagerStore is the persistent NodeStore from spec §4.8a: it serializes
// Tree nodes to/from InternalNode/LeafNode page codecs through a Pager,
// and chains Overflow pages for leaf values too large to inline,
// resolving the "paged tree reuses the in-memory algorithm" open
// question by being the only thing that changes between an in-memory
// and an on-disk tree.
type PagerStore struct {
	p *pager.Pager
}

// NewPagerStore wraps p as a NodeStore.
func NewPagerStore(p *pager.Pager) *PagerStore {
	return &PagerStore{p: p}
}

func (s *PagerStore) Get(pn page.PageNumber) (*Node, error) {
	magic, err := s.p.PeekNodeMagic(pn)
	if err != nil {
		return nil, err
	}
	switch page.SniffNodeKind(magic) {
	case page.NodeKindInternal:
		return s.getInternal(pn)
	case page.NodeKindLeaf:
		return s.getLeaf(pn)
	default:
		return nil, kverrors.Newf(kverrors.InvalidFormat, "pagerstore: page %d has unrecognized node magic", pn)
	}
}

func (s *PagerStore) getInternal(pn page.PageNumber) (*Node, error) {
	in, err := s.p.ReadInternalNode(pn)
	if err != nil {
		return nil, err
	}
	n := newInternal()
	n.Internal.LeftmostChild = in.LeftmostChild
	for _, e := range in.Entries {
		n.Internal.Keys = append(n.Internal.Keys, e.Key)
		n.Internal.RightChildren = append(n.Internal.RightChildren, e.RightChild)
	}
	return n, nil
}

func (s *PagerStore) getLeaf(pn page.PageNumber) (*Node, error) {
	ln, err := s.p.ReadLeafNode(pn)
	if err != nil {
		return nil, err
	}
	n := newLeaf()
	n.Leaf.LeftSibling = ln.LeftSibling
	n.Leaf.RightSibling = ln.RightSibling
	for _, r := range ln.Records {
		value, err := s.readRecordValue(&r)
		if err != nil {
			return nil, err
		}
		n.Leaf.Keys = append(n.Leaf.Keys, r.Key)
		n.Leaf.Values = append(n.Leaf.Values, value)
	}
	return n, nil
}

// readRecordValue reassembles a record's value: the inline case returns
// the payload directly; the overflow case concatenates the cached
// prefix with the chained Overflow pages' data (spec §4.6: the first
// overflowPrefixLen bytes of the value are cached inline, the remainder
// lives in the chain).
func (s *PagerStore) readRecordValue(r *page.NodeRecord) ([]byte, error) {
	if r.IsInline() {
		v := make([]byte, len(r.InlineValue()))
		copy(v, r.InlineValue())
		return v, nil
	}

	value := make([]byte, 0, overflowPrefixLen)
	value = append(value, r.OverflowPrefix()...)

	for pn := r.OverflowPage(); !pn.IsNull(); {
		o, err := s.p.ReadOverflow(pn)
		if err != nil {
			return nil, err
		}
		value = append(value, o.Data...)
		pn = o.NextOverflowPage
	}
	return value, nil
}

func (s *PagerStore) Put(n *Node, pn page.PageNumber) (page.PageNumber, error) {
	if n.Kind == KindInternal {
		return s.putInternal(n, pn)
	}
	return s.putLeaf(n, pn)
}

func (s *PagerStore) putInternal(n *Node, pn page.PageNumber) (page.PageNumber, error) {
	b := s.p.NewInternalNodeBuilder().WithLeftmostChild(n.Internal.LeftmostChild)
	for i, k := range n.Internal.Keys {
		b = b.WithEntry(k, n.Internal.RightChildren[i])
	}
	in, err := b.Build()
	if err != nil {
		return page.NullPage, err
	}
	return s.p.WriteInternalNode(in, pn)
}

// putLeaf writes n as a LeafNode, allocating fresh overflow chains for
// any value too large to inline. Any overflow chains the page held
// before this write are freed first: PagerStore treats every Put of an
// existing page as a potential overwrite of every record in it (spec
// §4.6's "freed on delete/overwrite"), rather than diffing old vs new
// per key.
func (s *PagerStore) putLeaf(n *Node, pn page.PageNumber) (page.PageNumber, error) {
	if !pn.IsNull() {
		if err := s.freeLeafOverflowChains(pn); err != nil {
			return page.NullPage, err
		}
	}

	b := s.p.NewLeafNodeBuilder().WithLeftSibling(n.Leaf.LeftSibling).WithRightSibling(n.Leaf.RightSibling)
	for i, k := range n.Leaf.Keys {
		v := n.Leaf.Values[i]
		if len(v) <= maxInlineLen {
			b = b.WithInlineRecord(k, v)
			continue
		}
		firstPage, err := s.writeOverflowChain(v[overflowPrefixLen:])
		if err != nil {
			return page.NullPage, err
		}
		b = b.WithOverflowRecord(k, v[:overflowPrefixLen], firstPage)
	}
	ln, err := b.Build()
	if err != nil {
		return page.NullPage, err
	}
	return s.p.WriteLeafNode(ln, pn)
}

// maxInlineLen mirrors the page package's private constant.
const maxInlineLen = 7

func (s *PagerStore) freeLeafOverflowChains(pn page.PageNumber) error {
	magic, err := s.p.PeekNodeMagic(pn)
	if err != nil {
		return err
	}
	if page.SniffNodeKind(magic) != page.NodeKindLeaf {
		return nil // a fresh page number that hasn't been written yet
	}
	ln, err := s.p.ReadLeafNode(pn)
	if err != nil {
		return err
	}
	for _, r := range ln.Records {
		if !r.IsInline() {
			if err := s.freeOverflowChain(r.OverflowPage()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *PagerStore) freeOverflowChain(first page.PageNumber) error {
	for pn := first; !pn.IsNull(); {
		o, err := s.p.ReadOverflow(pn)
		if err != nil {
			return err
		}
		next := o.NextOverflowPage
		if err := s.p.FreePage(pn); err != nil {
			return err
		}
		pn = next
	}
	return nil
}

// writeOverflowChain splits data across as many Overflow pages as
// needed and writes them tail-first so each page's next pointer is
// known before it is written; it returns the head page number.
func (s *PagerStore) writeOverflowChain(data []byte) (page.PageNumber, error) {
	chunkSize := s.p.MaxOverflowData()
	var chunks [][]byte
	for len(data) > 0 {
		n := chunkSize
		if n > len(data) {
			n = len(data)
		}
		chunks = append(chunks, data[:n])
		data = data[n:]
	}

	next := page.NullPage
	for i := len(chunks) - 1; i >= 0; i-- {
		o, err := s.p.NewOverflowBuilder().WithData(chunks[i]).WithNextOverflowPage(next).Build()
		if err != nil {
			return page.NullPage, err
		}
		pn, err := s.p.WriteOverflow(o, page.NullPage)
		if err != nil {
			return page.NullPage, err
		}
		next = pn
	}
	return next, nil
}

func (s *PagerStore) Free(pn page.PageNumber) error {
	magic, err := s.p.PeekNodeMagic(pn)
	if err != nil {
		return err
	}
	if page.SniffNodeKind(magic) == page.NodeKindLeaf {
		if err := s.freeLeafOverflowChains(pn); err != nil {
			return err
		}
	}
	return s.p.FreePage(pn)
}
