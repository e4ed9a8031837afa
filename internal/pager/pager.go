// Package pager mediates between the B+tree core and the file
// abstraction: it owns the file handle and the cached FileHeader, reads
// and writes typed pages, and allocates/recycles page numbers through
// the freelist (spec §4.7).
package pager

import (
	"go.uber.org/zap"

	"noidkv/internal/kverrors"
	"noidkv/internal/logging"
	"noidkv/internal/page"
	"noidkv/internal/vfs"
)

// Pager owns one open file's header and mediates all page-level I/O to
// it. Every exported operation that touches the file acquires the
// appropriate file lock itself (unique for anything that writes or
// allocates, shared for pure reads); callers never lock directly.
type Pager struct {
	file vfs.File
	log  *zap.Logger

	header *page.FileHeader
}

// Open opens a pager over f. If the file is empty, it is initialized
// with a default FileHeader; otherwise the existing header is read and
// validated. A nil logger defaults to a no-op logger.
func Open(f vfs.File, log *zap.Logger) (*Pager, error) {
	if log == nil {
		log = logging.Nop()
	}
	p := &Pager{file: f, log: log}

	guard, err := f.Unique()
	if err != nil {
		return nil, err
	}
	defer guard.Unlock()

	size, err := f.Size()
	if err != nil {
		return nil, err
	}

	if size == 0 {
		h, err := page.NewFileHeaderBuilder().Build()
		if err != nil {
			return nil, err
		}
		if err := p.writeFileHeaderLocked(h); err != nil {
			return nil, err
		}
		log.Debug("pager: initialized new file", zap.Uint16("page_size", h.PageSize), zap.Uint8("key_size", h.KeySize))
		return p, nil
	}

	buf := make([]byte, page.FileHeaderSize)
	if err := p.readFull(buf, 0); err != nil {
		return nil, err
	}
	h, err := page.FileHeaderBuilderFromBytes(buf).Build()
	if err != nil {
		return nil, err
	}
	p.header = h
	log.Debug("pager: opened existing file", zap.Uint16("page_size", h.PageSize), zap.Uint8("key_size", h.KeySize))
	return p, nil
}

// ReadFileHeader returns the cached header.
func (p *Pager) ReadFileHeader() *page.FileHeader { return p.header }

// PageSize returns the file's configured page size.
func (p *Pager) PageSize() uint16 { return p.header.PageSize }

// KeySize returns the file's configured fixed key size.
func (p *Pager) KeySize() uint8 { return p.header.KeySize }

// MaxOverflowData returns the largest chunk a single overflow page can
// hold at this file's page size.
func (p *Pager) MaxOverflowData() int { return page.MaxOverflowData(p.header.PageSize) }

// WriteFileHeader replaces the stored header.
func (p *Pager) WriteFileHeader(h *page.FileHeader) error {
	guard, err := p.file.Unique()
	if err != nil {
		return err
	}
	defer guard.Unlock()
	return p.writeFileHeaderLocked(h)
}

func (p *Pager) writeFileHeaderLocked(h *page.FileHeader) error {
	raw := page.Serialize(h)
	if err := p.writeFull(raw, 0); err != nil {
		return err
	}
	p.header = h
	return nil
}

// NewInternalNodeBuilder returns a builder preconfigured with the
// current page_size/key_size.
func (p *Pager) NewInternalNodeBuilder() *page.InternalNodeBuilder {
	return page.NewInternalNodeBuilder(p.header.PageSize, int(p.header.KeySize))
}

// NewLeafNodeBuilder returns a builder preconfigured with the current
// page_size/key_size.
func (p *Pager) NewLeafNodeBuilder() *page.LeafNodeBuilder {
	return page.NewLeafNodeBuilder(p.header.PageSize, int(p.header.KeySize))
}

// NewTreeHeaderBuilder returns a builder preconfigured with the current
// page_size/key_size for a tree of the given type.
func (p *Pager) NewTreeHeaderBuilder(t page.TreeType) *page.TreeHeaderBuilder {
	return page.NewTreeHeaderBuilder(p.header.PageSize, p.header.KeySize, t)
}

// NewOverflowBuilder returns a builder preconfigured with the current
// page_size.
func (p *Pager) NewOverflowBuilder() *page.OverflowBuilder {
	return page.NewOverflowBuilder(p.header.PageSize)
}

// NewFreelistBuilder returns a builder preconfigured with the current
// page_size.
func (p *Pager) NewFreelistBuilder() *page.FreelistBuilder {
	return page.NewFreelistBuilder(p.header.PageSize)
}

func (p *Pager) pageOffset(pn page.PageNumber) int64 {
	return int64(pn) * int64(p.header.PageSize)
}

// PeekNodeMagic reads just a page's leading two magic bytes, letting a
// caller (the pager-backed B+tree node store) decide whether to call
// ReadInternalNode or ReadLeafNode without reading the whole page twice.
func (p *Pager) PeekNodeMagic(pn page.PageNumber) ([2]byte, error) {
	guard, err := p.file.Shared()
	if err != nil {
		return [2]byte{}, err
	}
	defer guard.Unlock()

	var buf [2]byte
	if err := p.readFull(buf[:], p.pageOffset(pn)); err != nil {
		return buf, err
	}
	return buf, nil
}

// ReadInternalNode reads and parses the internal node at pn.
func (p *Pager) ReadInternalNode(pn page.PageNumber) (*page.InternalNode, error) {
	guard, err := p.file.Shared()
	if err != nil {
		return nil, err
	}
	defer guard.Unlock()

	buf := make([]byte, p.header.PageSize)
	if err := p.readFull(buf, p.pageOffset(pn)); err != nil {
		return nil, err
	}
	return page.InternalNodeBuilderFromBytes(p.header.PageSize, int(p.header.KeySize), buf).Build()
}

// WriteInternalNode serializes and writes n. A NullPage pn allocates a
// fresh page number first; the written-to page number is returned.
func (p *Pager) WriteInternalNode(n *page.InternalNode, pn page.PageNumber) (page.PageNumber, error) {
	guard, err := p.file.Unique()
	if err != nil {
		return page.NullPage, err
	}
	defer guard.Unlock()

	if pn.IsNull() {
		pn, err = p.allocatePageLocked()
		if err != nil {
			return page.NullPage, err
		}
	}
	raw := page.SerializeInternalNode(n, p.header.PageSize)
	if err := p.writeFull(raw, p.pageOffset(pn)); err != nil {
		return page.NullPage, err
	}
	return pn, nil
}

// ReadLeafNode reads and parses the leaf node at pn.
func (p *Pager) ReadLeafNode(pn page.PageNumber) (*page.LeafNode, error) {
	guard, err := p.file.Shared()
	if err != nil {
		return nil, err
	}
	defer guard.Unlock()

	buf := make([]byte, p.header.PageSize)
	if err := p.readFull(buf, p.pageOffset(pn)); err != nil {
		return nil, err
	}
	return page.LeafNodeBuilderFromBytes(p.header.PageSize, int(p.header.KeySize), buf).Build()
}

// WriteLeafNode serializes and writes n, allocating a page when pn is
// NullPage.
func (p *Pager) WriteLeafNode(n *page.LeafNode, pn page.PageNumber) (page.PageNumber, error) {
	guard, err := p.file.Unique()
	if err != nil {
		return page.NullPage, err
	}
	defer guard.Unlock()

	if pn.IsNull() {
		pn, err = p.allocatePageLocked()
		if err != nil {
			return page.NullPage, err
		}
	}
	raw := page.SerializeLeafNode(n, p.header.PageSize)
	if err := p.writeFull(raw, p.pageOffset(pn)); err != nil {
		return page.NullPage, err
	}
	return pn, nil
}

// ReadTreeHeader reads and parses the tree header at pn.
func (p *Pager) ReadTreeHeader(pn page.PageNumber) (*page.TreeHeader, error) {
	guard, err := p.file.Shared()
	if err != nil {
		return nil, err
	}
	defer guard.Unlock()

	buf := make([]byte, p.header.PageSize)
	if err := p.readFull(buf, p.pageOffset(pn)); err != nil {
		return nil, err
	}
	return page.TreeHeaderBuilderFromBytes(p.header.PageSize, p.header.KeySize, buf).Build()
}

// WriteTreeHeader serializes and writes h, allocating a page when pn is
// NullPage.
func (p *Pager) WriteTreeHeader(h *page.TreeHeader, pn page.PageNumber) (page.PageNumber, error) {
	guard, err := p.file.Unique()
	if err != nil {
		return page.NullPage, err
	}
	defer guard.Unlock()

	if pn.IsNull() {
		pn, err = p.allocatePageLocked()
		if err != nil {
			return page.NullPage, err
		}
	}
	raw := page.SerializeTreeHeader(h, p.header.PageSize)
	if err := p.writeFull(raw, p.pageOffset(pn)); err != nil {
		return page.NullPage, err
	}
	return pn, nil
}

// ReadOverflow reads and parses the overflow chunk at pn.
func (p *Pager) ReadOverflow(pn page.PageNumber) (*page.Overflow, error) {
	guard, err := p.file.Shared()
	if err != nil {
		return nil, err
	}
	defer guard.Unlock()

	buf := make([]byte, p.header.PageSize)
	if err := p.readFull(buf, p.pageOffset(pn)); err != nil {
		return nil, err
	}
	return page.OverflowBuilderFromBytes(p.header.PageSize, buf).Build()
}

// WriteOverflow serializes and writes o, allocating a page when pn is
// NullPage.
func (p *Pager) WriteOverflow(o *page.Overflow, pn page.PageNumber) (page.PageNumber, error) {
	guard, err := p.file.Unique()
	if err != nil {
		return page.NullPage, err
	}
	defer guard.Unlock()

	if pn.IsNull() {
		pn, err = p.allocatePageLocked()
		if err != nil {
			return page.NullPage, err
		}
	}
	raw := page.SerializeOverflow(o, p.header.PageSize)
	if err := p.writeFull(raw, p.pageOffset(pn)); err != nil {
		return page.NullPage, err
	}
	return pn, nil
}

func (p *Pager) readFreelistLocked(pn page.PageNumber) (*page.Freelist, error) {
	buf := make([]byte, p.header.PageSize)
	if err := p.readFull(buf, p.pageOffset(pn)); err != nil {
		return nil, err
	}
	return page.FreelistBuilderFromBytes(p.header.PageSize, buf).Build()
}

func (p *Pager) writeFreelistLocked(f *page.Freelist, pn page.PageNumber) error {
	raw := page.SerializeFreelist(f, p.header.PageSize)
	return p.writeFull(raw, p.pageOffset(pn))
}

// AllocatePage reuses a freelist entry if one is available, else extends
// the file by one page.
func (p *Pager) AllocatePage() (page.PageNumber, error) {
	guard, err := p.file.Unique()
	if err != nil {
		return page.NullPage, err
	}
	defer guard.Unlock()

	pn, err := p.allocatePageLocked()
	if err != nil {
		return page.NullPage, err
	}
	p.log.Debug("pager: allocated page", zap.Uint32("page", uint32(pn)))
	return pn, nil
}

func (p *Pager) allocatePageLocked() (page.PageNumber, error) {
	if p.header.FirstFreelistPage.IsNull() {
		return p.extendFileLocked()
	}

	headPN := p.header.FirstFreelistPage
	fl, err := p.readFreelistLocked(headPN)
	if err != nil {
		return page.NullPage, err
	}

	if len(fl.PageNumbers) > 0 {
		last := len(fl.PageNumbers) - 1
		pn := fl.PageNumbers[last]
		fl.PageNumbers = fl.PageNumbers[:last]
		if err := p.writeFreelistLocked(fl, headPN); err != nil {
			return page.NullPage, err
		}
		return pn, nil
	}

	// The head page carries no entries of its own; it is itself reclaimed
	// as the allocated page, and the chain advances past it.
	h, err := page.FileHeaderBuilderFrom(p.header).WithFirstFreelistPage(fl.Next).Build()
	if err != nil {
		return page.NullPage, err
	}
	if err := p.writeFileHeaderLocked(h); err != nil {
		return page.NullPage, err
	}
	return headPN, nil
}

// FreePage returns pn to the freelist.
func (p *Pager) FreePage(pn page.PageNumber) error {
	guard, err := p.file.Unique()
	if err != nil {
		return err
	}
	defer guard.Unlock()

	if err := p.freePageLocked(pn); err != nil {
		return err
	}
	p.log.Debug("pager: freed page", zap.Uint32("page", uint32(pn)))
	return nil
}

func (p *Pager) freePageLocked(pn page.PageNumber) error {
	if p.header.FirstFreelistPage.IsNull() {
		return p.newFreelistHeadLocked(pn, page.NullPage)
	}

	headPN := p.header.FirstFreelistPage
	fl, err := p.readFreelistLocked(headPN)
	if err != nil {
		return err
	}

	if len(fl.PageNumbers) < page.FreelistCapacity(p.header.PageSize) {
		fl.PageNumbers = append(fl.PageNumbers, pn)
		return p.writeFreelistLocked(fl, headPN)
	}

	// The head page is full; chain a new one in front of it.
	return p.newFreelistHeadLocked(pn, headPN)
}

// newFreelistHeadLocked extends the file for a new freelist page holding
// pn as its only entry, chained in front of oldHead, and installs it as
// FileHeader.first_freelist_page.
func (p *Pager) newFreelistHeadLocked(pn, oldHead page.PageNumber) error {
	newHeadPN, err := p.extendFileLocked()
	if err != nil {
		return err
	}
	fl := &page.Freelist{Previous: page.NullPage, Next: oldHead, PageNumbers: []page.PageNumber{pn}}
	if err := p.writeFreelistLocked(fl, newHeadPN); err != nil {
		return err
	}
	h, err := page.FileHeaderBuilderFrom(p.header).WithFirstFreelistPage(newHeadPN).Build()
	if err != nil {
		return err
	}
	return p.writeFileHeaderLocked(h)
}

// extendFileLocked appends one blank page at the current end of file and
// returns its page number. It never consults the freelist, so it is safe
// to call while building or repairing the freelist chain itself.
func (p *Pager) extendFileLocked() (page.PageNumber, error) {
	size, err := p.file.Size()
	if err != nil {
		return page.NullPage, err
	}
	pn := page.PageNumber(size / int64(p.header.PageSize))
	blank := make([]byte, p.header.PageSize)
	if err := p.writeFull(blank, p.pageOffset(pn)); err != nil {
		return page.NullPage, err
	}
	return pn, nil
}

// readFull loops ReadAt until buf is filled or a non-recoverable error
// is hit (spec §4.7: short reads within a page are retried to
// completion).
func (p *Pager) readFull(buf []byte, offset int64) error {
	for total := 0; total < len(buf); {
		n, err := p.file.ReadAt(buf[total:], offset+int64(total))
		total += n
		if err != nil {
			if total >= len(buf) {
				return nil
			}
			return err
		}
		if n == 0 {
			return kverrors.New(kverrors.Io, "pager: read made no progress")
		}
	}
	return nil
}

// writeFull loops WriteAt until buf is fully written or a
// non-recoverable error is hit.
func (p *Pager) writeFull(buf []byte, offset int64) error {
	for total := 0; total < len(buf); {
		n, err := p.file.WriteAt(buf[total:], offset+int64(total))
		total += n
		if err != nil {
			if total >= len(buf) {
				return nil
			}
			return err
		}
		if n == 0 {
			return kverrors.New(kverrors.Io, "pager: write made no progress")
		}
	}
	return nil
}
